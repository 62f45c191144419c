package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_AllowedPaths(t *testing.T) {
	allowed := []struct {
		from PaymentStatus
		to   PaymentStatus
	}{
		{StatusPending, StatusInProcess},
		{StatusPending, StatusPaid},
		{StatusPending, StatusRejected},
		{StatusPending, StatusCancelled},
		{StatusInProcess, StatusPaid},
		{StatusInProcess, StatusRejected},
		{StatusPaid, StatusCancelled},
		{StatusPaid, StatusRefunded},
	}

	for _, tc := range allowed {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.True(t, CanTransition(tc.from, tc.to))
			assert.NoError(t, ValidateTransition(tc.from, tc.to))
		})
	}
}

func TestCanTransition_ForbiddenPaths(t *testing.T) {
	forbidden := []struct {
		from PaymentStatus
		to   PaymentStatus
	}{
		{StatusCancelled, StatusPaid},
		{StatusPaid, StatusPending},
		{StatusRejected, StatusPaid},
		{StatusRefunded, StatusPaid},
		{StatusRefunded, StatusCancelled},
		{StatusCancelled, StatusCancelled},
		{StatusInProcess, StatusCancelled},
		{StatusPaid, StatusInProcess},
		{StatusPaid, StatusPaid},
	}

	for _, tc := range forbidden {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.False(t, CanTransition(tc.from, tc.to))
			require.ErrorIs(t, ValidateTransition(tc.from, tc.to), ErrInvalidTransition)
		})
	}
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	for _, terminal := range []PaymentStatus{StatusRejected, StatusCancelled, StatusRefunded} {
		for _, to := range []PaymentStatus{StatusPending, StatusInProcess, StatusPaid, StatusRejected, StatusCancelled, StatusRefunded} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s must be forbidden", terminal, to)
		}
	}
}
