package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservation_Overlaps(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	res := &Reservation{StartTime: base, DurationMinutes: 60} // [10:00, 11:00)

	t.Run("identical interval overlaps", func(t *testing.T) {
		assert.True(t, res.Overlaps(base, base.Add(time.Hour)))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// [10:30, 11:30)
		assert.True(t, res.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	})

	t.Run("touching interval after does not overlap", func(t *testing.T) {
		// [11:00, 12:00)
		assert.False(t, res.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))
	})

	t.Run("touching interval before does not overlap", func(t *testing.T) {
		// [09:00, 10:00)
		assert.False(t, res.Overlaps(base.Add(-time.Hour), base))
	})

	t.Run("containing interval overlaps", func(t *testing.T) {
		assert.True(t, res.Overlaps(base.Add(-time.Hour), base.Add(2*time.Hour)))
	})
}

func TestReservation_EndTime(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	res := &Reservation{StartTime: start, DurationMinutes: 90}
	assert.Equal(t, start.Add(90*time.Minute), res.EndTime())
}

func TestReservation_IsActive(t *testing.T) {
	for _, s := range ActiveStatuses {
		assert.True(t, (&Reservation{Status: s}).IsActive(), "status %s", s)
	}
	for _, s := range InactiveStatuses {
		assert.False(t, (&Reservation{Status: s}).IsActive(), "status %s", s)
	}
}

func TestReservation_CanBeCancelled(t *testing.T) {
	assert.True(t, (&Reservation{Status: StatusPending}).CanBeCancelled())
	assert.True(t, (&Reservation{Status: StatusPaid}).CanBeCancelled())
	assert.False(t, (&Reservation{Status: StatusInProcess}).CanBeCancelled())
	assert.False(t, (&Reservation{Status: StatusCancelled}).CanBeCancelled())
	assert.False(t, (&Reservation{Status: StatusRejected}).CanBeCancelled())
	assert.False(t, (&Reservation{Status: StatusRefunded}).CanBeCancelled())
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []PaymentMethod{MethodCash, MethodCard, MethodTransfer, MethodMercadoPago, MethodOther} {
		assert.True(t, ValidPaymentMethod(m))
	}
	assert.False(t, ValidPaymentMethod(PaymentMethod("bitcoin")))
	assert.False(t, ValidPaymentMethod(PaymentMethod("")))
}

func TestCredit_IsRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	fresh := &Credit{ExpiresAt: now.Add(24 * time.Hour)}
	assert.True(t, fresh.IsRedeemable(now))

	expired := &Credit{ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, expired.IsRedeemable(now))

	// Истечение ровно в now — кредит уже не действует
	boundary := &Credit{ExpiresAt: now}
	assert.False(t, boundary.IsRedeemable(now))

	consumed := &Credit{ExpiresAt: now.Add(24 * time.Hour), Consumed: true}
	assert.False(t, consumed.IsRedeemable(now))
}
