package cancel_reservation

import (
	"time"

	cancelReservation "github.com/canchapp/PDR-BookingService/internal/usecase/cancel_reservation"
)

// CancelReservationRequest HTTP request model
type CancelReservationRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelReservationResponse HTTP response model
type CancelReservationResponse struct {
	ReservationID  int64  `json:"reservationId"`
	Status         string `json:"status"`
	DepositOutcome string `json:"depositOutcome"`

	CreditAmount    *float64 `json:"creditAmount,omitempty"`
	CreditExpiresAt *string  `json:"creditExpiresAt,omitempty"`
	ReviewDueAt     *string  `json:"reviewDueAt,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelReservation.Response) *CancelReservationResponse {
	out := &CancelReservationResponse{
		ReservationID:  resp.ReservationID,
		Status:         resp.Status,
		DepositOutcome: resp.DepositOutcome,
	}

	if resp.CreditExpiresAt != nil {
		amount := resp.CreditAmount
		expires := resp.CreditExpiresAt.Format(time.RFC3339)
		out.CreditAmount = &amount
		out.CreditExpiresAt = &expires
	}

	if resp.ReviewDueAt != nil {
		due := resp.ReviewDueAt.Format(time.RFC3339)
		out.ReviewDueAt = &due
	}

	return out
}
