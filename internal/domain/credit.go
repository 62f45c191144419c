package domain

import "time"

// Credit represents deposit value returned to a user after an eligible cancellation,
// reusable once at the same venue
type Credit struct {
	ID                  int64
	UserID              int64
	VenueID             int64
	Amount              float64
	SourceReservationID int64 // бронирование, отмена которого породила кредит
	ExpiresAt           time.Time

	Consumed                bool
	ConsumedByReservationID *int64
	ConsumedAt              *time.Time

	CreatedAt time.Time
}

// IsExpired returns true if the credit has expired at the given moment
func (c *Credit) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsRedeemable returns true if the credit can still be applied to a new reservation
func (c *Credit) IsRedeemable(now time.Time) bool {
	return !c.Consumed && !c.IsExpired(now)
}
