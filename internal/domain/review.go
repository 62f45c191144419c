package domain

import "time"

// ReviewOutcome результат отложенной переоценки отмены день-в-день
type ReviewOutcome string

const (
	// ReviewOutcomeRebooked слот перебронирован до начала — депозит возвращается кредитом
	ReviewOutcomeRebooked ReviewOutcome = "rebooked"
	// ReviewOutcomeExpired слот не перебронирован к началу — депозит удерживается
	ReviewOutcomeExpired ReviewOutcome = "expired"
)

// CancellationReview отложенная переоценка отмены, сделанной менее чем за 24 часа до слота
// Исход зависит от того, перебронируют ли освободившийся слот до его начала
type CancellationReview struct {
	ID            int64
	ReservationID int64
	UserID        int64
	VenueID       int64
	CourtID       int64
	DepositAmount float64

	SlotStart time.Time
	SlotEnd   time.Time
	DueAt     time.Time // момент fallback-проверки = начало слота

	Resolved   bool
	Outcome    *ReviewOutcome
	ResolvedAt *time.Time

	CreatedAt time.Time
}

// IsDue returns true once the fallback deadline has passed
func (r *CancellationReview) IsDue(now time.Time) bool {
	return !now.Before(r.DueAt)
}
