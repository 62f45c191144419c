package deposits

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	creditRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/credit"
	reviewRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/review"
	"github.com/canchapp/PDR-BookingService/internal/service/deposits/models"
)

type fakeCreditRepo struct {
	credits   []*domain.Credit
	nextID    int64
	hasActive map[string]bool
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{nextID: 1, hasActive: map[string]bool{}}
}

func creditKey(userID, venueID int64) string {
	return fmt.Sprintf("%d/%d", userID, venueID)
}

func (f *fakeCreditRepo) Create(_ context.Context, c *domain.Credit) (*domain.Credit, error) {
	key := creditKey(c.UserID, c.VenueID)
	if f.hasActive[key] {
		return nil, creditRepo.ErrActiveCreditExists
	}
	cp := *c
	cp.ID = f.nextID
	f.nextID++
	f.credits = append(f.credits, &cp)
	f.hasActive[key] = true
	return &cp, nil
}

func (f *fakeCreditRepo) GetByConsumedReservation(_ context.Context, reservationID int64) (*domain.Credit, error) {
	for _, c := range f.credits {
		if c.Consumed && c.ConsumedByReservationID != nil && *c.ConsumedByReservationID == reservationID {
			return c, nil
		}
	}
	return nil, creditRepo.ErrCreditNotFound
}

type fakeReviewRepo struct {
	reviews []*domain.CancellationReview
	nextID  int64
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{nextID: 1}
}

func (f *fakeReviewRepo) Create(_ context.Context, rev *domain.CancellationReview) (*domain.CancellationReview, error) {
	cp := *rev
	cp.ID = f.nextID
	f.nextID++
	f.reviews = append(f.reviews, &cp)
	return &cp, nil
}

func (f *fakeReviewRepo) GetByID(_ context.Context, id int64) (*domain.CancellationReview, error) {
	for _, rev := range f.reviews {
		if rev.ID == id {
			return rev, nil
		}
	}
	return nil, reviewRepo.ErrReviewNotFound
}

func (f *fakeReviewRepo) GetOpenBySlot(_ context.Context, courtID int64, start, end time.Time) ([]*domain.CancellationReview, error) {
	var out []*domain.CancellationReview
	for _, rev := range f.reviews {
		if rev.CourtID == courtID && !rev.Resolved && rev.SlotStart.Before(end) && rev.SlotEnd.After(start) {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) GetDue(_ context.Context, now time.Time, limit uint64) ([]*domain.CancellationReview, error) {
	var out []*domain.CancellationReview
	for _, rev := range f.reviews {
		if !rev.Resolved && rev.IsDue(now) && uint64(len(out)) < limit {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) Resolve(_ context.Context, id int64, outcome domain.ReviewOutcome, now time.Time) error {
	for _, rev := range f.reviews {
		if rev.ID == id {
			if rev.Resolved {
				return reviewRepo.ErrAlreadyResolved
			}
			rev.Resolved = true
			rev.Outcome = &outcome
			rev.ResolvedAt = &now
			return nil
		}
	}
	return reviewRepo.ErrReviewNotFound
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestService() (*Service, *fakeCreditRepo, *fakeReviewRepo) {
	credits := newFakeCreditRepo()
	reviews := newFakeReviewRepo()
	return NewService(credits, reviews, nopLogger{}), credits, reviews
}

func paidReservation(startIn time.Duration, now time.Time) *domain.Reservation {
	return &domain.Reservation{
		ID:              10,
		UserID:          7,
		VenueID:         3,
		CourtID:         5,
		StartTime:       now.Add(startIn),
		DurationMinutes: 60,
		TotalPrice:      5000,
		RequiresDeposit: true,
		DepositAmount:   1500,
		Status:          domain.StatusPaid,
	}
}

func TestEvaluateCancellation_NoDeposit(t *testing.T) {
	svc, credits, reviews := newTestService()
	now := time.Now()

	res := paidReservation(48*time.Hour, now)
	res.RequiresDeposit = false
	res.DepositAmount = 0

	eval, err := svc.EvaluateCancellation(context.Background(), res, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoDeposit, eval.Outcome)
	assert.Empty(t, credits.credits)
	assert.Empty(t, reviews.reviews)
}

func TestEvaluateCancellation_EarlyCancellationCredited(t *testing.T) {
	svc, _, reviews := newTestService()
	now := time.Now()

	res := paidReservation(48*time.Hour, now)

	eval, err := svc.EvaluateCancellation(context.Background(), res, now)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeCredited, eval.Outcome)
	assert.Equal(t, res.DepositAmount, eval.CreditAmount)
	require.NotNil(t, eval.Credit)
	assert.Equal(t, res.UserID, eval.Credit.UserID)
	assert.Equal(t, res.VenueID, eval.Credit.VenueID)
	assert.Equal(t, res.DepositAmount, eval.Credit.Amount)
	assert.Equal(t, now.AddDate(0, 0, domain.CreditTTLDays), eval.Credit.ExpiresAt)
	assert.Empty(t, reviews.reviews)
}

func TestEvaluateCancellation_ExactlyAtCutoffCredited(t *testing.T) {
	svc, _, _ := newTestService()
	now := time.Now()

	res := paidReservation(24*time.Hour, now)

	eval, err := svc.EvaluateCancellation(context.Background(), res, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCredited, eval.Outcome)
}

func TestEvaluateCancellation_SameDayDefersDecision(t *testing.T) {
	svc, credits, reviews := newTestService()
	now := time.Now()

	res := paidReservation(3*time.Hour, now)

	eval, err := svc.EvaluateCancellation(context.Background(), res, now)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePendingRebook, eval.Outcome)
	require.NotNil(t, eval.Review)
	assert.Equal(t, res.ID, eval.Review.ReservationID)
	assert.Equal(t, res.StartTime, eval.Review.SlotStart)
	assert.Equal(t, res.EndTime(), eval.Review.SlotEnd)
	assert.Equal(t, res.StartTime, eval.Review.DueAt)
	assert.Empty(t, credits.credits)
	require.Len(t, reviews.reviews, 1)
	assert.False(t, reviews.reviews[0].Resolved)
}

func TestEvaluateCancellation_CreditPaidReservationAlwaysForfeited(t *testing.T) {
	svc, credits, reviews := newTestService()
	now := time.Now()

	res := paidReservation(72*time.Hour, now)

	// Пользователь уже погасил кредит этим бронированием
	consumedAt := now.Add(-time.Hour)
	credits.credits = append(credits.credits, &domain.Credit{
		ID:                      99,
		UserID:                  res.UserID,
		VenueID:                 res.VenueID,
		Amount:                  res.DepositAmount,
		Consumed:                true,
		ConsumedByReservationID: &res.ID,
		ConsumedAt:              &consumedAt,
	})

	eval, err := svc.EvaluateCancellation(context.Background(), res, now)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeForfeited, eval.Outcome)
	assert.Empty(t, reviews.reviews)
	// Нового кредита не выдано
	assert.Len(t, credits.credits, 1)
}

func TestEvaluateCancellation_ExistingActiveCreditSkipsIssue(t *testing.T) {
	svc, credits, _ := newTestService()
	now := time.Now()

	res := paidReservation(48*time.Hour, now)
	credits.hasActive[creditKey(res.UserID, res.VenueID)] = true

	eval, err := svc.EvaluateCancellation(context.Background(), res, now)
	require.NoError(t, err)

	// Исход тот же, но второй кредит не выдается
	assert.Equal(t, models.OutcomeCredited, eval.Outcome)
	assert.Nil(t, eval.Credit)
	assert.Empty(t, credits.credits)
}

func TestResolveByRebooking_BeforeDeadlineIssuesCredit(t *testing.T) {
	svc, credits, reviews := newTestService()
	now := time.Now()
	slotStart := now.Add(2 * time.Hour)

	rev, err := reviews.Create(context.Background(), &domain.CancellationReview{
		ReservationID: 10,
		UserID:        7,
		VenueID:       3,
		CourtID:       5,
		DepositAmount: 1500,
		SlotStart:     slotStart,
		SlotEnd:       slotStart.Add(time.Hour),
		DueAt:         slotStart,
	})
	require.NoError(t, err)

	err = svc.ResolveByRebooking(context.Background(), 5, slotStart, slotStart.Add(time.Hour), now)
	require.NoError(t, err)

	got, err := reviews.GetByID(context.Background(), rev.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	require.NotNil(t, got.Outcome)
	assert.Equal(t, domain.ReviewOutcomeRebooked, *got.Outcome)

	require.Len(t, credits.credits, 1)
	assert.Equal(t, 1500.0, credits.credits[0].Amount)
	assert.Equal(t, int64(7), credits.credits[0].UserID)
}

func TestResolveByRebooking_IgnoresOtherCourtAndSlot(t *testing.T) {
	svc, credits, reviews := newTestService()
	now := time.Now()
	slotStart := now.Add(2 * time.Hour)

	_, err := reviews.Create(context.Background(), &domain.CancellationReview{
		ReservationID: 10,
		UserID:        7,
		VenueID:       3,
		CourtID:       5,
		DepositAmount: 1500,
		SlotStart:     slotStart,
		SlotEnd:       slotStart.Add(time.Hour),
		DueAt:         slotStart,
	})
	require.NoError(t, err)

	// Другой корт
	err = svc.ResolveByRebooking(context.Background(), 6, slotStart, slotStart.Add(time.Hour), now)
	require.NoError(t, err)
	// Тот же корт, но слот только касается границы
	err = svc.ResolveByRebooking(context.Background(), 5, slotStart.Add(time.Hour), slotStart.Add(2*time.Hour), now)
	require.NoError(t, err)

	assert.False(t, reviews.reviews[0].Resolved)
	assert.Empty(t, credits.credits)
}

func TestResolveByRebooking_AfterDeadlineForfeits(t *testing.T) {
	svc, credits, reviews := newTestService()
	now := time.Now()
	slotStart := now.Add(-time.Hour)

	rev, err := reviews.Create(context.Background(), &domain.CancellationReview{
		ReservationID: 10,
		UserID:        7,
		VenueID:       3,
		CourtID:       5,
		DepositAmount: 1500,
		SlotStart:     slotStart,
		SlotEnd:       slotStart.Add(time.Hour),
		DueAt:         slotStart,
	})
	require.NoError(t, err)

	err = svc.ResolveByRebooking(context.Background(), 5, slotStart, slotStart.Add(time.Hour), now)
	require.NoError(t, err)

	got, err := reviews.GetByID(context.Background(), rev.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, domain.ReviewOutcomeExpired, *got.Outcome)
	assert.Empty(t, credits.credits)
}

func TestResolveByDeadline_ExpiresDueReview(t *testing.T) {
	svc, credits, reviews := newTestService()
	now := time.Now()
	slotStart := now.Add(-10 * time.Minute)

	rev, err := reviews.Create(context.Background(), &domain.CancellationReview{
		ReservationID: 10,
		UserID:        7,
		VenueID:       3,
		CourtID:       5,
		DepositAmount: 1500,
		SlotStart:     slotStart,
		SlotEnd:       slotStart.Add(time.Hour),
		DueAt:         slotStart,
	})
	require.NoError(t, err)

	err = svc.ResolveByDeadline(context.Background(), rev.ID, now)
	require.NoError(t, err)

	got, err := reviews.GetByID(context.Background(), rev.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, domain.ReviewOutcomeExpired, *got.Outcome)
	assert.Empty(t, credits.credits)

	// Повторный вызов идемпотентен
	err = svc.ResolveByDeadline(context.Background(), rev.ID, now)
	require.NoError(t, err)
}

func TestResolveByDeadline_NotDueYetSkips(t *testing.T) {
	svc, _, reviews := newTestService()
	now := time.Now()
	slotStart := now.Add(time.Hour)

	rev, err := reviews.Create(context.Background(), &domain.CancellationReview{
		ReservationID: 10,
		CourtID:       5,
		SlotStart:     slotStart,
		SlotEnd:       slotStart.Add(time.Hour),
		DueAt:         slotStart,
	})
	require.NoError(t, err)

	err = svc.ResolveByDeadline(context.Background(), rev.ID, now)
	require.NoError(t, err)

	got, err := reviews.GetByID(context.Background(), rev.ID)
	require.NoError(t, err)
	assert.False(t, got.Resolved)
}

func TestResolveByDeadline_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.ResolveByDeadline(context.Background(), 404, time.Now())
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestResolveDue_ExpiresAllDueReviews(t *testing.T) {
	svc, _, reviews := newTestService()
	now := time.Now()

	for i := 0; i < 3; i++ {
		start := now.Add(time.Duration(-1-i) * time.Hour)
		_, err := reviews.Create(context.Background(), &domain.CancellationReview{
			ReservationID: int64(10 + i),
			CourtID:       5,
			SlotStart:     start,
			SlotEnd:       start.Add(time.Hour),
			DueAt:         start,
		})
		require.NoError(t, err)
	}
	// Еще не наступившая переоценка не трогается
	future := now.Add(time.Hour)
	_, err := reviews.Create(context.Background(), &domain.CancellationReview{
		ReservationID: 20,
		CourtID:       5,
		SlotStart:     future,
		SlotEnd:       future.Add(time.Hour),
		DueAt:         future,
	})
	require.NoError(t, err)

	n, err := svc.ResolveDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = svc.ResolveDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
