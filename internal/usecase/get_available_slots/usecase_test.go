package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	venueClient "github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	"github.com/canchapp/PDR-BookingService/pkg/types"
)

type fakeReservationRepo struct {
	reservations []*domain.Reservation
}

func (f *fakeReservationRepo) GetActiveByCourtAndRange(_ context.Context, courtID int64, start, end time.Time) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, res := range f.reservations {
		if res.CourtID == courtID && res.IsActive() && res.Overlaps(start, end) {
			out = append(out, res)
		}
	}
	return out, nil
}

type fakeVenueClient struct {
	courts map[int64]*venueClient.Court
}

func (f *fakeVenueClient) GetCourt(_ context.Context, courtID int64) (*venueClient.Court, error) {
	c, ok := f.courts[courtID]
	if !ok {
		return nil, venueClient.ErrCourtNotFound
	}
	return c, nil
}

type fixedTimeProvider struct{ now time.Time }

func (p fixedTimeProvider) Now() time.Time { return p.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const testCourtID = int64(5)

func testCourt() *venueClient.Court {
	return &venueClient.Court{
		ID:                  testCourtID,
		VenueID:             3,
		PricePerHour:        6000,
		SlotDurationMinutes: 60,
		OpenTime:            types.TimeString("10:00"),
		CloseTime:           types.TimeString("14:00"),
		Active:              true,
	}
}

type ucFixture struct {
	uc   *UseCase
	repo *fakeReservationRepo
	now  time.Time
}

func newFixture() *ucFixture {
	repo := &fakeReservationRepo{}
	venues := &fakeVenueClient{courts: map[int64]*venueClient.Court{testCourtID: testCourt()}}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	uc := NewUseCase(repo, venues, nopLogger{})
	uc.timeProvider = fixedTimeProvider{now: now}

	return &ucFixture{uc: uc, repo: repo, now: now}
}

func TestExecute_AllSlotsFreeTomorrow(t *testing.T) {
	f := newFixture()
	date := f.now.AddDate(0, 0, 1)

	resp, err := f.uc.Execute(context.Background(), &Request{UserID: 7, CourtID: testCourtID, Date: date})
	require.NoError(t, err)

	// 10:00-14:00 с шагом 60 минут = 4 слота
	require.Len(t, resp.Slots, 4)
	assert.Equal(t, types.TimeString("10:00"), resp.Slots[0].StartTime)
	assert.Equal(t, types.TimeString("13:00"), resp.Slots[3].StartTime)
	for _, slot := range resp.Slots {
		assert.True(t, slot.Available)
		assert.Equal(t, 6000.0, slot.Price)
	}
}

func TestExecute_OverlappingReservationBlocksSlot(t *testing.T) {
	f := newFixture()
	date := f.now.AddDate(0, 0, 1)

	f.repo.reservations = append(f.repo.reservations, &domain.Reservation{
		ID:              1,
		CourtID:         testCourtID,
		StartTime:       time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          domain.StatusPaid,
	})

	resp, err := f.uc.Execute(context.Background(), &Request{CourtID: testCourtID, Date: date})
	require.NoError(t, err)

	require.Len(t, resp.Slots, 4)
	assert.True(t, resp.Slots[0].Available)  // 10:00
	assert.False(t, resp.Slots[1].Available) // 11:00 занят
	assert.True(t, resp.Slots[2].Available)  // 12:00 граничит, свободен
	assert.True(t, resp.Slots[3].Available)
}

func TestExecute_CancelledReservationDoesNotBlock(t *testing.T) {
	f := newFixture()
	date := f.now.AddDate(0, 0, 1)

	f.repo.reservations = append(f.repo.reservations, &domain.Reservation{
		ID:              1,
		CourtID:         testCourtID,
		StartTime:       time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          domain.StatusCancelled,
	})

	resp, err := f.uc.Execute(context.Background(), &Request{CourtID: testCourtID, Date: date})
	require.NoError(t, err)
	for _, slot := range resp.Slots {
		assert.True(t, slot.Available)
	}
}

func TestExecute_TodayFiltersStartedSlots(t *testing.T) {
	f := newFixture()
	// Сейчас 2026-03-10 10:30, слот 10:00 уже начался
	f.uc.timeProvider = fixedTimeProvider{now: time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)}

	resp, err := f.uc.Execute(context.Background(), &Request{CourtID: testCourtID, Date: f.now})
	require.NoError(t, err)

	require.Len(t, resp.Slots, 3)
	assert.Equal(t, types.TimeString("11:00"), resp.Slots[0].StartTime)
}

func TestExecute_PastDateReturnsEmpty(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{CourtID: testCourtID, Date: f.now.AddDate(0, 0, -1)})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_InactiveCourtReturnsEmpty(t *testing.T) {
	f := newFixture()
	court := testCourt()
	court.Active = false
	f.uc.venueClient.(*fakeVenueClient).courts[testCourtID] = court

	resp, err := f.uc.Execute(context.Background(), &Request{CourtID: testCourtID, Date: f.now.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_CourtNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), &Request{CourtID: 404, Date: f.now.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, ErrCourtNotFound)
}

func TestExecute_InvalidInput(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), &Request{CourtID: 0, Date: f.now})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.uc.Execute(context.Background(), &Request{CourtID: testCourtID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
