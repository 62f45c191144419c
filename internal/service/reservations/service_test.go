package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	reservationRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/reservation"
	venueClient "github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations/models"
	"github.com/canchapp/PDR-BookingService/pkg/ptr"
)

type fakeReservationRepo struct {
	byID map[int64]*domain.Reservation

	// при первом UpdateStatusFrom можно сымитировать проигранную гонку
	conflictOnce bool
	updateCalls  int
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeReservationRepo) GetByUserID(_ context.Context, userID int64, status *domain.PaymentStatus) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, res := range f.byID {
		if res.UserID != userID {
			continue
		}
		if status != nil && res.Status != *status {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeReservationRepo) GetByVenueWithFilter(_ context.Context, filter domain.VenueReservationsFilter) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, res := range f.byID {
		if res.VenueID != filter.VenueID {
			continue
		}
		if filter.CourtID != nil && res.CourtID != *filter.CourtID {
			continue
		}
		if filter.Status != nil && res.Status != *filter.Status {
			continue
		}
		if !filter.IncludeInactive && !res.IsActive() {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeReservationRepo) UpdateStatusFrom(_ context.Context, id int64, from, to domain.PaymentStatus) error {
	f.updateCalls++
	res, ok := f.byID[id]
	if !ok {
		return reservationRepo.ErrReservationNotFound
	}
	if f.conflictOnce {
		f.conflictOnce = false
		return reservationRepo.ErrStatusConflict
	}
	if res.Status != from {
		return reservationRepo.ErrStatusConflict
	}
	res.Status = to
	return nil
}

type fakeVenueClient struct {
	venues map[int64]*venueClient.Venue
}

func (f *fakeVenueClient) GetVenue(_ context.Context, venueID int64) (*venueClient.Venue, error) {
	v, ok := f.venues[venueID]
	if !ok {
		return nil, venueClient.ErrVenueNotFound
	}
	return v, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const (
	testUserID  = int64(7)
	testOwnerID = int64(100)
	testVenueID = int64(3)
)

func newTestService() (*Service, *fakeReservationRepo) {
	repo := &fakeReservationRepo{byID: map[int64]*domain.Reservation{}}
	venues := &fakeVenueClient{venues: map[int64]*venueClient.Venue{
		testVenueID: {ID: testVenueID, Name: "Club Central", OwnerIDs: []int64{testOwnerID}},
	}}
	return NewService(repo, venues, nopLogger{}), repo
}

func seedReservation(repo *fakeReservationRepo, id int64, status domain.PaymentStatus) *domain.Reservation {
	res := &domain.Reservation{
		ID:              id,
		UserID:          testUserID,
		VenueID:         testVenueID,
		CourtID:         5,
		StartTime:       time.Now().Add(48 * time.Hour),
		DurationMinutes: 60,
		TotalPrice:      5000,
		Status:          status,
		PaymentMethod:   domain.MethodCash,
	}
	repo.byID[id] = res
	return res
}

func TestGetByID_OwnReservation(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPending)

	resp, err := svc.GetByID(context.Background(), 1, testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
}

func TestGetByID_VenueOwnerAllowed(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPaid)

	resp, err := svc.GetByID(context.Background(), 1, testOwnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
}

func TestGetByID_StrangerDenied(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPending)

	_, err := svc.GetByID(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetByID(context.Background(), 404, testUserID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestGetUserReservations_StatusFilter(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPending)
	seedReservation(repo, 2, domain.StatusPaid)

	resp, err := svc.GetUserReservations(context.Background(), &models.GetUserReservationsRequest{
		UserID: testUserID,
		Status: ptr.Ptr(string(domain.StatusPaid)),
	})
	require.NoError(t, err)
	require.Len(t, resp.Reservations, 1)
	assert.Equal(t, int64(2), resp.Reservations[0].ID)
}

func TestGetUserReservations_InvalidStatus(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetUserReservations(context.Background(), &models.GetUserReservationsRequest{
		UserID: testUserID,
		Status: ptr.Ptr("definitely-not-a-status"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetVenueReservations_OwnerOnly(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPaid)

	resp, err := svc.GetVenueReservations(context.Background(), &models.GetVenueReservationsRequest{
		UserID:  testOwnerID,
		VenueID: testVenueID,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Reservations, 1)

	_, err = svc.GetVenueReservations(context.Background(), &models.GetVenueReservationsRequest{
		UserID:  testUserID,
		VenueID: testVenueID,
	})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetVenueReservations_ExcludesInactiveByDefault(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPaid)
	seedReservation(repo, 2, domain.StatusCancelled)

	resp, err := svc.GetVenueReservations(context.Background(), &models.GetVenueReservationsRequest{
		UserID:  testOwnerID,
		VenueID: testVenueID,
	})
	require.NoError(t, err)
	require.Len(t, resp.Reservations, 1)
	assert.Equal(t, int64(1), resp.Reservations[0].ID)

	resp, err = svc.GetVenueReservations(context.Background(), &models.GetVenueReservationsRequest{
		UserID:          testOwnerID,
		VenueID:         testVenueID,
		IncludeInactive: true,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Reservations, 2)
}

func TestUpdateStatus_AllowedTransition(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPending)

	err := svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
		UserID: testOwnerID,
		Status: string(domain.StatusPaid),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, repo.byID[1].Status)
}

func TestUpdateStatus_ForbiddenTransition(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusRejected)

	err := svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
		UserID: testOwnerID,
		Status: string(domain.StatusPaid),
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.StatusRejected, repo.byID[1].Status)
}

func TestUpdateStatus_NonOwnerDenied(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPending)

	err := svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
		UserID: testUserID,
		Status: string(domain.StatusPaid),
	})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestUpdateStatus_RetriesOnceOnConflict(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPending)
	repo.conflictOnce = true

	err := svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
		UserID: testOwnerID,
		Status: string(domain.StatusPaid),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.updateCalls)
	assert.Equal(t, domain.StatusPaid, repo.byID[1].Status)
}

func TestUpdateStatus_InvalidStatusString(t *testing.T) {
	svc, repo := newTestService()
	seedReservation(repo, 1, domain.StatusPending)

	err := svc.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
		UserID: testOwnerID,
		Status: "approved",
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
