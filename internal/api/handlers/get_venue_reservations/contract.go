package get_venue_reservations

import (
	"context"

	"github.com/canchapp/PDR-BookingService/internal/service/reservations/models"
)

type ReservationService interface {
	GetVenueReservations(ctx context.Context, req *models.GetVenueReservationsRequest) (*models.ReservationListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
