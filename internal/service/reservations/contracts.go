package reservations

import (
	"context"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByUserID(ctx context.Context, userID int64, status *domain.PaymentStatus) ([]*domain.Reservation, error)
	GetByVenueWithFilter(ctx context.Context, filter domain.VenueReservationsFilter) ([]*domain.Reservation, error)
	UpdateStatusFrom(ctx context.Context, id int64, from, to domain.PaymentStatus) error
}

// VenueServiceClient интерфейс клиента для VenueService
type VenueServiceClient interface {
	GetVenue(ctx context.Context, venueID int64) (*venueservice.Venue, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
