package get_available_slots

import (
	"context"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetActiveByCourtAndRange(ctx context.Context, courtID int64, start, end time.Time) ([]*domain.Reservation, error)
}

// VenueServiceClient интерфейс клиента для VenueService
type VenueServiceClient interface {
	GetCourt(ctx context.Context, courtID int64) (*venueservice.Court, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
