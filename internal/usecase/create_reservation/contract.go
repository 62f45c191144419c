package create_reservation

import (
	"context"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	GetActiveByCourtAndRange(ctx context.Context, courtID int64, start, end time.Time) ([]*domain.Reservation, error)
}

// CreditRepository интерфейс репозитория кредитов
type CreditRepository interface {
	GetRedeemableByUserAndVenue(ctx context.Context, userID, venueID int64, now time.Time) (*domain.Credit, error)
	Consume(ctx context.Context, id int64, reservationID int64, now time.Time) error
}

// DepositResolver закрывает отложенные переоценки отмен при перебронировании слота
type DepositResolver interface {
	ResolveByRebooking(ctx context.Context, courtID int64, start, end time.Time, now time.Time) error
}

// VenueServiceClient интерфейс клиента для VenueService
type VenueServiceClient interface {
	GetCourt(ctx context.Context, courtID int64) (*venueservice.Court, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
