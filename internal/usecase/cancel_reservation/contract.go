package cancel_reservation

import (
	"context"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	"github.com/canchapp/PDR-BookingService/internal/service/deposits/models"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Cancel(ctx context.Context, id int64, from domain.PaymentStatus, reason string) error
}

// DepositEvaluator оценивает финансовый исход отмены оплаченного бронирования
type DepositEvaluator interface {
	EvaluateCancellation(ctx context.Context, res *domain.Reservation, now time.Time) (*models.CancellationEvaluation, error)
}

// VenueServiceClient интерфейс клиента для VenueService
type VenueServiceClient interface {
	GetVenue(ctx context.Context, venueID int64) (*venueservice.Venue, error)
}

// ReviewScheduler планирует fallback-проверку отложенной переоценки на начало слота
// Вызывается после коммита транзакции; ошибка планирования не фатальна —
// воркер доберет просроченные переоценки периодическим опросом
type ReviewScheduler interface {
	ScheduleReviewDue(ctx context.Context, reviewID, reservationID int64, dueAt time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
