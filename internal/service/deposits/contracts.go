package deposits

import (
	"context"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
)

// CreditRepository интерфейс репозитория кредитов
type CreditRepository interface {
	Create(ctx context.Context, c *domain.Credit) (*domain.Credit, error)
	GetByConsumedReservation(ctx context.Context, reservationID int64) (*domain.Credit, error)
}

// ReviewRepository интерфейс репозитория отложенных переоценок
type ReviewRepository interface {
	Create(ctx context.Context, rev *domain.CancellationReview) (*domain.CancellationReview, error)
	GetByID(ctx context.Context, id int64) (*domain.CancellationReview, error)
	GetOpenBySlot(ctx context.Context, courtID int64, start, end time.Time) ([]*domain.CancellationReview, error)
	GetDue(ctx context.Context, now time.Time, limit uint64) ([]*domain.CancellationReview, error)
	Resolve(ctx context.Context, id int64, outcome domain.ReviewOutcome, now time.Time) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
