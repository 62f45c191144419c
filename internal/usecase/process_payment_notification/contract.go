package process_payment_notification

import (
	"context"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/integrations/paygateway"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByExternalPaymentRef(ctx context.Context, ref string) (*domain.Reservation, error)
	SetExternalPaymentRef(ctx context.Context, id int64, ref string) error
	UpdateStatusFrom(ctx context.Context, id int64, from, to domain.PaymentStatus) error
}

// PaymentEventRepository журнал обработанных событий платежей для дедупликации
type PaymentEventRepository interface {
	// Record возвращает true, если пара (платеж, статус) видится впервые
	Record(ctx context.Context, paymentRef, reportedStatus string) (bool, error)
}

// PaymentGatewayClient интерфейс клиента платежного шлюза
type PaymentGatewayClient interface {
	GetPayment(ctx context.Context, paymentID string) (*paygateway.Payment, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
