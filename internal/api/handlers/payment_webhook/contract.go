package payment_webhook

import (
	"context"

	processNotification "github.com/canchapp/PDR-BookingService/internal/usecase/process_payment_notification"
)

type ProcessPaymentNotificationUseCase interface {
	Execute(ctx context.Context, req *processNotification.Request) (*processNotification.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
