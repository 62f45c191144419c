package process_payment_notification

import "errors"

var (
	// ErrGatewayUnavailable возвращается, когда шлюз не подтвердил платеж
	// (сеть, 5xx, проблемы авторизации). Уведомление нужно доставить повторно
	ErrGatewayUnavailable = errors.New("process_payment_notification: payment gateway unavailable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("process_payment_notification: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("process_payment_notification: internal error")
)
