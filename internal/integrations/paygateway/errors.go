package paygateway

import "errors"

var (
	// ErrPaymentNotFound возвращается, когда платеж не найден в шлюзе
	ErrPaymentNotFound = errors.New("paygateway client: payment not found")

	// ErrUnauthorized возвращается при проблемах с токеном доступа
	ErrUnauthorized = errors.New("paygateway client: unauthorized")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paygateway client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("paygateway client: invalid response")
)
