package reservations

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrVenueNotFound возвращается, когда предио не найдено
	ErrVenueNotFound = errors.New("venue not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidStatus возвращается при попытке установить недопустимый статус
	ErrInvalidStatus = errors.New("invalid payment status")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса платежа
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStatusConflict возвращается, когда статус изменился конкурентно и повтор не помог
	ErrStatusConflict = errors.New("status changed concurrently")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
