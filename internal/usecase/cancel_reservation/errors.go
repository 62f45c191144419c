package cancel_reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("cancel_reservation: reservation not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав на отмену
	ErrAccessDenied = errors.New("cancel_reservation: access denied")

	// ErrCannotCancel возвращается, когда бронирование нельзя отменить в текущем статусе
	ErrCannotCancel = errors.New("cancel_reservation: reservation cannot be cancelled")

	// ErrStatusConflict возвращается, когда статус изменился конкурентно во время отмены
	ErrStatusConflict = errors.New("cancel_reservation: status changed concurrently")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("cancel_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_reservation: internal error")
)
