package create_reservation

import "errors"

var (
	// ErrCourtNotFound возвращается, когда корт не найден
	ErrCourtNotFound = errors.New("create_reservation: court not found")

	// ErrCourtInactive возвращается, когда корт отключен владельцем
	ErrCourtInactive = errors.New("create_reservation: court is inactive")

	// ErrStartTimeInPast возвращается при попытке забронировать слот в прошлом
	ErrStartTimeInPast = errors.New("create_reservation: start time is in the past")

	// ErrOutsideOpenHours возвращается, когда слот выходит за часы работы корта
	ErrOutsideOpenHours = errors.New("create_reservation: slot is outside court open hours")

	// ErrSlotNotAvailable возвращается, когда слот пересекается с активным бронированием
	ErrSlotNotAvailable = errors.New("create_reservation: slot is not available")

	// ErrNoRedeemableCredit возвращается, когда запрошено погашение кредита, а кредита нет
	ErrNoRedeemableCredit = errors.New("create_reservation: no redeemable credit")

	// ErrCreditConflict возвращается, когда кредит погасили конкурентно
	ErrCreditConflict = errors.New("create_reservation: credit was consumed concurrently")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
