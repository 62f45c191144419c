package get_available_slots

import "errors"

var (
	// ErrCourtNotFound возвращается, когда корт не найден
	ErrCourtNotFound = errors.New("get_available_slots: court not found")

	// ErrCourtInactive возвращается, когда корт отключен владельцем
	ErrCourtInactive = errors.New("get_available_slots: court is inactive")

	// ErrInvalidDate возвращается при некорректной дате
	ErrInvalidDate = errors.New("get_available_slots: invalid date")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
