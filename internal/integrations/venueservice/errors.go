package venueservice

import "errors"

var (
	// ErrCourtNotFound возвращается, когда корт не найден
	ErrCourtNotFound = errors.New("venueservice client: court not found")

	// ErrVenueNotFound возвращается, когда предио не найдено
	ErrVenueNotFound = errors.New("venueservice client: venue not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("venueservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("venueservice client: invalid response")
)
