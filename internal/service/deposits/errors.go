package deposits

import "errors"

var (
	// ErrReviewNotFound возвращается, когда переоценка не найдена
	ErrReviewNotFound = errors.New("deposits: review not found")

	// ErrInternal возвращается при внутренних ошибках движка депозитной политики
	ErrInternal = errors.New("deposits: internal error")
)
