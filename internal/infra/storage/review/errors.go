package review

import "errors"

var (
	// ErrReviewNotFound возвращается, когда переоценка не найдена
	ErrReviewNotFound = errors.New("review.repository: review not found")

	// ErrAlreadyResolved возвращается, когда условное разрешение не прошло:
	// переоценка уже закрыта другим триггером (событие или дедлайн)
	ErrAlreadyResolved = errors.New("review.repository: review already resolved")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("review.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("review.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("review.repository: failed to scan row")
)
