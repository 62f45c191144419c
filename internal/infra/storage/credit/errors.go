package credit

import "errors"

var (
	// ErrCreditNotFound возвращается, когда кредит не найден
	ErrCreditNotFound = errors.New("credit.repository: credit not found")

	// ErrActiveCreditExists возвращается при попытке выдать второй непогашенный кредит
	// для той же пары (пользователь, предио) — нарушение частичного уникального индекса
	ErrActiveCreditExists = errors.New("credit.repository: active credit already exists for user and venue")

	// ErrCreditNotRedeemable возвращается, когда условное погашение не прошло:
	// кредит уже погашен или истек
	ErrCreditNotRedeemable = errors.New("credit.repository: credit is not redeemable")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("credit.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("credit.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("credit.repository: failed to scan row")
)
