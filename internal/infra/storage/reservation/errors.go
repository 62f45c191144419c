package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrSlotTaken возвращается, когда вставка нарушила exclusion constraint на (court_id, интервал)
	// Это проигрыш гонки за слот: проверка доступности до вставки только совещательная
	ErrSlotTaken = errors.New("reservation.repository: slot already taken")

	// ErrStatusConflict возвращается, когда условное обновление не нашло строку в ожидаемом статусе
	// Означает проигранную гонку или повторную доставку — вызывающий перечитывает и решает сам
	ErrStatusConflict = errors.New("reservation.repository: status conflict")

	// ErrPaymentRefTaken возвращается, когда external_payment_ref уже привязан к другому бронированию
	ErrPaymentRefTaken = errors.New("reservation.repository: external payment ref already taken")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
