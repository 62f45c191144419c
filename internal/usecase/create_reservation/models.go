package create_reservation

import "time"

// Request модель запроса на создание бронирования
type Request struct {
	UserID          int64     // ID пользователя
	CourtID         int64     // ID корта
	StartTime       time.Time // Начало слота
	DurationMinutes int       // Длительность в минутах (0 = длительность слота корта)
	PaymentMethod   string    // Способ оплаты
	ApplyCredit     bool      // Погасить имеющийся кредит предия
	Notes           *string   // Дополнительные заметки (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64     // ID созданного бронирования
	UserID          int64     // ID пользователя
	VenueID         int64     // ID предия
	CourtID         int64     // ID корта
	StartTime       time.Time // Начало слота
	EndTime         time.Time // Конец слота (исключительно)
	DurationMinutes int       // Длительность в минутах
	Status          string    // Статус оплаты

	TotalPrice      float64 // Итоговая цена (после погашения кредита)
	RequiresDeposit bool    // Требуется ли депозит
	DepositAmount   float64 // Размер депозита

	AppliedCreditID *int64  // Погашенный кредит (если был)
	Notes           *string // Заметки

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}
