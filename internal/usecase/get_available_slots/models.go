package get_available_slots

import (
	"time"

	"github.com/canchapp/PDR-BookingService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	UserID  int64     // ID пользователя (для логирования, не влияет на результат)
	CourtID int64     // ID корта
	Date    time.Time // Дата для получения слотов (без времени)
}

// Response модель ответа со списком слотов на день
type Response struct {
	Date    time.Time // Дата, на которую запрашивались слоты
	CourtID int64     // ID корта
	VenueID int64     // ID предия
	Slots   []Slot    // Список слотов
}

// Slot модель временного слота
// У корта одно место: слот либо свободен, либо занят
type Slot struct {
	StartTime       types.TimeString // Время начала слота (например, "10:00")
	DurationMinutes int              // Длительность слота в минутах
	Price           float64          // Цена слота по почасовой ставке корта
	Available       bool             // Свободен ли слот
}
