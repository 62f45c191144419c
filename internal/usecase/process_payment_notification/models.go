package process_payment_notification

import "github.com/canchapp/PDR-BookingService/internal/domain"

// Request модель входящего уведомления платежного шлюза
// Тело вебхука не является источником правды: перед применением статус
// перепроверяется прямым запросом к шлюзу
type Request struct {
	PaymentID string // ID платежа в шлюзе ("data.id" из вебхука)
	Type      string // Тип уведомления; обрабатывается только "payment"
}

// Result итог обработки уведомления
type Result string

const (
	// ResultApplied статус бронирования обновлен
	ResultApplied Result = "applied"
	// ResultIgnored уведомление проигнорировано (нет изменений, неизвестное
	// бронирование или недопустимый переход)
	ResultIgnored Result = "ignored"
	// ResultDuplicate повторная доставка уже обработанного события
	ResultDuplicate Result = "duplicate"
)

// Response модель результата обработки уведомления
type Response struct {
	Result        Result // Итог обработки
	ReservationID int64  // ID бронирования (0, если не найдено)
	Status        string // Статус бронирования после обработки
}

// mapGatewayStatus отображает статус платежа шлюза в статус оплаты бронирования
// Неизвестные статусы консервативно считаются "платеж в обработке"
func mapGatewayStatus(gatewayStatus string) (domain.PaymentStatus, bool) {
	switch gatewayStatus {
	case "approved":
		return domain.StatusPaid, true
	case "pending", "in_process", "authorized":
		return domain.StatusInProcess, true
	case "rejected":
		return domain.StatusRejected, true
	case "cancelled", "expired":
		return domain.StatusCancelled, true
	case "refunded", "charged_back":
		return domain.StatusRefunded, true
	default:
		return domain.StatusInProcess, false
	}
}
