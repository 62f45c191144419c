package payment_webhook

import (
	"net/http"

	processNotification "github.com/canchapp/PDR-BookingService/internal/usecase/process_payment_notification"
)

// WebhookRequest тело уведомления платежного шлюза
// Шлюз дублирует идентификаторы в query параметрах (data.id, type),
// тело может отсутствовать
type WebhookRequest struct {
	Type string      `json:"type,omitempty"`
	Data WebhookData `json:"data,omitempty"`
}

// WebhookData данные уведомления
type WebhookData struct {
	ID string `json:"id,omitempty"`
}

// WebhookResponse ответ шлюзу; тело информационное, шлюз смотрит на статус-код
type WebhookResponse struct {
	Status string `json:"status"`
}

// ToUseCaseRequest собирает запрос к use case из query параметров и тела
// Query параметры имеют приоритет: шлюз присылает их всегда
func ToUseCaseRequest(r *http.Request, body *WebhookRequest) *processNotification.Request {
	query := r.URL.Query()

	paymentID := query.Get("data.id")
	if paymentID == "" {
		paymentID = body.Data.ID
	}

	notificationType := query.Get("type")
	if notificationType == "" {
		notificationType = query.Get("topic")
	}
	if notificationType == "" {
		notificationType = body.Type
	}

	return &processNotification.Request{
		PaymentID: paymentID,
		Type:      notificationType,
	}
}
