package payment_webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canchapp/PDR-BookingService/internal/api/handlers"
	processNotification "github.com/canchapp/PDR-BookingService/internal/usecase/process_payment_notification"
)

const (
	msgMissingPaymentID   = "отсутствует ID платежа"
	msgGatewayUnavailable = "платежный шлюз недоступен, повторите доставку"
)

type Handler struct {
	useCase ProcessPaymentNotificationUseCase
	logger  Logger
}

func NewHandler(useCase ProcessPaymentNotificationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/webhook
// Endpoint без аутентификации: тело не является источником правды,
// статус перепроверяется прямым запросом к шлюзу внутри use case
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Тело разбираем без DisallowUnknownFields: шлюз шлет много лишних полей,
	// а идентификаторы продублированы в query параметрах
	var body WebhookRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	useCaseReq := ToUseCaseRequest(r, &body)

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, processNotification.ErrInvalidInput):
			h.logger.Warn("POST /payments/webhook - Missing payment ID")
			handlers.RespondBadRequest(w, msgMissingPaymentID)

		case errors.Is(err, processNotification.ErrGatewayUnavailable):
			// 502, чтобы шлюз повторил доставку позже
			h.logger.Error("POST /payments/webhook - Gateway unavailable: payment_id=%s, error=%v",
				useCaseReq.PaymentID, err)
			handlers.RespondError(w, http.StatusBadGateway, msgGatewayUnavailable)

		default:
			h.logger.Error("POST /payments/webhook - Failed to process notification: payment_id=%s, error=%v",
				useCaseReq.PaymentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/webhook - Notification processed: payment_id=%s, result=%s, reservation_id=%d",
		useCaseReq.PaymentID, result.Result, result.ReservationID)
	handlers.RespondJSON(w, http.StatusOK, WebhookResponse{Status: string(result.Result)})
}
