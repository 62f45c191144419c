package update_reservation_status

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/canchapp/PDR-BookingService/internal/api/handlers"
	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations/models"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgVenueNotFound        = "предио не найдено"
	msgForbidden            = "доступ запрещен"
	msgInvalidStatus        = "некорректный статус оплаты"
	msgInvalidTransition    = "недопустимый переход статуса оплаты"
	msgStatusConflict       = "статус бронирования изменился, повторите запрос"
)

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{reservationId}/status
// Ручное управление статусом для владельцев предия (наличные, перевод)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем reservationId из URL
	vars := mux.Vars(r)
	reservationIDStr := vars["reservationId"]

	reservationID, err := strconv.ParseInt(reservationIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	// Получаем userID из контекста (через middleware Auth)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /reservations/{id}/status - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /reservations/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Обновляем статус (сервис проверит права владельца и таблицу переходов)
	err = h.service.UpdateStatus(r.Context(), reservationID, &models.UpdateStatusRequest{
		UserID: userID,
		Status: req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("PATCH /reservations/{id}/status - Reservation not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrVenueNotFound):
			h.logger.Warn("PATCH /reservations/{id}/status - Venue not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgVenueNotFound)

		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("PATCH /reservations/{id}/status - Access denied: reservation_id=%d, user_id=%d",
				reservationID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrInvalidStatus):
			h.logger.Warn("PATCH /reservations/{id}/status - Invalid status: reservation_id=%d, status=%s",
				reservationID, req.Status)
			handlers.RespondBadRequest(w, msgInvalidStatus)

		case errors.Is(err, reservations.ErrInvalidTransition):
			h.logger.Warn("PATCH /reservations/{id}/status - Invalid transition: reservation_id=%d, status=%s",
				reservationID, req.Status)
			// Недопустимый переход — ошибка запроса, 409 зарезервирован за конфликтами слота/гонками
			handlers.RespondBadRequest(w, msgInvalidTransition)

		case errors.Is(err, reservations.ErrStatusConflict):
			h.logger.Warn("PATCH /reservations/{id}/status - Status conflict: reservation_id=%d", reservationID)
			handlers.RespondConflict(w, msgStatusConflict)

		default:
			h.logger.Error("PATCH /reservations/{id}/status - Failed to update status: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id}/status - Status updated successfully: reservation_id=%d, user_id=%d, status=%s",
		reservationID, userID, req.Status)
	w.WriteHeader(http.StatusNoContent)
}
