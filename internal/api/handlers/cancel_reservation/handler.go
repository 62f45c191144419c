package cancel_reservation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/canchapp/PDR-BookingService/internal/api/handlers"
	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	cancelReservation "github.com/canchapp/PDR-BookingService/internal/usecase/cancel_reservation"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgCannotCancel         = "бронирование нельзя отменить в текущем статусе"
	msgStatusConflict       = "статус бронирования изменился, повторите запрос"
	msgInvalidInput         = "некорректные данные отмены"
)

type Handler struct {
	useCase CancelReservationUseCase
	logger  Logger
}

func NewHandler(useCase CancelReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{reservationId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем reservationId из URL
	vars := mux.Vars(r)
	reservationIDStr := vars["reservationId"]

	reservationID, err := strconv.ParseInt(reservationIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/cancel - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	// Получаем userID из контекста (через middleware Auth)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /reservations/{id}/cancel - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	// Тело с причиной отмены опционально
	var req CancelReservationRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := handlers.DecodeJSON(r, &req); err != nil {
			h.logger.Warn("PATCH /reservations/{id}/cancel - Invalid request body: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return
		}
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), &cancelReservation.Request{
		ReservationID: reservationID,
		UserID:        userID,
		Reason:        req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, cancelReservation.ErrReservationNotFound):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Reservation not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, cancelReservation.ErrAccessDenied):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Access denied: reservation_id=%d, user_id=%d",
				reservationID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, cancelReservation.ErrCannotCancel):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Cannot cancel: reservation_id=%d", reservationID)
			// Неотменяемый статус — ошибка запроса, 409 зарезервирован за конфликтами слота/гонками
			handlers.RespondBadRequest(w, msgCannotCancel)

		case errors.Is(err, cancelReservation.ErrStatusConflict):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Status conflict: reservation_id=%d", reservationID)
			handlers.RespondConflict(w, msgStatusConflict)

		case errors.Is(err, cancelReservation.ErrInvalidInput):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Invalid input: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /reservations/{id}/cancel - Failed to cancel reservation: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("PATCH /reservations/{id}/cancel - Reservation cancelled: reservation_id=%d, user_id=%d, deposit_outcome=%s",
		reservationID, userID, result.DepositOutcome)
	handlers.RespondJSON(w, http.StatusOK, response)
}
