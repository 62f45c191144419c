package create_reservation

import (
	"errors"
	"net/http"

	"github.com/canchapp/PDR-BookingService/internal/api/handlers"
	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	createReservation "github.com/canchapp/PDR-BookingService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidStartTime   = "некорректный формат времени начала, ожидается RFC 3339"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgSlotNotAvailable   = "выбранный временной слот недоступен"
	msgCourtNotFound      = "корт не найден"
	msgCourtInactive      = "корт недоступен для бронирования"
	msgStartTimeInPast    = "время начала уже прошло"
	msgOutsideOpenHours   = "слот выходит за часы работы корта"
	msgNoRedeemableCredit = "нет кредита, доступного к погашению"
	msgCreditConflict     = "кредит уже был использован"
	msgInvalidInput       = "некорректные данные бронирования"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Получаем userID из контекста (через middleware Auth)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом времени)
	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /reservations - Failed to parse start time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStartTime)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		// Обработка ошибок use case
		switch {
		case errors.Is(err, createReservation.ErrSlotNotAvailable):
			h.logger.Warn("POST /reservations - Slot not available: user_id=%d, court_id=%d", userID, req.CourtID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createReservation.ErrCourtNotFound):
			h.logger.Warn("POST /reservations - Court not found: court_id=%d", req.CourtID)
			handlers.RespondNotFound(w, msgCourtNotFound)

		case errors.Is(err, createReservation.ErrCourtInactive):
			h.logger.Warn("POST /reservations - Court inactive: court_id=%d", req.CourtID)
			handlers.RespondBadRequest(w, msgCourtInactive)

		case errors.Is(err, createReservation.ErrStartTimeInPast):
			h.logger.Warn("POST /reservations - Start time in past: user_id=%d, court_id=%d", userID, req.CourtID)
			handlers.RespondBadRequest(w, msgStartTimeInPast)

		case errors.Is(err, createReservation.ErrOutsideOpenHours):
			h.logger.Warn("POST /reservations - Slot outside open hours: user_id=%d, court_id=%d", userID, req.CourtID)
			handlers.RespondBadRequest(w, msgOutsideOpenHours)

		case errors.Is(err, createReservation.ErrNoRedeemableCredit):
			h.logger.Warn("POST /reservations - No redeemable credit: user_id=%d, court_id=%d", userID, req.CourtID)
			handlers.RespondBadRequest(w, msgNoRedeemableCredit)

		case errors.Is(err, createReservation.ErrCreditConflict):
			h.logger.Warn("POST /reservations - Credit consumed concurrently: user_id=%d, court_id=%d", userID, req.CourtID)
			handlers.RespondConflict(w, msgCreditConflict)

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: user_id=%d, court_id=%d, error=%v", userID, req.CourtID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: user_id=%d, court_id=%d, error=%v",
				userID, req.CourtID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("POST /reservations - Reservation created successfully: reservation_id=%d, user_id=%d, court_id=%d",
		result.ID, userID, req.CourtID)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
