package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/canchapp/PDR-BookingService/internal/api/handlers"
	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	getAvailableSlots "github.com/canchapp/PDR-BookingService/internal/usecase/get_available_slots"
)

const (
	msgInvalidCourtID = "некорректный ID корта"
	msgMissingDate    = "дата обязательна"
	msgInvalidDate    = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgCourtNotFound  = "корт не найден"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/courts/{courtId}/available-slots
// Query params: date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	// Извлекаем courtId из URL
	courtIDStr := vars["courtId"]
	courtID, err := strconv.ParseInt(courtIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("GET /courts/{courtId}/available-slots - Invalid court ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCourtID)
		return
	}

	// Извлекаем date из query параметров
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /courts/{courtId}/available-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	// Endpoint публичный; userID используется только для логирования
	userID, _ := middleware.GetUserID(r.Context())

	// Формируем запрос к use case (с парсингом даты)
	useCaseReq, err := ToUseCaseRequest(userID, courtID, dateStr)
	if err != nil {
		h.logger.Warn("GET /courts/{courtId}/available-slots - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrCourtNotFound):
			h.logger.Warn("GET /courts/{courtId}/available-slots - Court not found: court_id=%d", courtID)
			handlers.RespondNotFound(w, msgCourtNotFound)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate), errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /courts/{courtId}/available-slots - Invalid input: court_id=%d, error=%v", courtID, err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		default:
			h.logger.Error("GET /courts/{courtId}/available-slots - Failed to get slots: court_id=%d, error=%v",
				courtID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("GET /courts/{courtId}/available-slots - Slots retrieved successfully: court_id=%d, date=%s, slots_count=%d",
		courtID, dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, response)
}
