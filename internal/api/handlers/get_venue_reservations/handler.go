package get_venue_reservations

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/canchapp/PDR-BookingService/internal/api/handlers"
	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations/models"
)

const (
	msgInvalidVenueID = "некорректный ID предия"
	msgInvalidCourtID = "некорректный ID корта"
	msgInvalidDate    = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingUserID  = "отсутствует ID пользователя"
	msgVenueNotFound  = "предио не найдено"
	msgForbidden      = "доступ запрещен"
	msgInvalidFilter  = "некорректные параметры фильтрации"
)

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

// Handle GET /api/v1/venues/{venueId}/reservations
// Query params: courtId, startDate, endDate, status, includeInactive (все опциональны)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем venueId из URL
	vars := mux.Vars(r)
	venueIDStr := vars["venueId"]

	venueID, err := strconv.ParseInt(venueIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("GET /venues/{venueId}/reservations - Invalid venue ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidVenueID)
		return
	}

	// Получаем userID из контекста (через middleware Auth)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /venues/{venueId}/reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	query := r.URL.Query()

	serviceReq := &models.GetVenueReservationsRequest{
		UserID:  userID,
		VenueID: venueID,
	}

	// Фильтр по корту (опционально)
	if courtIDStr := query.Get("courtId"); courtIDStr != "" {
		courtID, err := strconv.ParseInt(courtIDStr, 10, 64)
		if err != nil {
			h.logger.Warn("GET /venues/{venueId}/reservations - Invalid court ID: %v", err)
			handlers.RespondBadRequest(w, msgInvalidCourtID)
			return
		}
		serviceReq.CourtID = &courtID
	}

	// Фильтр по периоду (опционально)
	if startDateStr := query.Get("startDate"); startDateStr != "" {
		startDate, err := time.Parse(domain.DateFormat, startDateStr)
		if err != nil {
			h.logger.Warn("GET /venues/{venueId}/reservations - Invalid start date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		serviceReq.StartDate = &startDate
	}
	if endDateStr := query.Get("endDate"); endDateStr != "" {
		endDate, err := time.Parse(domain.DateFormat, endDateStr)
		if err != nil {
			h.logger.Warn("GET /venues/{venueId}/reservations - Invalid end date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		serviceReq.EndDate = &endDate
	}

	// Фильтр по статусу (опционально)
	if status := query.Get("status"); status != "" {
		serviceReq.Status = &status
	}

	// Включить отмененные и отклоненные
	serviceReq.IncludeInactive = query.Get("includeInactive") == "true"

	// Получаем бронирования предия (сервис проверит права владельца)
	result, err := h.service.GetVenueReservations(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrVenueNotFound):
			h.logger.Warn("GET /venues/{venueId}/reservations - Venue not found: venue_id=%d", venueID)
			handlers.RespondNotFound(w, msgVenueNotFound)

		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("GET /venues/{venueId}/reservations - Access denied: venue_id=%d, user_id=%d",
				venueID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrInvalidInput):
			h.logger.Warn("GET /venues/{venueId}/reservations - Invalid filter: venue_id=%d, error=%v",
				venueID, err)
			handlers.RespondBadRequest(w, msgInvalidFilter)

		default:
			h.logger.Error("GET /venues/{venueId}/reservations - Failed to get reservations: venue_id=%d, error=%v",
				venueID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /venues/{venueId}/reservations - Reservations retrieved successfully: venue_id=%d, user_id=%d, count=%d",
		venueID, userID, len(result.Reservations))
	handlers.RespondJSON(w, http.StatusOK, result.Reservations)
}
