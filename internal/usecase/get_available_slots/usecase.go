package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	venueClient "github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
)

// UseCase use case для получения слотов корта на день
type UseCase struct {
	reservationRepo ReservationRepository
	venueClient     VenueServiceClient
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	venueClient VenueServiceClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		venueClient:     venueClient,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case получения слотов
// Чтение совещательное: до создания бронирования слот может увести конкурент
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: user=%d, court=%d, date=%s",
		req.UserID, req.CourtID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем корт
	court, err := uc.venueClient.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, venueClient.ErrCourtNotFound) {
			uc.logger.Warn("GetAvailableSlots: court id=%d not found", req.CourtID)
			return nil, ErrCourtNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get court id=%d: %v", req.CourtID, err)
		return nil, fmt.Errorf("%w: failed to get court: %v", ErrInternal, err)
	}

	// Отключенный корт отдает пустой список, а не ошибку
	if !court.Active {
		uc.logger.Info("GetAvailableSlots: court id=%d is inactive", req.CourtID)
		return &Response{
			Date:    req.Date,
			CourtID: req.CourtID,
			VenueID: court.VenueID,
			Slots:   []Slot{},
		}, nil
	}

	// 4. Определяем шаг слота
	slotDuration := court.SlotDurationMinutes
	if slotDuration <= 0 {
		slotDuration = domain.DefaultSlotDurationMinutes
	}

	// 5. Генерируем временные слоты
	timeSlots, err := generateTimeSlots(court, slotDuration, req.Date, now)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to generate time slots: %v", err)
		return nil, fmt.Errorf("%w: failed to generate time slots: %v", ErrInternal, err)
	}

	if len(timeSlots) == 0 {
		return &Response{
			Date:    req.Date,
			CourtID: req.CourtID,
			VenueID: court.VenueID,
			Slots:   []Slot{},
		}, nil
	}

	// 6. Получаем активные бронирования корта на весь рабочий день
	dayStart, err := court.OpenTime.OnDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve day start: %v", ErrInternal, err)
	}
	dayEnd, err := court.CloseTime.OnDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve day end: %v", ErrInternal, err)
	}

	reservations, err := uc.reservationRepo.GetActiveByCourtAndRange(ctx, req.CourtID, dayStart, dayEnd)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get reservations: %v", err)
		return nil, fmt.Errorf("%w: failed to get reservations: %v", ErrInternal, err)
	}

	// 7. Проставляем занятость слотов
	slots, err := markAvailability(timeSlots, slotDuration, court.PricePerHour, req.Date, reservations)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to mark availability: %v", err)
		return nil, fmt.Errorf("%w: failed to mark availability: %v", ErrInternal, err)
	}

	uc.logger.Info("GetAvailableSlots: generated %d slots for court=%d, date=%s",
		len(slots), req.CourtID, req.Date.Format(domain.DateFormat))

	return &Response{
		Date:    req.Date,
		CourtID: req.CourtID,
		VenueID: court.VenueID,
		Slots:   slots,
	}, nil
}
