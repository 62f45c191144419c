package create_reservation

import (
	"fmt"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	"github.com/canchapp/PDR-BookingService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.CourtID <= 0 {
		return fmt.Errorf("%w: courtID must be positive", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	// Длительность 0 означает "длительность слота корта", иначе проверяем границы
	if req.DurationMinutes != 0 {
		if req.DurationMinutes < domain.MinDurationMinutes || req.DurationMinutes > domain.MaxDurationMinutes {
			return fmt.Errorf("%w: durationMinutes must be between %d and %d",
				ErrInvalidInput, domain.MinDurationMinutes, domain.MaxDurationMinutes)
		}
	}

	if !domain.ValidPaymentMethod(domain.PaymentMethod(req.PaymentMethod)) {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, req.PaymentMethod)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes are too long", ErrInvalidInput)
	}

	return nil
}

// validateOpenHours проверяет, что слот целиком попадает в часы работы корта
func validateOpenHours(court *venueservice.Court, start time.Time, durationMinutes int) error {
	slotStart := types.NewTimeString(start)
	slotEnd, err := slotStart.AddMinutes(durationMinutes)
	if err != nil {
		return fmt.Errorf("%w: failed to calculate slot end: %v", ErrInternal, err)
	}

	if slotStart.IsBefore(court.OpenTime) || slotEnd.IsAfter(court.CloseTime) {
		return ErrOutsideOpenHours
	}

	return nil
}

// resolveDuration возвращает длительность бронирования с учетом дефолта корта
func resolveDuration(req *Request, court *venueservice.Court) int {
	if req.DurationMinutes > 0 {
		return req.DurationMinutes
	}
	if court.SlotDurationMinutes > 0 {
		return court.SlotDurationMinutes
	}
	return domain.DefaultSlotDurationMinutes
}

// calculatePrice считает цену бронирования по почасовой ставке корта
func calculatePrice(pricePerHour float64, durationMinutes int) float64 {
	return pricePerHour * float64(durationMinutes) / 60.0
}
