package get_available_slots

import (
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	"github.com/canchapp/PDR-BookingService/pkg/types"
)

// generateTimeSlots генерирует список всех временных слотов корта на день
// Слоты идут от открытия до закрытия с фиксированным шагом slotDuration
// Для сегодняшней даты уже начавшиеся слоты отфильтровываются
func generateTimeSlots(
	court *venueservice.Court,
	slotDuration int,
	requestDate time.Time,
	now time.Time,
) ([]types.TimeString, error) {
	// Прошедшие даты слотов не имеют
	if isDateInPast(requestDate, now) {
		return []types.TimeString{}, nil
	}

	// Шаг 1: Генерируем ВСЕ слоты от открытия до закрытия с фиксированным шагом
	allSlots := make([]types.TimeString, 0)
	currentSlot := court.OpenTime

	for currentSlot.IsBefore(court.CloseTime) {
		// Проверяем, что слот не выходит за время закрытия
		slotEnd, err := currentSlot.AddMinutes(slotDuration)
		if err != nil {
			return nil, err
		}
		if slotEnd.IsAfter(court.CloseTime) {
			break
		}

		allSlots = append(allSlots, currentSlot)
		currentSlot, err = currentSlot.AddMinutes(slotDuration)
		if err != nil {
			return nil, err
		}
	}

	// Шаг 2: Если дата НЕ сегодня - возвращаем все слоты
	if !isSameDay(requestDate, now) {
		return allSlots, nil
	}

	// Шаг 3: Для сегодняшней даты оставляем только еще не начавшиеся слоты
	currentTime := types.NewTimeString(now)
	availableSlots := make([]types.TimeString, 0)
	for _, slot := range allSlots {
		if slot.IsAfter(currentTime) {
			availableSlots = append(availableSlots, slot)
		}
	}

	return availableSlots, nil
}

// markAvailability проставляет занятость слотов по активным бронированиям дня
// У корта одно место: любое пересечение с активным бронированием делает слот занятым.
// Граничные случаи (конец бронирования == начало слота) пересечением не считаются
func markAvailability(
	slots []types.TimeString,
	slotDuration int,
	pricePerHour float64,
	date time.Time,
	reservations []*domain.Reservation,
) ([]Slot, error) {
	result := make([]Slot, len(slots))
	price := pricePerHour * float64(slotDuration) / 60.0

	for i, slotStart := range slots {
		start, err := slotStart.OnDate(date)
		if err != nil {
			return nil, err
		}
		end := start.Add(time.Duration(slotDuration) * time.Minute)

		available := true
		for _, res := range reservations {
			if !res.IsActive() {
				continue
			}
			if res.Overlaps(start, end) {
				available = false
				break
			}
		}

		result[i] = Slot{
			StartTime:       slotStart,
			DurationMinutes: slotDuration,
			Price:           price,
			Available:       available,
		}
	}

	return result, nil
}
