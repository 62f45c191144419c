package get_available_slots

import (
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	getAvailableSlots "github.com/canchapp/PDR-BookingService/internal/usecase/get_available_slots"
)

// SlotResponse HTTP модель временного слота
type SlotResponse struct {
	StartTime       string  `json:"startTime"` // "10:00"
	DurationMinutes int     `json:"durationMinutes"`
	Price           float64 `json:"price"`
	Available       bool    `json:"available"`
}

// AvailableSlotsResponse HTTP модель ответа со слотами на день
type AvailableSlotsResponse struct {
	Date    string         `json:"date"` // "2026-03-10"
	CourtID int64          `json:"courtId"`
	VenueID int64          `json:"venueId"`
	Slots   []SlotResponse `json:"slots"`
}

// ToUseCaseRequest формирует запрос к use case с парсингом даты
func ToUseCaseRequest(userID, courtID int64, dateStr string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		UserID:  userID,
		CourtID: courtID,
		Date:    date,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	out := &AvailableSlotsResponse{
		Date:    resp.Date.Format(domain.DateFormat),
		CourtID: resp.CourtID,
		VenueID: resp.VenueID,
		Slots:   make([]SlotResponse, len(resp.Slots)),
	}

	for i, slot := range resp.Slots {
		out.Slots[i] = SlotResponse{
			StartTime:       slot.StartTime.String(),
			DurationMinutes: slot.DurationMinutes,
			Price:           slot.Price,
			Available:       slot.Available,
		}
	}

	return out
}
