package create_reservation

import (
	"time"

	createReservation "github.com/canchapp/PDR-BookingService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	CourtID         int64   `json:"courtId"`
	StartTime       string  `json:"startTime"` // RFC 3339, например "2026-03-10T18:00:00Z"
	DurationMinutes int     `json:"durationMinutes,omitempty"`
	PaymentMethod   string  `json:"paymentMethod"`
	ApplyCredit     bool    `json:"applyCredit,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"userId"`
	VenueID         int64   `json:"venueId"`
	CourtID         int64   `json:"courtId"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Status          string  `json:"status"`
	TotalPrice      float64 `json:"totalPrice"`
	RequiresDeposit bool    `json:"requiresDeposit"`
	DepositAmount   float64 `json:"depositAmount"`
	AppliedCreditID *int64  `json:"appliedCreditId,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(userID int64) (*createReservation.Request, error) {
	// Парсим время начала слота
	startTime, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return nil, err
	}

	return &createReservation.Request{
		UserID:          userID,
		CourtID:         r.CourtID,
		StartTime:       startTime,
		DurationMinutes: r.DurationMinutes,
		PaymentMethod:   r.PaymentMethod,
		ApplyCredit:     r.ApplyCredit,
		Notes:           r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	return &ReservationResponse{
		ID:              resp.ID,
		UserID:          resp.UserID,
		VenueID:         resp.VenueID,
		CourtID:         resp.CourtID,
		StartTime:       resp.StartTime.Format(time.RFC3339),
		EndTime:         resp.EndTime.Format(time.RFC3339),
		DurationMinutes: resp.DurationMinutes,
		Status:          resp.Status,
		TotalPrice:      resp.TotalPrice,
		RequiresDeposit: resp.RequiresDeposit,
		DepositAmount:   resp.DepositAmount,
		AppliedCreditID: resp.AppliedCreditID,
		Notes:           resp.Notes,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
	}
}
