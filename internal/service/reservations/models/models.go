package models

import (
	"errors"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid payment status")
)

// Request модели

// UpdateStatusRequest запрос на обновление статуса платежа бронирования
type UpdateStatusRequest struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

// GetUserReservationsRequest запрос на получение бронирований пользователя
type GetUserReservationsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// GetVenueReservationsRequest запрос на получение бронирований предия
type GetVenueReservationsRequest struct {
	UserID          int64      `json:"userId"`
	VenueID         int64      `json:"venueId"`
	CourtID         *int64     `json:"courtId,omitempty"`         // Фильтр по корту (опционально)
	StartDate       *time.Time `json:"startDate,omitempty"`       // Начало периода (опционально)
	EndDate         *time.Time `json:"endDate,omitempty"`         // Конец периода (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить отмененные и отклоненные
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetVenueReservationsRequest) ToDomainFilter() (domain.VenueReservationsFilter, error) {
	filter := domain.VenueReservationsFilter{
		VenueID:         r.VenueID,
		CourtID:         r.CourtID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := ToDomainPaymentStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"userId"`
	VenueID         int64   `json:"venueId"`
	CourtID         int64   `json:"courtId"`
	StartTime       string  `json:"startTime"` // ISO 8601
	EndTime         string  `json:"endTime"`   // ISO 8601
	DurationMinutes int     `json:"durationMinutes"`
	TotalPrice      float64 `json:"totalPrice"`
	RequiresDeposit bool    `json:"requiresDeposit"`
	DepositAmount   float64 `json:"depositAmount"`
	Status          string  `json:"status"`
	PaymentMethod   string  `json:"paymentMethod"`

	ExternalPaymentRef *string `json:"externalPaymentRef,omitempty"`
	AppliedCreditID    *int64  `json:"appliedCreditId,omitempty"`
	Notes              *string `json:"notes,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReservationListResponse ответ со списком бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// Методы конвертации

// FromDomainReservation конвертирует domain модель в DTO
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	if r == nil {
		return nil
	}

	resp := &ReservationResponse{
		ID:                 r.ID,
		UserID:             r.UserID,
		VenueID:            r.VenueID,
		CourtID:            r.CourtID,
		StartTime:          r.StartTime.Format(time.RFC3339),
		EndTime:            r.EndTime().Format(time.RFC3339),
		DurationMinutes:    r.DurationMinutes,
		TotalPrice:         r.TotalPrice,
		RequiresDeposit:    r.RequiresDeposit,
		DepositAmount:      r.DepositAmount,
		Status:             string(r.Status),
		PaymentMethod:      string(r.PaymentMethod),
		ExternalPaymentRef: r.ExternalPaymentRef,
		AppliedCreditID:    r.AppliedCreditID,
		Notes:              r.Notes,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if r.CancelledAt != nil {
		cancelledStr := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainReservationList конвертирует список domain моделей в DTO
func FromDomainReservationList(reservations []*domain.Reservation) *ReservationListResponse {
	if reservations == nil {
		return &ReservationListResponse{
			Reservations: []ReservationResponse{},
		}
	}

	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, len(reservations)),
	}

	for i, res := range reservations {
		if resResp := FromDomainReservation(res); resResp != nil {
			resp.Reservations[i] = *resResp
		}
	}

	return resp
}

// ToDomainPaymentStatus конвертирует строку в domain.PaymentStatus с валидацией
func ToDomainPaymentStatus(status string) (domain.PaymentStatus, error) {
	s := domain.PaymentStatus(status)
	if !domain.ValidPaymentStatus(s) {
		return "", ErrInvalidStatus
	}
	return s, nil
}
