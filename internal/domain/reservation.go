package domain

import "time"

// PaymentStatus represents the payment lifecycle state of a reservation
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusInProcess PaymentStatus = "in_process"
	StatusPaid      PaymentStatus = "paid"
	StatusRejected  PaymentStatus = "rejected"
	StatusCancelled PaymentStatus = "cancelled"
	StatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod represents how a reservation is paid for
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "cash"
	MethodCard        PaymentMethod = "card"
	MethodTransfer    PaymentMethod = "transfer"
	MethodMercadoPago PaymentMethod = "mercadopago"
	MethodOther       PaymentMethod = "other"
)

// Reservation represents a court reservation in the system
type Reservation struct {
	ID      int64
	UserID  int64
	VenueID int64 // ID предия (денормализовано с корта — нужно для кредитов)
	CourtID int64

	StartTime       time.Time
	DurationMinutes int

	TotalPrice      float64
	RequiresDeposit bool
	DepositAmount   float64

	Status             PaymentStatus
	PaymentMethod      PaymentMethod
	ExternalPaymentRef *string // ссылка на платеж в шлюзе, уникальна, после установки неизменна
	AppliedCreditID    *int64  // кредит, погашенный при создании этого бронирования

	Notes              *string
	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndTime returns the exclusive end of the reserved interval
func (r *Reservation) EndTime() time.Time {
	return r.StartTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// IsActive returns true if the reservation still occupies its slot
func (r *Reservation) IsActive() bool {
	return r.Status != StatusCancelled && r.Status != StatusRejected
}

// CanBeCancelled returns true if the reservation can be cancelled
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == StatusPending || r.Status == StatusPaid
}

// IsPaid returns true if the reservation has been paid for
func (r *Reservation) IsPaid() bool {
	return r.Status == StatusPaid
}

// Overlaps reports whether the reservation intersects the half-open interval [start, end)
// Граничные случаи (конец одного == начало другого) пересечением не считаются
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime().After(start)
}

// ValidPaymentMethod returns true for a known payment method
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodMercadoPago, MethodOther:
		return true
	default:
		return false
	}
}

// ValidPaymentStatus returns true for a known payment status
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case StatusPending, StatusInProcess, StatusPaid, StatusRejected, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// VenueReservationsFilter фильтр для получения бронирований предия
type VenueReservationsFilter struct {
	VenueID         int64          // Обязательный параметр
	CourtID         *int64         // Фильтр по корту (опционально)
	StartDate       *time.Time     // Начало периода (опционально)
	EndDate         *time.Time     // Конец периода (опционально)
	Status          *PaymentStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли отмененные и отклоненные бронирования
}
