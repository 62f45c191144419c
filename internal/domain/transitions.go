package domain

import "errors"

// ErrInvalidTransition возвращается при попытке недопустимого перехода статуса
// Переход отклоняется, а не игнорируется: один и тот же внешний сигнал
// (например, продублированный вебхук) может прийти, когда бронирование уже ушло дальше
var ErrInvalidTransition = errors.New("domain: invalid payment status transition")

// allowedTransitions таблица допустимых переходов статуса оплаты
//
//	PENDING    → IN_PROCESS | PAID | REJECTED | CANCELLED
//	IN_PROCESS → PAID | REJECTED
//	PAID       → CANCELLED | REFUNDED
//
// Остальные статусы терминальные
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	StatusPending:   {StatusInProcess, StatusPaid, StatusRejected, StatusCancelled},
	StatusInProcess: {StatusPaid, StatusRejected},
	StatusPaid:      {StatusCancelled, StatusRefunded},
}

// CanTransition reports whether the transition from one status to another is allowed
func CanTransition(from, to PaymentStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition for a transition outside the table
func ValidateTransition(from, to PaymentStatus) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
