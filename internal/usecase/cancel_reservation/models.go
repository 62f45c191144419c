package cancel_reservation

import "time"

// Request модель запроса на отмену бронирования
type Request struct {
	ReservationID int64  // ID бронирования
	UserID        int64  // ID пользователя, выполняющего отмену
	Reason        string // Причина отмены
}

// Response модель ответа на отмену бронирования
type Response struct {
	ReservationID int64  // ID бронирования
	Status        string // Новый статус (cancelled)

	// DepositOutcome исход депозитной политики:
	// no_deposit, credited, forfeited или pending_rebook
	DepositOutcome string

	// CreditAmount сумма выданного кредита (только при credited)
	CreditAmount float64 `json:",omitempty"`
	// CreditExpiresAt срок жизни выданного кредита (только при credited)
	CreditExpiresAt *time.Time `json:",omitempty"`

	// ReviewDueAt момент отложенной переоценки (только при pending_rebook)
	ReviewDueAt *time.Time `json:",omitempty"`
}
