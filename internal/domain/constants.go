package domain

// Default configuration values
const (
	DefaultSlotDurationMinutes  = 60
	MinDurationMinutes          = 30
	MaxDurationMinutes          = 240
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
)

// Deposit policy constants
const (
	// FreeCancellationNoticeHours за сколько часов до слота отмена дает кредит безусловно
	FreeCancellationNoticeHours = 24
	// CreditTTLDays срок жизни выданного кредита в днях
	CreditTTLDays = 21
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// InactiveStatuses статусы, при которых бронирование не занимает слот
// Используется при проверке доступности и в фильтрах
var InactiveStatuses = []PaymentStatus{
	StatusCancelled,
	StatusRejected,
}

// ActiveStatuses статусы, при которых бронирование занимает слот
var ActiveStatuses = []PaymentStatus{
	StatusPending,
	StatusInProcess,
	StatusPaid,
	StatusRefunded,
}
