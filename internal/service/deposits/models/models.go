package models

import "github.com/canchapp/PDR-BookingService/internal/domain"

// Outcome финансовый исход отмены бронирования
// Депозит никогда не возвращается деньгами: только удержание или кредит
type Outcome string

const (
	// OutcomeNoDeposit депозит не требовался, оценивать нечего
	OutcomeNoDeposit Outcome = "no_deposit"
	// OutcomeCredited депозит возвращается одноразовым кредитом на 21 день
	OutcomeCredited Outcome = "credited"
	// OutcomeForfeited депозит удерживается
	OutcomeForfeited Outcome = "forfeited"
	// OutcomePendingRebook отмена день-в-день: исход зависит от перебронирования слота,
	// решение отложено до события перебронирования или начала слота
	OutcomePendingRebook Outcome = "pending_rebook"
)

// CancellationEvaluation результат оценки отмены движком депозитной политики
type CancellationEvaluation struct {
	Outcome      Outcome
	CreditAmount float64

	// Credit выданный кредит (только при OutcomeCredited; может быть nil,
	// если у пользователя уже есть непогашенный кредит в этом предии)
	Credit *domain.Credit

	// Review созданная отложенная переоценка (только при OutcomePendingRebook)
	Review *domain.CancellationReview
}
