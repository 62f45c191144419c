package deposits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	creditRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/credit"
	reviewRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/review"
	"github.com/canchapp/PDR-BookingService/internal/service/deposits/models"
)

// Service движок депозитной политики
//
// Правила (из условий обслуживания продукта):
//  1. Без депозита оценивать нечего.
//  2. Бронирование, оплаченное кредитом, при отмене всегда дает удержание
//     ("отменить можно только один раз").
//  3. Отмена за 24 часа и более до слота — депозит возвращается кредитом на 21 день.
//  4. Отмена день-в-день — исход зависит от того, перебронируют ли слот до его начала;
//     решение откладывается (событие перебронирования + fallback-проверка в начале слота).
//  5. Депозит никогда не возвращается деньгами.
//
// Собственного состояния у движка нет: кредиты и переоценки пишутся через репозитории
// в транзакции вызывающей стороны (та же транзакция, что и смена статуса бронирования)
type Service struct {
	credits CreditRepository
	reviews ReviewRepository
	logger  Logger
}

// NewService создает новый экземпляр движка депозитной политики
func NewService(credits CreditRepository, reviews ReviewRepository, logger Logger) *Service {
	return &Service{
		credits: credits,
		reviews: reviews,
		logger:  logger,
	}
}

// EvaluateCancellation оценивает финансовый исход отмены оплаченного бронирования
// Вызывается до применения перехода в CANCELLED, в той же транзакции
func (s *Service) EvaluateCancellation(ctx context.Context, res *domain.Reservation, now time.Time) (*models.CancellationEvaluation, error) {
	// Правило 1: депозита нет — оценивать нечего
	if !res.RequiresDeposit || res.DepositAmount <= 0 {
		return &models.CancellationEvaluation{Outcome: models.OutcomeNoDeposit}, nil
	}

	// Правило 2: бронирование создано по кредиту — всегда удержание, независимо от сроков
	consumed, err := s.credits.GetByConsumedReservation(ctx, res.ID)
	if err != nil && !errors.Is(err, creditRepo.ErrCreditNotFound) {
		s.logger.Error("EvaluateCancellation: failed to check consumed credit for reservation id=%d: %v", res.ID, err)
		return nil, fmt.Errorf("%w: EvaluateCancellation - check consumed credit: %v", ErrInternal, err)
	}
	if consumed != nil {
		s.logger.Info("EvaluateCancellation: reservation id=%d was paid with credit id=%d, deposit forfeited",
			res.ID, consumed.ID)
		return &models.CancellationEvaluation{Outcome: models.OutcomeForfeited}, nil
	}

	hoursUntilSlot := res.StartTime.Sub(now).Hours()

	// Правило 3: отмена заблаговременно — кредит безусловно
	if hoursUntilSlot >= domain.FreeCancellationNoticeHours {
		credit, err := s.issueCredit(ctx, res, now)
		if err != nil {
			return nil, err
		}
		return &models.CancellationEvaluation{
			Outcome:      models.OutcomeCredited,
			CreditAmount: res.DepositAmount,
			Credit:       credit,
		}, nil
	}

	// Правило 4: отмена день-в-день — решение откладывается до перебронирования или начала слота
	rev := &domain.CancellationReview{
		ReservationID: res.ID,
		UserID:        res.UserID,
		VenueID:       res.VenueID,
		CourtID:       res.CourtID,
		DepositAmount: res.DepositAmount,
		SlotStart:     res.StartTime,
		SlotEnd:       res.EndTime(),
		DueAt:         res.StartTime,
	}

	created, err := s.reviews.Create(ctx, rev)
	if err != nil {
		s.logger.Error("EvaluateCancellation: failed to create review for reservation id=%d: %v", res.ID, err)
		return nil, fmt.Errorf("%w: EvaluateCancellation - create review: %v", ErrInternal, err)
	}

	s.logger.Info("EvaluateCancellation: same-day cancellation of reservation id=%d, review id=%d scheduled until %s",
		res.ID, created.ID, created.DueAt.Format(time.RFC3339))

	return &models.CancellationEvaluation{
		Outcome: models.OutcomePendingRebook,
		Review:  created,
	}, nil
}

// ResolveByRebooking закрывает открытые переоценки корта, чей слот пересекает [start, end)
// Событийный триггер: вызывается при создании нового бронирования, в его транзакции.
// Успевшие до дедлайна переоценки дают кредит, опоздавшие — удержание
func (s *Service) ResolveByRebooking(ctx context.Context, courtID int64, start, end time.Time, now time.Time) error {
	reviews, err := s.reviews.GetOpenBySlot(ctx, courtID, start, end)
	if err != nil {
		s.logger.Error("ResolveByRebooking: failed to get open reviews for court id=%d: %v", courtID, err)
		return fmt.Errorf("%w: ResolveByRebooking - get open reviews: %v", ErrInternal, err)
	}

	for _, rev := range reviews {
		outcome := domain.ReviewOutcomeRebooked
		if rev.IsDue(now) {
			// Перебронирование после начала слота кредита уже не дает
			outcome = domain.ReviewOutcomeExpired
		}

		if err := s.reviews.Resolve(ctx, rev.ID, outcome, now); err != nil {
			if errors.Is(err, reviewRepo.ErrAlreadyResolved) {
				// Проиграли гонку с другим триггером — исход уже зафиксирован
				continue
			}
			s.logger.Error("ResolveByRebooking: failed to resolve review id=%d: %v", rev.ID, err)
			return fmt.Errorf("%w: ResolveByRebooking - resolve review: %v", ErrInternal, err)
		}

		if outcome == domain.ReviewOutcomeRebooked {
			res := &domain.Reservation{
				ID:            rev.ReservationID,
				UserID:        rev.UserID,
				VenueID:       rev.VenueID,
				CourtID:       rev.CourtID,
				DepositAmount: rev.DepositAmount,
			}
			if _, err := s.issueCredit(ctx, res, now); err != nil {
				return err
			}
			s.logger.Info("ResolveByRebooking: review id=%d resolved as rebooked, credit issued for user=%d",
				rev.ID, rev.UserID)
		} else {
			s.logger.Info("ResolveByRebooking: review id=%d past deadline, deposit forfeited", rev.ID)
		}
	}

	return nil
}

// ResolveByDeadline закрывает одну переоценку по наступлению дедлайна (триггер по времени)
// Идемпотентна: уже закрытая переоценка не трогается
func (s *Service) ResolveByDeadline(ctx context.Context, reviewID int64, now time.Time) error {
	rev, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, reviewRepo.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		s.logger.Error("ResolveByDeadline: failed to get review id=%d: %v", reviewID, err)
		return fmt.Errorf("%w: ResolveByDeadline - get review: %v", ErrInternal, err)
	}

	if rev.Resolved {
		s.logger.Info("ResolveByDeadline: review id=%d already resolved, skipping", reviewID)
		return nil
	}

	if !rev.IsDue(now) {
		// Сообщение пришло раньше дедлайна — fallback-опрос доберет позже
		s.logger.Warn("ResolveByDeadline: review id=%d is not due yet (due_at=%s), skipping",
			reviewID, rev.DueAt.Format(time.RFC3339))
		return nil
	}

	if err := s.reviews.Resolve(ctx, rev.ID, domain.ReviewOutcomeExpired, now); err != nil {
		if errors.Is(err, reviewRepo.ErrAlreadyResolved) {
			return nil
		}
		s.logger.Error("ResolveByDeadline: failed to resolve review id=%d: %v", rev.ID, err)
		return fmt.Errorf("%w: ResolveByDeadline - resolve review: %v", ErrInternal, err)
	}

	s.logger.Info("ResolveByDeadline: review id=%d resolved as expired, deposit forfeited", rev.ID)
	return nil
}

// ResolveDue закрывает все просроченные переоценки (fallback-опрос воркера)
// Возвращает количество закрытых переоценок
func (s *Service) ResolveDue(ctx context.Context, now time.Time) (int, error) {
	reviews, err := s.reviews.GetDue(ctx, now, 100)
	if err != nil {
		s.logger.Error("ResolveDue: failed to get due reviews: %v", err)
		return 0, fmt.Errorf("%w: ResolveDue - get due reviews: %v", ErrInternal, err)
	}

	resolved := 0
	for _, rev := range reviews {
		if err := s.reviews.Resolve(ctx, rev.ID, domain.ReviewOutcomeExpired, now); err != nil {
			if errors.Is(err, reviewRepo.ErrAlreadyResolved) {
				continue
			}
			s.logger.Error("ResolveDue: failed to resolve review id=%d: %v", rev.ID, err)
			return resolved, fmt.Errorf("%w: ResolveDue - resolve review: %v", ErrInternal, err)
		}
		resolved++
	}

	if resolved > 0 {
		s.logger.Info("ResolveDue: resolved %d expired reviews", resolved)
	}

	return resolved, nil
}

// issueCredit выдает кредит на сумму депозита со сроком жизни 21 день
// Если у пользователя уже есть непогашенный кредит в этом предии, новый не выдается:
// инвариант "не более одного непогашенного кредита" важнее второй выдачи
func (s *Service) issueCredit(ctx context.Context, res *domain.Reservation, now time.Time) (*domain.Credit, error) {
	c := &domain.Credit{
		UserID:              res.UserID,
		VenueID:             res.VenueID,
		Amount:              res.DepositAmount,
		SourceReservationID: res.ID,
		ExpiresAt:           now.AddDate(0, 0, domain.CreditTTLDays),
	}

	created, err := s.credits.Create(ctx, c)
	if err != nil {
		if errors.Is(err, creditRepo.ErrActiveCreditExists) {
			s.logger.Warn("issueCredit: user=%d already holds an active credit at venue=%d, skipping new credit for reservation id=%d",
				res.UserID, res.VenueID, res.ID)
			return nil, nil
		}
		s.logger.Error("issueCredit: failed to create credit for reservation id=%d: %v", res.ID, err)
		return nil, fmt.Errorf("%w: issueCredit - create credit: %v", ErrInternal, err)
	}

	s.logger.Info("issueCredit: credit id=%d amount=%.2f issued to user=%d at venue=%d, expires %s",
		created.ID, created.Amount, created.UserID, created.VenueID, created.ExpiresAt.Format(time.RFC3339))

	return created, nil
}
