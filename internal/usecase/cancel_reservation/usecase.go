package cancel_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	reservationRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/reservation"
	venueClient "github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	depositModels "github.com/canchapp/PDR-BookingService/internal/service/deposits/models"
)

// UseCase use case для отмены бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	deposits        DepositEvaluator
	venueClient     VenueServiceClient
	scheduler       ReviewScheduler
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	deposits DepositEvaluator,
	venueClient VenueServiceClient,
	scheduler ReviewScheduler,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		deposits:        deposits,
		venueClient:     venueClient,
		scheduler:       scheduler,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case отмены бронирования
// Оценка депозитной политики и смена статуса происходят в одной транзакции:
// либо фиксируются вместе, либо не фиксируется ничего
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelReservation: reservation=%d, user=%d", req.ReservationID, req.UserID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем бронирование
	res, err := uc.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("CancelReservation: reservation id=%d not found", req.ReservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("CancelReservation: failed to get reservation id=%d: %v", req.ReservationID, err)
		return nil, fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
	}

	// 4. Проверяем права доступа: владелец бронирования или владелец предия
	if err := uc.checkAccess(ctx, res, req.UserID); err != nil {
		uc.logger.Warn("CancelReservation: access denied for user=%d to reservation id=%d",
			req.UserID, req.ReservationID)
		return nil, err
	}

	// 5. Проверяем, можно ли отменить бронирование
	if !res.CanBeCancelled() {
		uc.logger.Warn("CancelReservation: reservation id=%d cannot be cancelled, status=%s",
			req.ReservationID, res.Status)
		return nil, ErrCannotCancel
	}

	// Переменная для хранения результата оценки
	var eval *depositModels.CancellationEvaluation

	// 6. Оцениваем депозитную политику и отменяем в одной транзакции
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// Один повтор при проигрыше гонки: перечитываем и переоцениваем
		current := res
		for attempt := 0; attempt < 2; attempt++ {
			// 6.1. Депозитная политика применяется только к оплаченным бронированиям
			if current.IsPaid() {
				evaluation, err := uc.deposits.EvaluateCancellation(txCtx, current, now)
				if err != nil {
					uc.logger.Error("CancelReservation: deposit evaluation failed for reservation id=%d: %v",
						req.ReservationID, err)
					return fmt.Errorf("%w: deposit evaluation failed: %v", ErrInternal, err)
				}
				eval = evaluation
			} else {
				eval = &depositModels.CancellationEvaluation{Outcome: depositModels.OutcomeNoDeposit}
			}

			// 6.2. Условная отмена (WHERE status = from)
			err := uc.reservationRepo.Cancel(txCtx, current.ID, current.Status, req.Reason)
			if err == nil {
				return nil
			}
			if errors.Is(err, reservationRepo.ErrStatusConflict) {
				fresh, reErr := uc.reservationRepo.GetByID(txCtx, current.ID)
				if reErr != nil {
					if errors.Is(reErr, reservationRepo.ErrReservationNotFound) {
						return ErrReservationNotFound
					}
					uc.logger.Error("CancelReservation: failed to re-read reservation id=%d: %v", current.ID, reErr)
					return fmt.Errorf("%w: failed to re-read reservation: %v", ErrInternal, reErr)
				}
				if !fresh.CanBeCancelled() {
					uc.logger.Warn("CancelReservation: reservation id=%d moved to status=%s concurrently, cannot cancel",
						fresh.ID, fresh.Status)
					return ErrCannotCancel
				}
				current = fresh
				continue
			}
			if errors.Is(err, reservationRepo.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			uc.logger.Error("CancelReservation: failed to cancel reservation id=%d: %v", current.ID, err)
			return fmt.Errorf("%w: failed to cancel reservation: %v", ErrInternal, err)
		}

		uc.logger.Warn("CancelReservation: reservation id=%d keeps changing concurrently, giving up", current.ID)
		return ErrStatusConflict
	})

	if err != nil {
		return nil, err
	}

	// 7. После коммита планируем fallback-проверку переоценки на начало слота
	// Ошибка планирования не откатывает отмену: воркер доберет опросом
	if eval.Outcome == depositModels.OutcomePendingRebook && eval.Review != nil {
		if err := uc.scheduler.ScheduleReviewDue(ctx, eval.Review.ID, res.ID, eval.Review.DueAt); err != nil {
			uc.logger.Warn("CancelReservation: failed to schedule review id=%d, poller will pick it up: %v",
				eval.Review.ID, err)
		}
	}

	uc.logger.Info("CancelReservation: successfully cancelled reservation id=%d, outcome=%s",
		res.ID, eval.Outcome)

	// Конвертируем в response
	resp := &Response{
		ReservationID:  res.ID,
		Status:         string(domain.StatusCancelled),
		DepositOutcome: string(eval.Outcome),
	}
	if eval.Outcome == depositModels.OutcomeCredited {
		resp.CreditAmount = eval.CreditAmount
		if eval.Credit != nil {
			resp.CreditExpiresAt = &eval.Credit.ExpiresAt
		}
	}
	if eval.Review != nil {
		resp.ReviewDueAt = &eval.Review.DueAt
	}

	return resp, nil
}

// checkAccess проверяет права на отмену: владелец бронирования или владелец предия
func (uc *UseCase) checkAccess(ctx context.Context, res *domain.Reservation, userID int64) error {
	if res.UserID == userID {
		return nil
	}

	venue, err := uc.venueClient.GetVenue(ctx, res.VenueID)
	if err != nil {
		if errors.Is(err, venueClient.ErrVenueNotFound) {
			return ErrAccessDenied
		}
		uc.logger.Error("CancelReservation: failed to get venue id=%d: %v", res.VenueID, err)
		return fmt.Errorf("%w: failed to get venue: %v", ErrInternal, err)
	}

	for _, ownerID := range venue.OwnerIDs {
		if ownerID == userID {
			return nil
		}
	}

	return ErrAccessDenied
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ReservationID <= 0 {
		return fmt.Errorf("%w: reservationID must be positive", ErrInvalidInput)
	}
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}
	if len(req.Reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason is too long", ErrInvalidInput)
	}
	return nil
}
