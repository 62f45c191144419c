package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	creditRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/credit"
	reservationRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/reservation"
	venueClient "github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
)

// UseCase use case для создания бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	creditRepo      CreditRepository
	depositResolver DepositResolver
	venueClient     VenueServiceClient
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	creditRepo CreditRepository,
	depositResolver DepositResolver,
	venueClient VenueServiceClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		creditRepo:      creditRepo,
		depositResolver: depositResolver,
		venueClient:     venueClient,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case создания бронирования
// Использует сериализуемую транзакцию; защита от двойного бронирования двухслойная:
// совещательная проверка пересечений (FOR UPDATE) внутри транзакции плюс
// exclusion constraint в БД как последний рубеж
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: user=%d, court=%d, start=%s, duration=%d, method=%s",
		req.UserID, req.CourtID, req.StartTime.Format(time.RFC3339), req.DurationMinutes, req.PaymentMethod)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	if !req.StartTime.After(now) {
		uc.logger.Warn("CreateReservation: start time %s is in the past", req.StartTime.Format(time.RFC3339))
		return nil, ErrStartTimeInPast
	}

	// 3. Получаем корт
	court, err := uc.venueClient.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, venueClient.ErrCourtNotFound) {
			uc.logger.Warn("CreateReservation: court id=%d not found", req.CourtID)
			return nil, ErrCourtNotFound
		}
		uc.logger.Error("CreateReservation: failed to get court id=%d: %v", req.CourtID, err)
		return nil, fmt.Errorf("%w: failed to get court: %v", ErrInternal, err)
	}

	if !court.Active {
		uc.logger.Warn("CreateReservation: court id=%d is inactive", req.CourtID)
		return nil, ErrCourtInactive
	}

	// 4. Определяем длительность и проверяем часы работы
	duration := resolveDuration(req, court)
	if err := validateOpenHours(court, req.StartTime, duration); err != nil {
		uc.logger.Warn("CreateReservation: open hours validation failed for court id=%d: %v", req.CourtID, err)
		return nil, err
	}

	slotStart := req.StartTime
	slotEnd := slotStart.Add(time.Duration(duration) * time.Minute)

	// 5. Считаем цену и депозит
	totalPrice := calculatePrice(court.PricePerHour, duration)

	// Переменная для хранения результата
	var result *domain.Reservation

	// 6. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 6.1. Совещательная проверка пересечений с блокировкой (FOR UPDATE)
		overlapping, err := uc.reservationRepo.GetActiveByCourtAndRange(txCtx, req.CourtID, slotStart, slotEnd)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to get overlapping reservations: %v", err)
			return fmt.Errorf("%w: failed to get overlapping reservations: %v", ErrInternal, err)
		}
		if len(overlapping) > 0 {
			uc.logger.Warn("CreateReservation: slot court=%d [%s, %s) overlaps %d active reservations",
				req.CourtID, slotStart.Format(time.RFC3339), slotEnd.Format(time.RFC3339), len(overlapping))
			return ErrSlotNotAvailable
		}

		// 6.2. Погашение кредита: цена уменьшается на сумму кредита, но не ниже нуля
		var appliedCredit *domain.Credit
		price := totalPrice
		if req.ApplyCredit {
			credit, err := uc.creditRepo.GetRedeemableByUserAndVenue(txCtx, req.UserID, court.VenueID, now)
			if err != nil {
				if errors.Is(err, creditRepo.ErrCreditNotFound) {
					uc.logger.Warn("CreateReservation: user=%d has no redeemable credit at venue=%d",
						req.UserID, court.VenueID)
					return ErrNoRedeemableCredit
				}
				uc.logger.Error("CreateReservation: failed to get credit for user=%d: %v", req.UserID, err)
				return fmt.Errorf("%w: failed to get credit: %v", ErrInternal, err)
			}

			appliedCredit = credit
			price = totalPrice - credit.Amount
			if price < 0 {
				price = 0
			}
		}

		// 6.3. Закрываем отложенные переоценки отмен: слот перебронирован
		if err := uc.depositResolver.ResolveByRebooking(txCtx, req.CourtID, slotStart, slotEnd, now); err != nil {
			uc.logger.Error("CreateReservation: failed to resolve cancellation reviews: %v", err)
			return fmt.Errorf("%w: failed to resolve cancellation reviews: %v", ErrInternal, err)
		}

		// 6.4. Создаем бронирование
		res := &domain.Reservation{
			UserID:          req.UserID,
			VenueID:         court.VenueID,
			CourtID:         req.CourtID,
			StartTime:       slotStart,
			DurationMinutes: duration,
			TotalPrice:      price,
			RequiresDeposit: court.RequiresDeposit,
			DepositAmount:   court.DepositAmount,
			Status:          domain.StatusPending,
			PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
			Notes:           req.Notes,
		}
		if appliedCredit != nil {
			res.AppliedCreditID = &appliedCredit.ID
		}

		created, err := uc.reservationRepo.Create(txCtx, res)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrSlotTaken) {
				// Проигрыш гонки, который не поймала совещательная проверка
				uc.logger.Warn("CreateReservation: slot court=%d [%s, %s) lost the race on insert",
					req.CourtID, slotStart.Format(time.RFC3339), slotEnd.Format(time.RFC3339))
				return ErrSlotNotAvailable
			}
			uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		// 6.5. Помечаем кредит погашенным этим бронированием
		if appliedCredit != nil {
			if err := uc.creditRepo.Consume(txCtx, appliedCredit.ID, created.ID, now); err != nil {
				if errors.Is(err, creditRepo.ErrCreditNotRedeemable) {
					uc.logger.Warn("CreateReservation: credit id=%d was consumed concurrently", appliedCredit.ID)
					return ErrCreditConflict
				}
				uc.logger.Error("CreateReservation: failed to consume credit id=%d: %v", appliedCredit.ID, err)
				return fmt.Errorf("%w: failed to consume credit: %v", ErrInternal, err)
			}
			uc.logger.Info("CreateReservation: credit id=%d amount=%.2f consumed by reservation id=%d",
				appliedCredit.ID, appliedCredit.Amount, created.ID)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateReservation: successfully created reservation id=%d, price=%.2f, deposit=%.2f",
		result.ID, result.TotalPrice, result.DepositAmount)

	// Конвертируем в response
	return &Response{
		ID:              result.ID,
		UserID:          result.UserID,
		VenueID:         result.VenueID,
		CourtID:         result.CourtID,
		StartTime:       result.StartTime,
		EndTime:         result.EndTime(),
		DurationMinutes: result.DurationMinutes,
		Status:          string(result.Status),
		TotalPrice:      result.TotalPrice,
		RequiresDeposit: result.RequiresDeposit,
		DepositAmount:   result.DepositAmount,
		AppliedCreditID: result.AppliedCreditID,
		Notes:           result.Notes,
		CreatedAt:       result.CreatedAt,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}
