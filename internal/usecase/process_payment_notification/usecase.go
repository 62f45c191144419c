package process_payment_notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	reservationRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/reservation"
	gatewayClient "github.com/canchapp/PDR-BookingService/internal/integrations/paygateway"
)

// UseCase use case обработки уведомления платежного шлюза
//
// Сверка трехслойная:
//  1. Статус берется не из тела вебхука, а из lookup API шлюза (вебхуки не аутентифицированы).
//  2. Пара (платеж, статус) записывается в журнал событий: повторная доставка — no-op.
//  3. Смена статуса условная (WHERE status = from) и проверяется по таблице переходов
type UseCase struct {
	reservationRepo ReservationRepository
	eventRepo       PaymentEventRepository
	gateway         PaymentGatewayClient
	txManager       TransactionManager
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	eventRepo PaymentEventRepository,
	gateway PaymentGatewayClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		eventRepo:       eventRepo,
		gateway:         gateway,
		txManager:       txManager,
		logger:          logger,
	}
}

// Execute выполняет use case обработки уведомления
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ProcessPaymentNotification: payment=%s, type=%s", req.PaymentID, req.Type)

	// 1. Валидация входных данных
	if req.PaymentID == "" {
		uc.logger.Warn("ProcessPaymentNotification: empty payment id")
		return nil, fmt.Errorf("%w: paymentID is required", ErrInvalidInput)
	}
	if req.Type != "" && req.Type != "payment" {
		uc.logger.Info("ProcessPaymentNotification: ignoring notification type=%s", req.Type)
		return &Response{Result: ResultIgnored}, nil
	}

	// 2. Перепроверяем платеж в шлюзе — единственный источник правды
	payment, err := uc.gateway.GetPayment(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, gatewayClient.ErrPaymentNotFound) {
			// Шлюз такого платежа не знает: уведомление поддельное или мусорное
			uc.logger.Warn("ProcessPaymentNotification: payment=%s not found in gateway, ignoring", req.PaymentID)
			return &Response{Result: ResultIgnored}, nil
		}
		uc.logger.Error("ProcessPaymentNotification: gateway lookup failed for payment=%s: %v", req.PaymentID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	// 3. Отображаем статус шлюза в статус оплаты
	newStatus, known := mapGatewayStatus(payment.Status)
	if !known {
		uc.logger.Warn("ProcessPaymentNotification: unknown gateway status=%q for payment=%s, treating as %s",
			payment.Status, payment.ID, newStatus)
	}

	// Переменная для хранения результата
	var resp *Response

	// 4. Дедупликация, поиск бронирования и смена статуса — в одной транзакции
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 4.1. Журнал событий: повторная доставка той же пары (платеж, статус) — no-op
		first, err := uc.eventRepo.Record(txCtx, payment.ID, string(newStatus))
		if err != nil {
			uc.logger.Error("ProcessPaymentNotification: failed to record event for payment=%s: %v", payment.ID, err)
			return fmt.Errorf("%w: failed to record event: %v", ErrInternal, err)
		}
		if !first {
			uc.logger.Info("ProcessPaymentNotification: duplicate delivery for payment=%s status=%s", payment.ID, newStatus)
			resp = &Response{Result: ResultDuplicate}
			return nil
		}

		// 4.2. Находим бронирование по ссылке на платеж
		res, err := uc.findReservation(txCtx, payment)
		if err != nil {
			return err
		}
		if res == nil {
			uc.logger.Warn("ProcessPaymentNotification: no reservation for payment=%s (external_reference=%q), ignoring",
				payment.ID, payment.ExternalReference)
			resp = &Response{Result: ResultIgnored}
			return nil
		}

		// 4.3. Применяем статус
		resp, err = uc.applyStatus(txCtx, res, newStatus, payment.ID)
		return err
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("ProcessPaymentNotification: payment=%s processed, result=%s", payment.ID, resp.Result)
	return resp, nil
}

// findReservation находит бронирование по ссылке на платеж
// Если ссылка еще не привязана, используется external_reference платежа (ID бронирования):
// привязка одноразовая, уникальность ссылки обеспечивает БД
func (uc *UseCase) findReservation(ctx context.Context, payment *gatewayClient.Payment) (*domain.Reservation, error) {
	res, err := uc.reservationRepo.GetByExternalPaymentRef(ctx, payment.ID)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, reservationRepo.ErrReservationNotFound) {
		uc.logger.Error("ProcessPaymentNotification: failed to get reservation by ref=%s: %v", payment.ID, err)
		return nil, fmt.Errorf("%w: failed to get reservation by ref: %v", ErrInternal, err)
	}

	// Ссылка не привязана: пробуем подсказку external_reference
	if payment.ExternalReference == "" {
		return nil, nil
	}
	reservationID, convErr := strconv.ParseInt(payment.ExternalReference, 10, 64)
	if convErr != nil || reservationID <= 0 {
		uc.logger.Warn("ProcessPaymentNotification: malformed external_reference=%q for payment=%s",
			payment.ExternalReference, payment.ID)
		return nil, nil
	}

	res, err = uc.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, nil
		}
		uc.logger.Error("ProcessPaymentNotification: failed to get reservation id=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
	}

	// Привязываем ссылку (только если она еще пустая)
	if err := uc.reservationRepo.SetExternalPaymentRef(ctx, res.ID, payment.ID); err != nil {
		if errors.Is(err, reservationRepo.ErrStatusConflict) || errors.Is(err, reservationRepo.ErrPaymentRefTaken) {
			// Ссылка уже привязана к этому или другому бронированию — перечитываем по ней
			adopted, reErr := uc.reservationRepo.GetByExternalPaymentRef(ctx, payment.ID)
			if reErr != nil {
				uc.logger.Warn("ProcessPaymentNotification: payment=%s ref adoption lost the race, ignoring", payment.ID)
				return nil, nil
			}
			return adopted, nil
		}
		uc.logger.Error("ProcessPaymentNotification: failed to set ref=%s on reservation id=%d: %v",
			payment.ID, res.ID, err)
		return nil, fmt.Errorf("%w: failed to set payment ref: %v", ErrInternal, err)
	}

	uc.logger.Info("ProcessPaymentNotification: payment=%s adopted by reservation id=%d", payment.ID, res.ID)
	res.ExternalPaymentRef = &payment.ID
	return res, nil
}

// applyStatus применяет подтвержденный статус к бронированию
// Недопустимые переходы игнорируются: продублированный или запоздавший вебхук
// не должен ронять обработку. Ошибки хранилища наоборот возвращаются наружу:
// транзакция откатывается вместе с записью в журнале событий, шлюз получает
// 5xx и доставит уведомление повторно
func (uc *UseCase) applyStatus(ctx context.Context, res *domain.Reservation, newStatus domain.PaymentStatus, paymentID string) (*Response, error) {
	// Один повтор при проигрыше гонки
	for attempt := 0; attempt < 2; attempt++ {
		if res.Status == newStatus {
			uc.logger.Info("ProcessPaymentNotification: reservation id=%d already in status=%s", res.ID, newStatus)
			return &Response{Result: ResultIgnored, ReservationID: res.ID, Status: string(res.Status)}, nil
		}

		if err := domain.ValidateTransition(res.Status, newStatus); err != nil {
			uc.logger.Warn("ProcessPaymentNotification: transition %s -> %s not allowed for reservation id=%d (payment=%s), ignoring",
				res.Status, newStatus, res.ID, paymentID)
			return &Response{Result: ResultIgnored, ReservationID: res.ID, Status: string(res.Status)}, nil
		}

		err := uc.reservationRepo.UpdateStatusFrom(ctx, res.ID, res.Status, newStatus)
		if err == nil {
			uc.logger.Info("ProcessPaymentNotification: reservation id=%d moved %s -> %s by payment=%s",
				res.ID, res.Status, newStatus, paymentID)
			return &Response{Result: ResultApplied, ReservationID: res.ID, Status: string(newStatus)}, nil
		}

		if errors.Is(err, reservationRepo.ErrStatusConflict) {
			fresh, reErr := uc.reservationRepo.GetByID(ctx, res.ID)
			if reErr != nil {
				uc.logger.Error("ProcessPaymentNotification: failed to re-read reservation id=%d: %v", res.ID, reErr)
				return nil, fmt.Errorf("%w: failed to re-read reservation: %v", ErrInternal, reErr)
			}
			res = fresh
			continue
		}

		uc.logger.Error("ProcessPaymentNotification: failed to update reservation id=%d: %v", res.ID, err)
		return nil, fmt.Errorf("%w: failed to update reservation status: %v", ErrInternal, err)
	}

	uc.logger.Warn("ProcessPaymentNotification: reservation id=%d keeps changing concurrently, giving up", res.ID)
	return nil, fmt.Errorf("%w: reservation id=%d keeps changing concurrently", ErrInternal, res.ID)
}
