package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	reservationRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/reservation"
	venueClient "github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	reservationRepo ReservationRepository
	venueClient     VenueServiceClient
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservationRepo ReservationRepository,
	venueClient VenueServiceClient,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		venueClient:     venueClient,
		logger:          logger,
	}
}

// GetByID получает бронирование по ID
// Проверяет права доступа - пользователь может видеть только свое бронирование
// или если он является владельцем предия
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d for user=%d", id, userID)

	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("GetByID: reservation id=%d not found", id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("GetByID: repository error for reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	// Проверяем права доступа
	if err := s.checkUserAccess(ctx, res, userID); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to reservation id=%d", userID, id)
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched reservation id=%d", id)
	return models.FromDomainReservation(res), nil
}

// GetUserReservations получает историю бронирований пользователя
// Опционально фильтрует по статусу оплаты
func (s *Service) GetUserReservations(ctx context.Context, req *models.GetUserReservationsRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("GetUserReservations: fetching reservations for user=%d, status=%v", req.UserID, req.Status)

	// Конвертируем статус из строки в domain.PaymentStatus
	var domainStatus *domain.PaymentStatus
	if req.Status != nil {
		status, err := models.ToDomainPaymentStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserReservations: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	reservations, err := s.reservationRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserReservations: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserReservations - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserReservations: successfully fetched %d reservations for user=%d", len(reservations), req.UserID)
	return models.FromDomainReservationList(reservations), nil
}

// GetVenueReservations получает бронирования предия с гибкой фильтрацией
// Поддерживает фильтрацию по корту, периоду, статусу и включению неактивных бронирований
// Доступно только владельцам предия
func (s *Service) GetVenueReservations(ctx context.Context, req *models.GetVenueReservationsRequest) (*models.ReservationListResponse, error) {
	// Логируем запрос с деталями фильтрации
	logMsg := fmt.Sprintf("GetVenueReservations: fetching reservations for venue=%d, user=%d", req.VenueID, req.UserID)
	if req.CourtID != nil {
		logMsg += fmt.Sprintf(", court=%d", *req.CourtID)
	}
	if req.StartDate != nil && req.EndDate != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	if req.IncludeInactive {
		logMsg += ", includeInactive=true"
	}
	s.logger.Info(logMsg)

	// Проверяем права доступа владельца
	if err := s.checkOwnerAccess(ctx, req.VenueID, req.UserID); err != nil {
		return nil, err
	}

	// Конвертируем request в domain фильтр
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetVenueReservations: invalid filter for venue=%d: %v", req.VenueID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	// Получаем бронирования с фильтрацией
	reservations, err := s.reservationRepo.GetByVenueWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetVenueReservations: repository error for venue=%d: %v", req.VenueID, err)
		return nil, fmt.Errorf("%w: GetVenueReservations - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetVenueReservations: successfully fetched %d reservations for venue=%d", len(reservations), req.VenueID)
	return models.FromDomainReservationList(reservations), nil
}

// UpdateStatus обновляет статус оплаты бронирования по таблице переходов
// Доступно только владельцам предия (ручные методы оплаты: наличные, перевод)
// Обновление условное (WHERE status = from); при конкурентном изменении — один повтор
func (s *Service) UpdateStatus(ctx context.Context, reservationID int64, req *models.UpdateStatusRequest) error {
	s.logger.Info("UpdateStatus: updating reservation id=%d to status=%s by user=%d",
		reservationID, req.Status, req.UserID)

	// Валидируем и конвертируем статус
	newStatus, err := models.ToDomainPaymentStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for reservation id=%d", req.Status, reservationID)
		return fmt.Errorf("%w: invalid status", ErrInvalidStatus)
	}

	// Получаем бронирование
	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("UpdateStatus: reservation id=%d not found", reservationID)
			return ErrReservationNotFound
		}
		s.logger.Error("UpdateStatus: repository error for reservation id=%d: %v", reservationID, err)
		return fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
	}

	// Проверяем права доступа (только владелец предия)
	if err := s.checkOwnerAccess(ctx, res.VenueID, req.UserID); err != nil {
		return err
	}

	// Один повтор при проигрыше гонки: перечитываем и пробуем еще раз с актуального статуса
	for attempt := 0; attempt < 2; attempt++ {
		if err := domain.ValidateTransition(res.Status, newStatus); err != nil {
			s.logger.Warn("UpdateStatus: transition %s -> %s is not allowed for reservation id=%d",
				res.Status, newStatus, reservationID)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, newStatus)
		}

		err = s.reservationRepo.UpdateStatusFrom(ctx, reservationID, res.Status, newStatus)
		if err == nil {
			s.logger.Info("UpdateStatus: successfully updated reservation id=%d to status=%s", reservationID, newStatus)
			return nil
		}

		if errors.Is(err, reservationRepo.ErrStatusConflict) {
			res, err = s.reservationRepo.GetByID(ctx, reservationID)
			if err != nil {
				s.logger.Error("UpdateStatus: failed to re-read reservation id=%d after conflict: %v", reservationID, err)
				return fmt.Errorf("%w: UpdateStatus - re-read after conflict: %v", ErrInternal, err)
			}
			continue
		}
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return ErrReservationNotFound
		}

		s.logger.Error("UpdateStatus: repository error for reservation id=%d: %v", reservationID, err)
		return fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
	}

	s.logger.Warn("UpdateStatus: reservation id=%d keeps changing concurrently, giving up", reservationID)
	return ErrStatusConflict
}

// Вспомогательные методы

// checkUserAccess проверяет, что пользователь имеет доступ к бронированию
// Пользователь может видеть свое бронирование или если он владелец предия
func (s *Service) checkUserAccess(ctx context.Context, res *domain.Reservation, userID int64) error {
	// Если пользователь владелец бронирования - доступ разрешен
	if res.UserID == userID {
		return nil
	}

	// Проверяем, является ли пользователь владельцем предия
	if err := s.checkOwnerAccess(ctx, res.VenueID, userID); err != nil {
		// Ошибка уже залогирована в checkOwnerAccess
		return ErrAccessDenied
	}

	return nil
}

// checkOwnerAccess проверяет, что пользователь является владельцем предия
func (s *Service) checkOwnerAccess(ctx context.Context, venueID int64, userID int64) error {
	// Получаем предио через VenueService
	venue, err := s.venueClient.GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, venueClient.ErrVenueNotFound) {
			s.logger.Warn("checkOwnerAccess: venue id=%d not found", venueID)
			return ErrVenueNotFound
		}
		s.logger.Error("checkOwnerAccess: failed to get venue id=%d: %v", venueID, err)
		return fmt.Errorf("%w: checkOwnerAccess - failed to get venue: %v", ErrInternal, err)
	}

	// Проверяем, что userID в списке владельцев
	for _, ownerID := range venue.OwnerIDs {
		if ownerID == userID {
			s.logger.Info("checkOwnerAccess: user=%d is owner of venue=%d", userID, venueID)
			return nil
		}
	}

	s.logger.Warn("checkOwnerAccess: user=%d is not an owner of venue=%d", userID, venueID)
	return ErrAccessDenied
}
