package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/pkg/dbmetrics"
	"github.com/canchapp/PDR-BookingService/pkg/psqlbuilder"
)

// Коды ошибок Postgres
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// Имена constraint'ов из миграций
const (
	constraintNoOverlap        = "reservations_no_overlap"
	constraintUniquePaymentRef = "reservations_external_payment_ref_key"
)

var reservationColumns = []string{
	"id",
	"user_id",
	"venue_id",
	"court_id",
	"start_time",
	"duration_minutes",
	"total_price",
	"requires_deposit",
	"deposit_amount",
	"status",
	"payment_method",
	"external_payment_ref",
	"applied_credit_id",
	"notes",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Настоящая защита от двойного бронирования — exclusion constraint на
// (court_id, интервал слота) для активных статусов: два конкурентных INSERT
// не могут пройти оба, проигравший получает ErrSlotTaken.
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservations").
		Columns(
			"user_id",
			"venue_id",
			"court_id",
			"start_time",
			"duration_minutes",
			"total_price",
			"requires_deposit",
			"deposit_amount",
			"status",
			"payment_method",
			"external_payment_ref",
			"applied_credit_id",
			"notes",
		).
		Values(
			res.UserID,
			res.VenueID,
			res.CourtID,
			res.StartTime,
			res.DurationMinutes,
			res.TotalPrice,
			res.RequiresDeposit,
			res.DepositAmount,
			res.Status,
			res.PaymentMethod,
			res.ExternalPaymentRef,
			res.AppliedCreditID,
			res.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if isConstraintViolation(err, pgExclusionViolation, constraintNoOverlap) {
			return nil, ErrSlotTaken
		}
		if isConstraintViolation(err, pgUniqueViolation, constraintUniquePaymentRef) {
			return nil, ErrPaymentRefTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return res, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanOne(executor.QueryRowContext(ctx, query, args...), "GetByID")
}

// GetByExternalPaymentRef получает бронирование по ссылке на платеж в шлюзе
// Используется для идемпотентной обработки вебхуков
func (r *Repository) GetByExternalPaymentRef(ctx context.Context, ref string) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"external_payment_ref": ref}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByExternalPaymentRef - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanOne(executor.QueryRowContext(ctx, query, args...), "GetByExternalPaymentRef")
}

// SetExternalPaymentRef привязывает платеж шлюза к бронированию
// Допускается только если ссылка еще не установлена: после установки она неизменна,
// а уникальный индекс гарантирует, что один платеж не применится к двум бронированиям
func (r *Repository) SetExternalPaymentRef(ctx context.Context, id int64, ref string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("external_payment_ref", ref).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"external_payment_ref": nil}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetExternalPaymentRef - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err, pgUniqueViolation, constraintUniquePaymentRef) {
			return ErrPaymentRefTaken
		}
		return fmt.Errorf("%w: SetExternalPaymentRef - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetExternalPaymentRef - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// GetByUserID получает список бронирований пользователя
// Опционально фильтрует по статусу
func (r *Repository) GetByUserID(ctx context.Context, userID int64, status *domain.PaymentStatus) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("start_time DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// GetActiveByCourtAndRange получает активные бронирования корта, пересекающие
// полуинтервал [start, end): existing.start < end AND existing.end > start
// Внутри транзакции блокирует строки (FOR UPDATE) — используется при создании бронирования
func (r *Repository) GetActiveByCourtAndRange(ctx context.Context, courtID int64, start, end time.Time) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	inactiveStatusStrings := make([]string, len(domain.InactiveStatuses))
	for i, s := range domain.InactiveStatuses {
		inactiveStatusStrings[i] = string(s)
	}

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"court_id": courtID}).
		Where(squirrel.NotEq{"status": inactiveStatusStrings}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Expr("start_time + make_interval(mins => duration_minutes) > ?", start)).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByCourtAndRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByCourtAndRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// GetByVenueWithFilter получает бронирования предия с гибкой фильтрацией
// Поддерживает фильтрацию по корту, периоду, статусу и включению неактивных бронирований
func (r *Repository) GetByVenueWithFilter(ctx context.Context, filter domain.VenueReservationsFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"venue_id": filter.VenueID})

	if filter.CourtID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"court_id": *filter.CourtID})
	}

	// Фильтрация по периоду
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"start_time": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"start_time": filter.EndDate.AddDate(0, 0, 1)})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		inactiveStatusStrings := make([]string, len(domain.InactiveStatuses))
		for i, s := range domain.InactiveStatuses {
			inactiveStatusStrings[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": inactiveStatusStrings})
	}

	selectBuilder = selectBuilder.OrderBy("start_time DESC")

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByVenueWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByVenueWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// UpdateStatusFrom условно обновляет статус бронирования (compare-and-swap)
// Успех только если текущий статус равен from; иначе ErrStatusConflict —
// вызывающий перечитывает бронирование и решает, была ли это гонка или дубликат
func (r *Repository) UpdateStatusFrom(ctx context.Context, id int64, from, to domain.PaymentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatusFrom - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusFrom - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatusFrom - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		// Различаем отсутствие строки и проигранную гонку за статус
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrReservationNotFound) {
			return ErrReservationNotFound
		}
		return ErrStatusConflict
	}

	return nil
}

// Cancel отменяет бронирование с указанием причины (compare-and-swap по статусу)
// Физическое удаление не поддерживается: отмена — это статус, история сохраняется
func (r *Repository) Cancel(ctx context.Context, id int64, from domain.PaymentStatus, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Cancel - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrReservationNotFound) {
			return ErrReservationNotFound
		}
		return ErrStatusConflict
	}

	return nil
}

// scanOne сканирует одну строку результата
func (r *Repository) scanOne(row *sql.Row, method string) (*domain.Reservation, error) {
	var res domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.VenueID,
		&res.CourtID,
		&res.StartTime,
		&res.DurationMinutes,
		&res.TotalPrice,
		&res.RequiresDeposit,
		&res.DepositAmount,
		&res.Status,
		&res.PaymentMethod,
		&res.ExternalPaymentRef,
		&res.AppliedCreditID,
		&res.Notes,
		&res.CancellationReason,
		&res.CancelledAt,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan reservation: %v", ErrScanRow, method, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

// scanReservations сканирует результаты запроса в слайс бронирований
func (r *Repository) scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		var res domain.Reservation
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&res.ID,
			&res.UserID,
			&res.VenueID,
			&res.CourtID,
			&res.StartTime,
			&res.DurationMinutes,
			&res.TotalPrice,
			&res.RequiresDeposit,
			&res.DepositAmount,
			&res.Status,
			&res.PaymentMethod,
			&res.ExternalPaymentRef,
			&res.AppliedCreditID,
			&res.Notes,
			&res.CancellationReason,
			&res.CancelledAt,
			&createdAt,
			&updatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}

		res.CreatedAt = createdAt.Time
		res.UpdatedAt = updatedAt.Time

		reservations = append(reservations, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

// isConstraintViolation проверяет код ошибки Postgres и имя constraint'а
// Пустое имя constraint'а в ошибке трактуется как совпадение (старые версии драйвера)
func isConstraintViolation(err error, code, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != code {
		return false
	}
	return pqErr.Constraint == "" || pqErr.Constraint == constraint
}
