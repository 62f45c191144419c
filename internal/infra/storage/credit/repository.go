package credit

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

const pgUniqueViolation = "23505"

// Имя частичного уникального индекса из миграций:
// не более одного непогашенного кредита на пару (user_id, venue_id)
const constraintOneActiveCredit = "credits_one_active_per_user_venue"

var creditColumns = []string{
	"id",
	"user_id",
	"venue_id",
	"amount",
	"source_reservation_id",
	"expires_at",
	"consumed",
	"consumed_by_reservation_id",
	"consumed_at",
	"created_at",
}

// Repository репозиторий для работы с кредитами
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория кредитов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый кредит
// Если у пользователя уже есть непогашенный кредит в этом предии, возвращает ErrActiveCreditExists
func (r *Repository) Create(ctx context.Context, c *domain.Credit) (*domain.Credit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("credits").
		Columns(
			"user_id",
			"venue_id",
			"amount",
			"source_reservation_id",
			"expires_at",
		).
		Values(
			c.UserID,
			c.VenueID,
			c.Amount,
			c.SourceReservationID,
			c.ExpiresAt,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &createdAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation &&
			(pqErr.Constraint == "" || pqErr.Constraint == constraintOneActiveCredit) {
			return nil, ErrActiveCreditExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	c.CreatedAt = createdAt.Time

	return c, nil
}

// GetByID получает кредит по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Credit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(creditColumns...).
		From("credits").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanOne(executor.QueryRowContext(ctx, query, args...), "GetByID")
}

// GetRedeemableByUserAndVenue получает непогашенный и неистекший кредит пользователя в предии
// Внутри транзакции блокирует строку (FOR UPDATE)
func (r *Repository) GetRedeemableByUserAndVenue(ctx context.Context, userID, venueID int64, now time.Time) (*domain.Credit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(creditColumns...).
		From("credits").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"venue_id": venueID}).
		Where(squirrel.Eq{"consumed": false}).
		Where(squirrel.Gt{"expires_at": now})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetRedeemableByUserAndVenue - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanOne(executor.QueryRowContext(ctx, query, args...), "GetRedeemableByUserAndVenue")
}

// GetByConsumedReservation получает кредит, погашенный указанным бронированием
// Используется правилом "отменить можно только один раз": бронирование, созданное
// по кредиту, при отмене всегда дает FORFEITED
func (r *Repository) GetByConsumedReservation(ctx context.Context, reservationID int64) (*domain.Credit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(creditColumns...).
		From("credits").
		Where(squirrel.Eq{"consumed_by_reservation_id": reservationID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByConsumedReservation - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanOne(executor.QueryRowContext(ctx, query, args...), "GetByConsumedReservation")
}

// Consume погашает кредит (compare-and-swap: только непогашенный и неистекший)
// Погашение одноразовое, поэтому условие прямо в UPDATE, а не в предварительном чтении
func (r *Repository) Consume(ctx context.Context, id int64, reservationID int64, now time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("credits").
		Set("consumed", true).
		Set("consumed_by_reservation_id", reservationID).
		Set("consumed_at", now).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"consumed": false}).
		Where(squirrel.Gt{"expires_at": now}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Consume - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Consume - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Consume - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrCreditNotRedeemable
	}

	return nil
}

func (r *Repository) scanOne(row *sql.Row, method string) (*domain.Credit, error) {
	var c domain.Credit
	var createdAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.VenueID,
		&c.Amount,
		&c.SourceReservationID,
		&c.ExpiresAt,
		&c.Consumed,
		&c.ConsumedByReservationID,
		&c.ConsumedAt,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrCreditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan credit: %v", ErrScanRow, method, err)
	}

	c.CreatedAt = createdAt.Time

	return &c, nil
}
