package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	"github.com/canchapp/PDR-BookingService/pkg/dbmetrics"
	"github.com/canchapp/PDR-BookingService/pkg/psqlbuilder"
)

var reviewColumns = []string{
	"id",
	"reservation_id",
	"user_id",
	"venue_id",
	"court_id",
	"deposit_amount",
	"slot_start",
	"slot_end",
	"due_at",
	"resolved",
	"outcome",
	"resolved_at",
	"created_at",
}

// Repository репозиторий для отложенных переоценок отмен
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория переоценок
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую переоценку
func (r *Repository) Create(ctx context.Context, rev *domain.CancellationReview) (*domain.CancellationReview, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("cancellation_reviews").
		Columns(
			"reservation_id",
			"user_id",
			"venue_id",
			"court_id",
			"deposit_amount",
			"slot_start",
			"slot_end",
			"due_at",
		).
		Values(
			rev.ReservationID,
			rev.UserID,
			rev.VenueID,
			rev.CourtID,
			rev.DepositAmount,
			rev.SlotStart,
			rev.SlotEnd,
			rev.DueAt,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&rev.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	rev.CreatedAt = createdAt.Time

	return rev, nil
}

// GetByID получает переоценку по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.CancellationReview, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reviewColumns...).
		From("cancellation_reviews").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	rev, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan review: %v", ErrScanRow, err)
	}

	return rev, nil
}

// GetOpenBySlot получает незакрытые переоценки корта, чей слот пересекает [start, end)
// Вызывается при создании нового бронирования — это событийный триггер перебронирования.
// Внутри транзакции блокирует строки (FOR UPDATE)
func (r *Repository) GetOpenBySlot(ctx context.Context, courtID int64, start, end time.Time) ([]*domain.CancellationReview, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reviewColumns...).
		From("cancellation_reviews").
		Where(squirrel.Eq{"court_id": courtID}).
		Where(squirrel.Eq{"resolved": false}).
		Where(squirrel.Lt{"slot_start": end}).
		Where(squirrel.Gt{"slot_end": start}).
		OrderBy("id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOpenBySlot - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetOpenBySlot - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// GetDue получает незакрытые переоценки, чей дедлайн уже наступил
// Используется fallback-опросом воркера
func (r *Repository) GetDue(ctx context.Context, now time.Time, limit uint64) ([]*domain.CancellationReview, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reviewColumns...).
		From("cancellation_reviews").
		Where(squirrel.Eq{"resolved": false}).
		Where(squirrel.LtOrEq{"due_at": now}).
		OrderBy("due_at ASC").
		Limit(limit).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetDue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// Resolve закрывает переоценку с указанным исходом (compare-and-swap по resolved)
// Повторный вызов безопасен: второй триггер получает ErrAlreadyResolved
func (r *Repository) Resolve(ctx context.Context, id int64, outcome domain.ReviewOutcome, now time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("cancellation_reviews").
		Set("resolved", true).
		Set("outcome", outcome).
		Set("resolved_at", now).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"resolved": false}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Resolve - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Resolve - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Resolve - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrAlreadyResolved
	}

	return nil
}

func scanReview(row *sql.Row) (*domain.CancellationReview, error) {
	var rev domain.CancellationReview
	var createdAt sql.NullTime
	var outcome sql.NullString

	err := row.Scan(
		&rev.ID,
		&rev.ReservationID,
		&rev.UserID,
		&rev.VenueID,
		&rev.CourtID,
		&rev.DepositAmount,
		&rev.SlotStart,
		&rev.SlotEnd,
		&rev.DueAt,
		&rev.Resolved,
		&outcome,
		&rev.ResolvedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if outcome.Valid {
		o := domain.ReviewOutcome(outcome.String)
		rev.Outcome = &o
	}
	rev.CreatedAt = createdAt.Time

	return &rev, nil
}

func scanReviews(rows *sql.Rows) ([]*domain.CancellationReview, error) {
	reviews := make([]*domain.CancellationReview, 0)

	for rows.Next() {
		var rev domain.CancellationReview
		var createdAt sql.NullTime
		var outcome sql.NullString

		err := rows.Scan(
			&rev.ID,
			&rev.ReservationID,
			&rev.UserID,
			&rev.VenueID,
			&rev.CourtID,
			&rev.DepositAmount,
			&rev.SlotStart,
			&rev.SlotEnd,
			&rev.DueAt,
			&rev.Resolved,
			&outcome,
			&rev.ResolvedAt,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReviews - scan row: %v", ErrScanRow, err)
		}

		if outcome.Valid {
			o := domain.ReviewOutcome(outcome.String)
			rev.Outcome = &o
		}
		rev.CreatedAt = createdAt.Time

		reviews = append(reviews, &rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReviews - rows error: %v", ErrScanRow, err)
	}

	return reviews, nil
}
