package paymentevent

import (
	"context"
	"fmt"

	"github.com/canchapp/PDR-BookingService/pkg/dbmetrics"
	"github.com/canchapp/PDR-BookingService/pkg/psqlbuilder"
)

// Repository дедупликация вебхуков платежного шлюза
// Хранит пары (external_payment_ref, reported_status); повторная доставка
// той же пары не должна перезапускать побочные эффекты
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория событий оплаты
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Record фиксирует доставку уведомления
// Возвращает false, если такая пара (ref, status) уже обрабатывалась — это дубликат.
// Запись участвует в транзакции обработки вебхука: откат транзакции снимает и дедупликацию
func (r *Repository) Record(ctx context.Context, paymentRef, reportedStatus string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payment_events").
		Columns("payment_ref", "reported_status").
		Values(paymentRef, reportedStatus).
		Suffix("ON CONFLICT (payment_ref, reported_status) DO NOTHING").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: Record - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Record - execute insert: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Record - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}
