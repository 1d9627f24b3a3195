package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create inserts record and assigns its ID.
func (r *TransactionRepository) Create(ctx context.Context, record *transaction.Record) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = record.CreatedAt

	query := `
		INSERT INTO transactions (type, source_account_id, destination_account_id, amount, status, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		record.Type,
		record.SourceAccountID,
		record.DestinationAccountID,
		record.Amount,
		record.Status,
		record.Title,
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID)
	if err != nil {
		r.logger.Error("Failed to create transaction", "type", record.Type, "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*transaction.Record, error) {
	query := `
		SELECT id, type, source_account_id, destination_account_id, amount, status, title, created_at, updated_at
		FROM transactions
		WHERE id = $1
	`

	var record transaction.Record
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.Type,
		&record.SourceAccountID,
		&record.DestinationAccountID,
		&record.Amount,
		&record.Status,
		&record.Title,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &record, nil
}

// UpdateStatus moves a non-terminal transaction to status. Rows in a terminal
// status, or already in status, are left untouched and count as zero rows, so
// two processors racing on the same transaction cannot both win a transition.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status transaction.Status) (int64, error) {
	query := `
		UPDATE transactions
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		  AND status <> $2
		  AND status NOT IN ('DONE', 'VALIDATION_ERROR', 'INSUFFICIENT_FUNDS', 'FAILED')
	`

	result, err := r.querier.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update transaction status", "id", id, "status", status, "error", err)
		return 0, fmt.Errorf("failed to update transaction status: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListIDsByStatus returns up to limit ids in the given status, oldest first.
func (r *TransactionRepository) ListIDsByStatus(ctx context.Context, status transaction.Status, limit int) ([]int64, error) {
	query := `
		SELECT id
		FROM transactions
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, status, limit)
	if err != nil {
		r.logger.Error("Failed to list transactions", "status", status, "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		r.logger.Error("Failed to scan transaction ids", "status", status, "error", err)
		return nil, fmt.Errorf("failed to scan transaction ids: %w", err)
	}

	return ids, nil
}
