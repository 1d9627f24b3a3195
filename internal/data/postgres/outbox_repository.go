package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/outbox"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = "id, transaction_id, kind, payload, status, attempts, created_at, last_attempt_at"

// OutboxRepository stores ledger entries awaiting projection in transaction_outbox
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx so messages commit with the status change that produced them.
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a PENDING message. The (transaction_id, kind) constraint turns a
// second insert for the same pair into ErrDuplicateMessage.
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	query := `
		INSERT INTO transaction_outbox (transaction_id, kind, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (transaction_id, kind) DO NOTHING
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.TransactionID,
		message.Kind,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		// DO NOTHING returns no row when the pair already exists
		return outbox.ErrDuplicateMessage{TransactionID: message.TransactionID, Kind: message.Kind}
	default:
		r.logger.Error("Failed to create outbox message",
			"transaction_id", message.TransactionID,
			"kind", message.Kind,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
}

// GetPending returns up to limit PENDING messages, oldest first.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM transaction_outbox
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, scanOutboxMessage)
	if err != nil {
		r.logger.Error("Failed to read pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to read pending outbox messages: %w", err)
	}
	return messages, nil
}

func scanOutboxMessage(row pgx.CollectableRow) (*outbox.Message, error) {
	var message outbox.Message
	err := row.Scan(
		&message.ID,
		&message.TransactionID,
		&message.Kind,
		&message.Payload,
		&message.Status,
		&message.Attempts,
		&message.CreatedAt,
		&message.LastAttemptAt,
	)
	return &message, err
}

// UpdateStatus sets the status and stamps the attempt time.
func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	query := `
		UPDATE transaction_outbox
		SET status = $1, last_attempt_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update outbox message status", "id", id, "status", status, "error", err)
		return fmt.Errorf("failed to update outbox message status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// RecordFailedAttempt bumps the attempt counter and flips the message to
// FAILED_TO_PUBLISH when the new count reaches maxAttempts. SET expressions see
// the pre-update attempts value; RETURNING sees the new one.
func (r *OutboxRepository) RecordFailedAttempt(ctx context.Context, id int64, maxAttempts int) (outbox.AttemptOutcome, error) {
	query := `
		UPDATE transaction_outbox
		SET attempts = attempts + 1,
		    last_attempt_at = $1,
		    status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE status END
		WHERE id = $4
		RETURNING attempts, status
	`

	var outcome outbox.AttemptOutcome
	err := r.querier.QueryRow(ctx, query, time.Now(), maxAttempts, shared.OutboxStatusFailedToPublish, id).
		Scan(&outcome.Attempts, &outcome.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return outcome, outbox.ErrMessageNotFound{ID: id}
		}
		r.logger.Error("Failed to record outbox publish attempt", "id", id, "error", err)
		return outcome, fmt.Errorf("failed to record outbox publish attempt: %w", err)
	}
	return outcome, nil
}
