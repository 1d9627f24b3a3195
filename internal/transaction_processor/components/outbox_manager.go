package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/bankapp-ledger-engine/internal/domain/outbox"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

// OutboxManagerImpl records processing outcomes in the transactional outbox.
// The poller later projects them into the ledger.
type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutcomeRecorder {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// RecordOutcome stores the terminal status the transaction reached.
func (m *OutboxManagerImpl) RecordOutcome(ctx context.Context, txn *transaction.Transaction, reason string) error {
	return m.record(ctx, ledger.KindOutcome, txn, reason)
}

// RecordReconciliation flags a transaction whose balances moved without a stored DONE status.
func (m *OutboxManagerImpl) RecordReconciliation(ctx context.Context, txn *transaction.Transaction, reason string) error {
	return m.record(ctx, ledger.KindReconciliation, txn, reason)
}

func (m *OutboxManagerImpl) record(ctx context.Context, kind ledger.Kind, txn *transaction.Transaction, reason string) error {
	if txn == nil {
		return ErrNilArgument
	}

	correlationID := shared.CorrelationID(ctx)
	logger := m.logger
	if correlationID != "" {
		logger = m.logger.With("correlation_id", correlationID)
	}

	message, err := outbox.NewMessage(ledger.NewEntry(kind, txn, reason, correlationID))
	if err != nil {
		logger.Error("Failed to build outbox message", "transaction_id", txn.ID, "kind", kind, "error", err)
		return fmt.Errorf("failed to build outbox message for transaction %d: %w", txn.ID, err)
	}

	if err := m.outboxRepo.Create(ctx, message); err != nil {
		var duplicate outbox.ErrDuplicateMessage
		if errors.As(err, &duplicate) {
			logger.Info("Outbox message already recorded", "transaction_id", txn.ID, "kind", kind)
			return nil
		}
		logger.Error("Failed to create outbox message", "transaction_id", txn.ID, "kind", kind, "error", err)
		return fmt.Errorf("failed to create outbox message for transaction %d: %w", txn.ID, err)
	}

	logger.Info("Outbox message created successfully",
		"transaction_id", txn.ID,
		"kind", kind,
		"status", txn.Status,
		"outbox_id", message.ID,
	)
	return nil
}
