package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

type StatusGuardImpl struct {
	transactions transaction.Repository
	logger       *slog.Logger
}

func NewStatusGuard(transactions transaction.Repository, logger *slog.Logger) service.StatusGuard {
	return &StatusGuardImpl{
		transactions: transactions,
		logger:       logger,
	}
}

// CanTransition reports whether current may move to next: current must not be
// terminal and next must differ from it.
func (g *StatusGuardImpl) CanTransition(current, next transaction.Status) bool {
	return !current.IsTerminal() && next != current
}

// SetStatus persists the transition and only then mirrors it on txn.
func (g *StatusGuardImpl) SetStatus(ctx context.Context, txn *transaction.Transaction, next transaction.Status) error {
	if txn == nil || next == "" {
		return ErrNilArgument
	}
	if !g.CanTransition(txn.Status, next) {
		return &IllegalTransitionError{TransactionID: txn.ID, From: txn.Status, To: next}
	}

	rows, err := g.transactions.UpdateStatus(ctx, txn.ID, next)
	if err != nil {
		return fmt.Errorf("failed to update status of transaction %d to %s: %w", txn.ID, next, err)
	}
	if rows == 0 {
		return transaction.ErrNotFound{ID: txn.ID}
	}

	g.logger.Debug("Transaction status changed", "transaction_id", txn.ID, "from", txn.Status, "to", next)
	txn.Status = next
	return nil
}
