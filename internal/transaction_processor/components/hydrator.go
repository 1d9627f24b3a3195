package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

// HydratorImpl turns a transaction record into a Transaction with its accounts loaded.
type HydratorImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

func NewHydrator(accountRepo account.Repository, logger *slog.Logger) service.Hydrator {
	return &HydratorImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Hydrate loads source and destination. When a referenced account does not
// exist it returns the partially hydrated transaction with a *ValidationError.
func (h *HydratorImpl) Hydrate(ctx context.Context, record *transaction.Record) (*transaction.Transaction, error) {
	if record == nil {
		return nil, ErrNilArgument
	}

	txn := &transaction.Transaction{
		ID:        record.ID,
		Type:      record.Type,
		Amount:    record.Amount,
		Status:    record.Status,
		Title:     record.Title,
		CreatedAt: record.CreatedAt,
	}

	var err error
	if txn.Source, err = h.load(ctx, record.SourceAccountID); err != nil {
		return h.failed(txn, "source", err)
	}
	if txn.Destination, err = h.load(ctx, record.DestinationAccountID); err != nil {
		return h.failed(txn, "destination", err)
	}
	return txn, nil
}

func (h *HydratorImpl) load(ctx context.Context, id *int64) (*account.Account, error) {
	if id == nil {
		return nil, nil
	}
	return h.accountRepo.GetByID(ctx, *id)
}

func (h *HydratorImpl) failed(txn *transaction.Transaction, role string, err error) (*transaction.Transaction, error) {
	if errors.Is(err, account.ErrAccountNotFound{}) {
		h.logger.Warn("Transaction references a missing account", "transaction_id", txn.ID, "role", role, "error", err)
		return txn, &ValidationError{TransactionID: txn.ID, Reason: role + " account does not exist", Err: err}
	}
	return nil, fmt.Errorf("failed to load %s account of transaction %d: %w", role, txn.ID, err)
}
