package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/platform/messaging/producers"
)

var (
	// ErrInvalidTransaction is returned for requests that can never be processed
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrNotReprocessable is returned when processing is requested for a transaction that left NEW
	ErrNotReprocessable = errors.New("transaction is no longer NEW")
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	transactions transaction.Repository
	ledgerRepo   ledger.Repository
	trigger      producers.ProcessTrigger
	logger       *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	logger *slog.Logger,
	transactions transaction.Repository,
	ledgerRepo ledger.Repository,
	trigger producers.ProcessTrigger,
) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		transactions: transactions,
		ledgerRepo:   ledgerRepo,
		trigger:      trigger,
		logger:       logger,
	}
}

// CreateTransaction persists a NEW transaction and publishes a processing trigger.
// A failed publish is logged only: the transaction stays NEW and the processor's sweep picks it up.
func (s *TransactionServiceImpl) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*transaction.Record, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	record := transaction.NewRecord(input.Type, input.SourceAccountID, input.DestinationAccountID, input.Amount, input.Title)
	if err := s.transactions.Create(ctx, record); err != nil {
		s.logger.Error("Failed to store transaction", "type", input.Type, "error", err)
		return nil, err
	}

	logger := s.logger.With("transaction_id", record.ID, "type", record.Type)
	correlationID := shared.CorrelationID(ctx)
	if err := s.trigger.RequestProcessing(ctx, record.ID, correlationID); err != nil {
		logger.Warn("Failed to publish process request, leaving transaction for the sweep", "error", err)
		return record, nil
	}

	logger.Info("Transaction registered", "amount", record.Amount.String())
	return record, nil
}

// checkInput rejects requests the processor would reject on shape alone. Account
// existence and ownership are checked by the processor.
func checkInput(input CreateTransactionInput) error {
	if !input.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, input.Type)
	}
	if !input.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if input.Type.NeedsSource() && input.SourceAccountID == nil {
		return fmt.Errorf("%w: %s requires a source account", ErrInvalidTransaction, input.Type)
	}
	if input.Type.NeedsDestination() && input.DestinationAccountID == nil {
		return fmt.Errorf("%w: %s requires a destination account", ErrInvalidTransaction, input.Type)
	}
	if input.SourceAccountID != nil && input.DestinationAccountID != nil &&
		*input.SourceAccountID == *input.DestinationAccountID {
		return fmt.Errorf("%w: source and destination must differ", ErrInvalidTransaction)
	}
	return nil
}

// GetTransactionByID retrieves a transaction by its ID
func (s *TransactionServiceImpl) GetTransactionByID(ctx context.Context, id int64) (*transaction.Record, error) {
	return s.transactions.GetByID(ctx, id)
}

// RequestProcessing republishes the trigger of a transaction still waiting in NEW
func (s *TransactionServiceImpl) RequestProcessing(ctx context.Context, id int64) (*transaction.Record, error) {
	record, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != transaction.StatusNew {
		return record, fmt.Errorf("%w: status is %s", ErrNotReprocessable, record.Status)
	}

	if err := s.trigger.RequestProcessing(ctx, record.ID, shared.CorrelationID(ctx)); err != nil {
		s.logger.Error("Failed to publish process request", "transaction_id", id, "error", err)
		return nil, err
	}
	s.logger.Info("Processing requested again", "transaction_id", id)
	return record, nil
}

// GetLedgerEntries returns the ledger entries of a transaction. A transaction not
// yet projected yields an empty list.
func (s *TransactionServiceImpl) GetLedgerEntries(ctx context.Context, transactionID int64) ([]*ledger.Entry, error) {
	entries, err := s.ledgerRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			return []*ledger.Entry{}, nil
		}
		s.logger.Error("Failed to get ledger entries", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	return entries, nil
}
