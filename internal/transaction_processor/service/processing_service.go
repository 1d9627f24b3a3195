package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
)

// ErrValidationFailed marks hydration errors the router records as VALIDATION_ERROR.
// Hydrators wrap it when a referenced account does not exist.
var ErrValidationFailed = errors.New("transaction failed validation")

// ProcessingServiceImpl loads a persisted transaction, validates it and hands it
// to the orchestrator.
type ProcessingServiceImpl struct {
	transactions transaction.Repository
	hydrator     Hydrator
	validator    TransactionValidator
	router       ErrorRouter
	orchestrator Orchestrator
	logger       *slog.Logger
}

func NewProcessingService(
	transactions transaction.Repository,
	hydrator Hydrator,
	validator TransactionValidator,
	router ErrorRouter,
	orchestrator Orchestrator,
	logger *slog.Logger,
) *ProcessingServiceImpl {
	return &ProcessingServiceImpl{
		transactions: transactions,
		hydrator:     hydrator,
		validator:    validator,
		router:       router,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// ProcessByID processes the transaction with the given id if it is still NEW.
// Missing transactions and storage failures are returned as errors.
func (s *ProcessingServiceImpl) ProcessByID(ctx context.Context, transactionID int64) (Result, error) {
	logger := s.logger.With("transaction_id", transactionID)
	if correlationID := shared.CorrelationID(ctx); correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	record, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound{ID: transactionID}) {
			logger.Warn("Transaction not found")
			return Result{}, err
		}
		logger.Error("Failed to load transaction", "error", err)
		return Result{}, fmt.Errorf("failed to load transaction %d: %w", transactionID, err)
	}

	if record.Status != transaction.StatusNew {
		logger.Info("Transaction already processed, skipping", "status", record.Status)
		return Result{TransactionID: record.ID, Status: record.Status, Skipped: true}, nil
	}

	txn, err := s.hydrator.Hydrate(ctx, record)
	if err != nil {
		if errors.Is(err, ErrValidationFailed) && txn != nil {
			s.router.HandleValidationError(ctx, txn, err)
			return Result{TransactionID: txn.ID, Status: txn.Status, Failure: FailureValidation, Cause: err}, nil
		}
		logger.Error("Failed to hydrate transaction", "error", err)
		return Result{}, fmt.Errorf("failed to hydrate transaction %d: %w", transactionID, err)
	}

	if err := s.validator.Validate(ctx, txn); err != nil {
		s.router.HandleValidationError(ctx, txn, err)
		return Result{TransactionID: txn.ID, Status: txn.Status, Failure: FailureValidation, Cause: err}, nil
	}

	return s.orchestrator.Process(ctx, txn)
}
