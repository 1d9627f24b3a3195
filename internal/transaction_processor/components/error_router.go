package components

import (
	"context"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

// ErrorRouterImpl turns processing failures into terminal statuses and outbox records.
// Failures while recording are logged, never returned.
type ErrorRouterImpl struct {
	guard    service.StatusGuard
	recorder service.OutcomeRecorder
	logger   *slog.Logger
}

func NewErrorRouter(guard service.StatusGuard, recorder service.OutcomeRecorder, logger *slog.Logger) service.ErrorRouter {
	return &ErrorRouterImpl{
		guard:    guard,
		recorder: recorder,
		logger:   logger,
	}
}

func (r *ErrorRouterImpl) loggerFor(ctx context.Context, txn *transaction.Transaction) *slog.Logger {
	logger := r.logger
	if txn != nil {
		logger = logger.With("transaction_id", txn.ID, "type", txn.Type, "status", txn.Status)
	}
	if correlationID := shared.CorrelationID(ctx); correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}
	return logger
}

// HandleLockError leaves the transaction in its current status so it can be picked up again.
func (r *ErrorRouterImpl) HandleLockError(ctx context.Context, txn *transaction.Transaction, err error) {
	r.loggerFor(ctx, txn).Warn("Failed to acquire account locks, transaction left for retry", "error", err)
}

func (r *ErrorRouterImpl) HandleInsufficientFunds(ctx context.Context, txn *transaction.Transaction, err error) {
	r.loggerFor(ctx, txn).Info("Insufficient funds", "error", err)
	r.fail(ctx, txn, transaction.StatusInsufficientFunds, err)
}

func (r *ErrorRouterImpl) HandleUnexpectedError(ctx context.Context, txn *transaction.Transaction, err error) error {
	wrapped := &ExecutionError{Err: err}
	if txn != nil {
		wrapped.TransactionID = txn.ID
		wrapped.Type = txn.Type
	}
	r.loggerFor(ctx, txn).Error("Transaction execution failed", "error", err)
	r.fail(ctx, txn, transaction.StatusFailed, wrapped)
	return wrapped
}

func (r *ErrorRouterImpl) HandleValidationError(ctx context.Context, txn *transaction.Transaction, err error) {
	r.loggerFor(ctx, txn).Warn("Transaction failed validation", "error", err)
	r.fail(ctx, txn, transaction.StatusValidationError, err)
}

// HandleStatusChangeError reports a transition that could not be stored. At
// stage DONE balances have already moved; a reconciliation record is queued
// and nothing is compensated.
func (r *ErrorRouterImpl) HandleStatusChangeError(ctx context.Context, txn *transaction.Transaction, stage transaction.Status, err error) error {
	wrapped := &StatusChangeError{Stage: stage, Err: err}
	if txn != nil {
		wrapped.TransactionID = txn.ID
	}
	logger := r.loggerFor(ctx, txn)

	if stage != transaction.StatusDone {
		logger.Error("Failed to change transaction status", "stage", stage, "error", err)
		return wrapped
	}

	logger.Error("Balances applied but DONE status not stored, manual reconciliation required",
		"severity", "critical",
		"stage", stage,
		"error", err,
	)
	if txn != nil {
		if recErr := r.recorder.RecordReconciliation(ctx, txn, wrapped.Error()); recErr != nil {
			logger.Error("Failed to record reconciliation entry", "severity", "critical", "error", recErr)
		}
	}
	return wrapped
}

// HandleUnlockError only reports; the caller propagates the error.
func (r *ErrorRouterImpl) HandleUnlockError(ctx context.Context, txn *transaction.Transaction, err error) {
	r.loggerFor(ctx, txn).Error("Failed to release account locks", "severity", "critical", "error", err)
}

// fail moves txn to a terminal failure status and records the outcome.
func (r *ErrorRouterImpl) fail(ctx context.Context, txn *transaction.Transaction, status transaction.Status, cause error) {
	logger := r.loggerFor(ctx, txn)
	if err := r.guard.SetStatus(ctx, txn, status); err != nil {
		logger.Error("Failed to record failure status", "target_status", status, "error", err)
		return
	}
	if err := r.recorder.RecordOutcome(ctx, txn, cause.Error()); err != nil {
		logger.Error("Failed to record transaction outcome", "error", err)
	}
}
