package service

import (
	"context"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/execution"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/locking"
	"github.com/jackc/pgx/v5"
)

// ProcessingService processes a persisted transaction by id.
type ProcessingService interface {
	ProcessByID(ctx context.Context, transactionID int64) (Result, error)
}

// BatchProcessingService processes every NEW transaction it can find.
type BatchProcessingService interface {
	ProcessingService
	ProcessAllNew(ctx context.Context) (BatchSummary, error)
}

// Orchestrator runs the lock, execute, unlock pipeline for one hydrated transaction.
type Orchestrator interface {
	Process(ctx context.Context, txn *transaction.Transaction) (Result, error)
}

// LockCoordinator acquires account locks in ascending id order.
type LockCoordinator interface {
	Lock(ctx context.Context, source, destination *account.Account) (*locking.Held, error)
	Unlock(held *locking.Held) error
}

// StatusGuard enforces the transaction status state machine and persists transitions.
type StatusGuard interface {
	CanTransition(current, next transaction.Status) bool
	SetStatus(ctx context.Context, txn *transaction.Transaction, next transaction.Status) error
}

// ExecutorRegistry resolves the executor for a transaction type.
type ExecutorRegistry interface {
	Get(t transaction.Type) (execution.Executor, error)
}

// TxAccountOperations binds account operations to a database transaction.
type TxAccountOperations interface {
	execution.AccountOperations
	WithTx(tx pgx.Tx) execution.AccountOperations
}

// TxRunner runs fn inside a database transaction, committing when fn returns nil.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// ErrorRouter classifies processing failures and records their outcome.
type ErrorRouter interface {
	HandleLockError(ctx context.Context, txn *transaction.Transaction, err error)
	HandleInsufficientFunds(ctx context.Context, txn *transaction.Transaction, err error)
	HandleUnexpectedError(ctx context.Context, txn *transaction.Transaction, err error) error
	HandleValidationError(ctx context.Context, txn *transaction.Transaction, err error)
	HandleStatusChangeError(ctx context.Context, txn *transaction.Transaction, stage transaction.Status, err error) error
	HandleUnlockError(ctx context.Context, txn *transaction.Transaction, err error)
}

// TransactionValidator checks a hydrated transaction before processing
type TransactionValidator interface {
	Validate(ctx context.Context, txn *transaction.Transaction) error
}

// Hydrator loads the accounts referenced by a transaction record.
type Hydrator interface {
	Hydrate(ctx context.Context, record *transaction.Record) (*transaction.Transaction, error)
}

// OutcomeRecorder writes processing outcomes to the outbox for the ledger projection.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, txn *transaction.Transaction, reason string) error
	RecordReconciliation(ctx context.Context, txn *transaction.Transaction, reason string) error
}
