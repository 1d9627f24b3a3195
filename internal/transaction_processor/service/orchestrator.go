package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/execution"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/locking"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrNilTransaction is returned by Process when called without a transaction.
var ErrNilTransaction = errors.New("transaction is nil")

type OrchestratorImpl struct {
	locks      LockCoordinator
	guard      StatusGuard
	registry   ExecutorRegistry
	accountOps TxAccountOperations
	db         TxRunner
	router     ErrorRouter
	recorder   OutcomeRecorder
	logger     *slog.Logger
}

func NewOrchestrator(
	locks LockCoordinator,
	guard StatusGuard,
	registry ExecutorRegistry,
	accountOps TxAccountOperations,
	db TxRunner,
	router ErrorRouter,
	recorder OutcomeRecorder,
	logger *slog.Logger,
) *OrchestratorImpl {
	return &OrchestratorImpl{
		locks:      locks,
		guard:      guard,
		registry:   registry,
		accountOps: accountOps,
		db:         db,
		router:     router,
		recorder:   recorder,
		logger:     logger,
	}
}

// Process runs one transaction through lock, PENDING, execute, DONE and unlock.
// Business failures end up in the Result and the transaction's status. The
// returned error is non-nil only when locks could not be released.
func (o *OrchestratorImpl) Process(ctx context.Context, txn *transaction.Transaction) (result Result, err error) {
	if txn == nil {
		return Result{}, ErrNilTransaction
	}

	logger := o.logger.With("transaction_id", txn.ID, "type", txn.Type)
	if correlationID := shared.CorrelationID(ctx); correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	// 0. Resolve the executor; preparation may attach accounts that must be locked too
	executor, err := o.registry.Get(txn.Type)
	if err == nil {
		if preparer, ok := executor.(execution.Preparer); ok {
			err = preparer.Prepare(ctx, txn)
		}
	}
	if err != nil {
		logger.Error("Failed to prepare transaction", "error", err)
		cause := o.router.HandleUnexpectedError(ctx, txn, err)
		return o.result(txn, FailurePreparation, cause), nil
	}

	// 1. Record attempt
	logger.Info("Processing transaction",
		"source_account_id", txn.SourceID(),
		"destination_account_id", txn.DestinationID(),
		"amount", txn.Amount.String(),
	)

	// 2. Lock accounts; whatever was acquired is released on every path
	held, lockErr := o.locks.Lock(ctx, txn.Source, txn.Destination)
	defer func() {
		if unlockErr := o.locks.Unlock(held); unlockErr != nil {
			o.router.HandleUnlockError(ctx, txn, unlockErr)
			err = unlockErr
		}
	}()
	if errors.Is(lockErr, locking.ErrSameAccount) {
		// Preparation can resolve the destination onto the source; retrying never helps
		o.router.HandleValidationError(ctx, txn, lockErr)
		return o.result(txn, FailureValidation, lockErr), nil
	}
	if lockErr != nil {
		o.router.HandleLockError(ctx, txn, lockErr)
		return o.result(txn, FailureLock, lockErr), nil
	}

	// Locks are held: run to a terminal outcome regardless of caller cancellation
	ctx = context.WithoutCancel(ctx)

	// 3. Mark PENDING
	if statusErr := o.guard.SetStatus(ctx, txn, transaction.StatusPending); statusErr != nil {
		cause := o.router.HandleStatusChangeError(ctx, txn, transaction.StatusPending, statusErr)
		return o.result(txn, FailureStatusChange, cause), nil
	}

	// 4. Execute; all balance writes of one transaction commit together
	snapshot := takeSnapshot(txn)
	execErr := o.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return executor.Execute(ctx, txn, o.accountOps.WithTx(tx))
	})
	if execErr != nil {
		snapshot.restore()
		if errors.Is(execErr, account.ErrInsufficientFunds) {
			o.router.HandleInsufficientFunds(ctx, txn, execErr)
			return o.result(txn, FailureInsufficientFunds, execErr), nil
		}
		cause := o.router.HandleUnexpectedError(ctx, txn, execErr)
		return o.result(txn, FailureExecution, cause), nil
	}

	// 5. Mark DONE
	if statusErr := o.guard.SetStatus(ctx, txn, transaction.StatusDone); statusErr != nil {
		cause := o.router.HandleStatusChangeError(ctx, txn, transaction.StatusDone, statusErr)
		return o.result(txn, FailureStatusChange, cause), nil
	}

	// 6. Record success
	logger.Info("Transaction processed successfully")
	if recordErr := o.recorder.RecordOutcome(ctx, txn, ""); recordErr != nil {
		logger.Error("Failed to record transaction outcome", "error", recordErr)
	}

	return o.result(txn, FailureNone, nil), nil
}

func (o *OrchestratorImpl) result(txn *transaction.Transaction, kind FailureKind, cause error) Result {
	return Result{
		TransactionID: txn.ID,
		Status:        txn.Status,
		Failure:       kind,
		Cause:         cause,
	}
}

type accountState struct {
	acc     *account.Account
	balance decimal.Decimal
	version int
}

// snapshot holds the in-memory account state from before execution, restored
// when the execution's database transaction rolls back.
type snapshot []accountState

func takeSnapshot(txn *transaction.Transaction) snapshot {
	var s snapshot
	for _, acc := range []*account.Account{txn.Source, txn.Destination} {
		if acc != nil {
			s = append(s, accountState{acc: acc, balance: acc.Balance, version: acc.Version})
		}
	}
	return s
}

func (s snapshot) restore() {
	for _, st := range s {
		st.acc.Balance = st.balance
		st.acc.Version = st.version
	}
}
