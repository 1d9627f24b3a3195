package service

import (
	"context"
	"sync"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/execution"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/locking"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockErrorRouter struct {
	mock.Mock
}

func (m *MockErrorRouter) HandleLockError(ctx context.Context, txn *transaction.Transaction, err error) {
	m.Called(ctx, txn, err)
}

func (m *MockErrorRouter) HandleInsufficientFunds(ctx context.Context, txn *transaction.Transaction, err error) {
	m.Called(ctx, txn, err)
}

func (m *MockErrorRouter) HandleUnexpectedError(ctx context.Context, txn *transaction.Transaction, err error) error {
	args := m.Called(ctx, txn, err)
	return args.Error(0)
}

func (m *MockErrorRouter) HandleValidationError(ctx context.Context, txn *transaction.Transaction, err error) {
	m.Called(ctx, txn, err)
}

func (m *MockErrorRouter) HandleStatusChangeError(ctx context.Context, txn *transaction.Transaction, stage transaction.Status, err error) error {
	args := m.Called(ctx, txn, stage, err)
	return args.Error(0)
}

func (m *MockErrorRouter) HandleUnlockError(ctx context.Context, txn *transaction.Transaction, err error) {
	m.Called(ctx, txn, err)
}

type MockOutcomeRecorder struct {
	mock.Mock
}

func (m *MockOutcomeRecorder) RecordOutcome(ctx context.Context, txn *transaction.Transaction, reason string) error {
	args := m.Called(ctx, txn, reason)
	return args.Error(0)
}

func (m *MockOutcomeRecorder) RecordReconciliation(ctx context.Context, txn *transaction.Transaction, reason string) error {
	args := m.Called(ctx, txn, reason)
	return args.Error(0)
}

type MockLockCoordinator struct {
	mock.Mock
}

func (m *MockLockCoordinator) Lock(ctx context.Context, source, destination *account.Account) (*locking.Held, error) {
	args := m.Called(ctx, source, destination)
	held, _ := args.Get(0).(*locking.Held)
	return held, args.Error(1)
}

func (m *MockLockCoordinator) Unlock(held *locking.Held) error {
	args := m.Called(held)
	return args.Error(0)
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, record *transaction.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id int64) (*transaction.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Record), args.Error(1)
}

func (m *MockTransactionRepo) UpdateStatus(ctx context.Context, id int64, status transaction.Status) (int64, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepo) ListIDsByStatus(ctx context.Context, status transaction.Status, limit int) ([]int64, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockHydrator struct {
	mock.Mock
}

func (m *MockHydrator) Hydrate(ctx context.Context, record *transaction.Record) (*transaction.Transaction, error) {
	args := m.Called(ctx, record)
	txn, _ := args.Get(0).(*transaction.Transaction)
	return txn, args.Error(1)
}

type MockTransactionValidator struct {
	mock.Mock
}

func (m *MockTransactionValidator) Validate(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Process(ctx context.Context, txn *transaction.Transaction) (Result, error) {
	args := m.Called(ctx, txn)
	return args.Get(0).(Result), args.Error(1)
}

type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessByID(ctx context.Context, transactionID int64) (Result, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(Result), args.Error(1)
}

// recordingGuard applies the status state machine in memory and can fail chosen transitions.
type recordingGuard struct {
	mu          sync.Mutex
	transitions []transaction.Status
	ctxErrs     []error
	failOn      map[transaction.Status]error
}

func (g *recordingGuard) CanTransition(current, next transaction.Status) bool {
	return !current.IsTerminal() && current != next
}

func (g *recordingGuard) SetStatus(ctx context.Context, txn *transaction.Transaction, next transaction.Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	if err := g.failOn[next]; err != nil {
		return err
	}
	txn.Status = next
	g.transitions = append(g.transitions, next)
	return nil
}

// memoryOps mutates accounts in memory; failCredit makes every credit fail.
type memoryOps struct {
	failCredit  error
	withTxCalls int
}

func (o *memoryOps) Debit(_ context.Context, acc *account.Account, amount decimal.Decimal) error {
	return acc.Debit(amount)
}

func (o *memoryOps) Credit(_ context.Context, acc *account.Account, amount decimal.Decimal) error {
	if o.failCredit != nil {
		return o.failCredit
	}
	return acc.Credit(amount)
}

func (o *memoryOps) WithTx(pgx.Tx) execution.AccountOperations {
	o.withTxCalls++
	return o
}

// inlineTxRunner runs fn without a database transaction.
type inlineTxRunner struct {
	calls int
}

func (r *inlineTxRunner) ExecuteTx(_ context.Context, fn func(pgx.Tx) error) error {
	r.calls++
	return fn(nil)
}

type fakeHouseAccounts struct {
	acc *account.Account
	err error
}

func (f fakeHouseAccounts) GetDefaultAccount(context.Context) (*account.Account, error) {
	return f.acc, f.err
}
