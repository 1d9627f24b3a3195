package components

import (
	"context"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/outbox"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) Save(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) LockOwner(ctx context.Context, ownerID int64) (*account.Owner, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Owner), args.Error(1)
}

func (m *MockAccountRepo) SaveOwner(ctx context.Context, owner *account.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	args := m.Called(tx)
	return args.Get(0).(account.Repository)
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

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) RecordFailedAttempt(ctx context.Context, id int64, maxAttempts int) (outbox.AttemptOutcome, error) {
	args := m.Called(ctx, id, maxAttempts)
	return args.Get(0).(outbox.AttemptOutcome), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

type MockStatusGuard struct {
	mock.Mock
}

func (m *MockStatusGuard) CanTransition(current, next transaction.Status) bool {
	args := m.Called(current, next)
	return args.Bool(0)
}

func (m *MockStatusGuard) SetStatus(ctx context.Context, txn *transaction.Transaction, next transaction.Status) error {
	args := m.Called(ctx, txn, next)
	if args.Error(0) == nil {
		txn.Status = next
	}
	return args.Error(0)
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
