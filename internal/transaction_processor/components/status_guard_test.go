package components

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusGuard_CanTransitionTotality(t *testing.T) {
	guard := NewStatusGuard(&MockTransactionRepo{}, slog.Default())

	for _, from := range transaction.Statuses() {
		for _, to := range transaction.Statuses() {
			expected := !from.IsTerminal() && from != to
			assert.Equal(t, expected, guard.CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, guard.CanTransition(transaction.StatusNew, transaction.StatusPending))
	assert.True(t, guard.CanTransition(transaction.StatusPending, transaction.StatusDone))
	assert.False(t, guard.CanTransition(transaction.StatusPending, transaction.StatusPending))
	assert.False(t, guard.CanTransition(transaction.StatusDone, transaction.StatusFailed))
}

func TestStatusGuard_SetStatus(t *testing.T) {
	dbErr := errors.New("connection reset")

	t.Run("persists before mirroring", func(t *testing.T) {
		repo := &MockTransactionRepo{}
		txn := &transaction.Transaction{ID: 10, Status: transaction.StatusNew}
		repo.On("UpdateStatus", mock.Anything, int64(10), transaction.StatusPending).
			Run(func(mock.Arguments) {
				assert.Equal(t, transaction.StatusNew, txn.Status, "in-memory status changes only after persistence")
			}).
			Return(int64(1), nil).Once()

		require.NoError(t, NewStatusGuard(repo, slog.Default()).SetStatus(context.Background(), txn, transaction.StatusPending))
		assert.Equal(t, transaction.StatusPending, txn.Status)
		repo.AssertExpectations(t)
	})

	t.Run("nil arguments", func(t *testing.T) {
		guard := NewStatusGuard(&MockTransactionRepo{}, slog.Default())
		assert.ErrorIs(t, guard.SetStatus(context.Background(), nil, transaction.StatusPending), ErrNilArgument)
		assert.ErrorIs(t, guard.SetStatus(context.Background(), &transaction.Transaction{Status: transaction.StatusNew}, ""), ErrNilArgument)
	})

	t.Run("terminal statuses reject every transition", func(t *testing.T) {
		repo := &MockTransactionRepo{}
		guard := NewStatusGuard(repo, slog.Default())

		for _, terminal := range []transaction.Status{
			transaction.StatusDone,
			transaction.StatusFailed,
			transaction.StatusInsufficientFunds,
			transaction.StatusValidationError,
		} {
			for _, next := range transaction.Statuses() {
				txn := &transaction.Transaction{ID: 3, Status: terminal}
				err := guard.SetStatus(context.Background(), txn, next)

				require.Error(t, err)
				assert.ErrorIs(t, err, ErrIllegalTransition)
				var illegal *IllegalTransitionError
				require.True(t, errors.As(err, &illegal))
				assert.Equal(t, terminal, illegal.From)
				assert.Equal(t, next, illegal.To)
				assert.Equal(t, terminal, txn.Status)
			}
		}
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("zero rows affected", func(t *testing.T) {
		repo := &MockTransactionRepo{}
		repo.On("UpdateStatus", mock.Anything, int64(404), transaction.StatusPending).Return(int64(0), nil).Once()
		txn := &transaction.Transaction{ID: 404, Status: transaction.StatusNew}

		err := NewStatusGuard(repo, slog.Default()).SetStatus(context.Background(), txn, transaction.StatusPending)
		assert.ErrorIs(t, err, transaction.ErrNotFound{ID: 404})
		assert.Equal(t, transaction.StatusNew, txn.Status)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := &MockTransactionRepo{}
		repo.On("UpdateStatus", mock.Anything, int64(5), transaction.StatusDone).Return(int64(0), dbErr).Once()
		txn := &transaction.Transaction{ID: 5, Status: transaction.StatusPending}

		err := NewStatusGuard(repo, slog.Default()).SetStatus(context.Background(), txn, transaction.StatusDone)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to update status of transaction 5 to DONE")
		assert.Equal(t, transaction.StatusPending, txn.Status)
	})
}
