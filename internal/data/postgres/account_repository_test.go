package postgres

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := NewAccountRepository(slog.Default(), persistence.NewPostgresDBWithPool(mock, slog.Default()))

	acc, err := account.NewAccount(7, decimal.RequireFromString("25.00"))
	require.NoError(t, err)
	query := regexp.QuoteMeta("INSERT INTO accounts (owner_id, balance, version, created_at, updated_at)")

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(acc.OwnerID, acc.Balance, acc.Version, acc.CreatedAt, acc.UpdatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		require.NoError(t, repo.Create(ctx, acc))
		assert.Equal(t, int64(42), acc.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).WillReturnError(expectedErr)

		err := repo.Create(ctx, acc)
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), "failed to create account")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := &AccountRepository{querier: mock, logger: slog.Default()}

	now := time.Now()
	expected := &account.Account{
		ID:        42,
		OwnerID:   7,
		Balance:   decimal.RequireFromString("100.50"),
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}
	query := regexp.QuoteMeta("SELECT id, owner_id, balance, version, created_at, updated_at")

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "owner_id", "balance", "version", "created_at", "updated_at"}).
			AddRow(expected.ID, expected.OwnerID, expected.Balance, expected.Version, expected.CreatedAt, expected.UpdatedAt)
		mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnRows(rows)

		acc, err := repo.GetByID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, expected, acc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnError(pgx.ErrNoRows)

		acc, err := repo.GetByID(ctx, 42)
		assert.Nil(t, acc)
		var notFound account.ErrAccountNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, int64(42), notFound.AccountID)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnError(errors.New("db error"))

		_, err := repo.GetByID(ctx, 42)
		assert.ErrorContains(t, err, "failed to get account")
		assert.NotErrorIs(t, err, account.ErrAccountNotFound{})
	})
}

func TestAccountRepository_Save(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := &AccountRepository{querier: mock, logger: slog.Default()}
	query := regexp.QuoteMeta("UPDATE accounts")

	t.Run("bumps version", func(t *testing.T) {
		acc := &account.Account{ID: 1, Balance: decimal.NewFromInt(90), Version: 4, UpdatedAt: time.Now()}
		mock.ExpectExec(query).
			WithArgs(acc.Balance, acc.UpdatedAt, int64(1), 4).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Save(ctx, acc))
		assert.Equal(t, 5, acc.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		acc := &account.Account{ID: 1, Balance: decimal.NewFromInt(90), Version: 4, UpdatedAt: time.Now()}
		mock.ExpectExec(query).
			WithArgs(acc.Balance, acc.UpdatedAt, int64(1), 4).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Save(ctx, acc)
		assert.ErrorIs(t, err, account.ErrConcurrentModification{Entity: "account", ID: 1})
		assert.Equal(t, 4, acc.Version)
	})

	t.Run("database error", func(t *testing.T) {
		acc := &account.Account{ID: 1, Version: 4}
		mock.ExpectExec(query).WillReturnError(errors.New("db error"))

		assert.ErrorContains(t, repo.Save(ctx, acc), "failed to save account")
	})
}

func TestAccountRepository_LockOwner(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := &AccountRepository{querier: mock, logger: slog.Default()}
	query := regexp.QuoteMeta("FROM owners") + `\s+WHERE id = \$1\s+FOR UPDATE`
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "name", "account_count", "version", "updated_at"}).
			AddRow(int64(7), "Ada", 2, 5, now)
		mock.ExpectQuery(query).WithArgs(int64(7)).WillReturnRows(rows)

		owner, err := repo.LockOwner(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, &account.Owner{ID: 7, Name: "Ada", AccountCount: 2, Version: 5, UpdatedAt: now}, owner)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(int64(8)).WillReturnError(pgx.ErrNoRows)

		_, err := repo.LockOwner(ctx, 8)
		assert.ErrorIs(t, err, account.ErrOwnerNotFound{OwnerID: 8})
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SaveOwner(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := &AccountRepository{querier: mock, logger: slog.Default()}
	query := regexp.QuoteMeta("UPDATE owners")

	t.Run("success", func(t *testing.T) {
		owner := &account.Owner{ID: 7, Name: "Ada", AccountCount: 3, Version: 5}
		mock.ExpectExec(query).
			WithArgs("Ada", 3, pgxmock.AnyArg(), int64(7), 5).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SaveOwner(ctx, owner))
		assert.Equal(t, 6, owner.Version)
		assert.False(t, owner.UpdatedAt.IsZero())
	})

	t.Run("concurrent modification", func(t *testing.T) {
		owner := &account.Owner{ID: 7, Name: "Ada", AccountCount: 3, Version: 5}
		mock.ExpectExec(query).
			WithArgs("Ada", 3, pgxmock.AnyArg(), int64(7), 5).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SaveOwner(ctx, owner)
		assert.ErrorIs(t, err, account.ErrConcurrentModification{})
		assert.Equal(t, "concurrent modification detected for owner: 7", err.Error())
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_WithTx(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := &AccountRepository{querier: mock, logger: slog.Default()}

	mock.ExpectBegin()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	txRepo := repo.WithTx(tx)
	require.IsType(t, &AccountRepository{}, txRepo)
	assert.Equal(t, tx, txRepo.(*AccountRepository).querier)
	assert.Equal(t, mock, repo.querier, "original repository keeps the pool")
}
