// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a pgx.Tx so several writes commit together.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be a pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository running every statement in tx.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account and assigns its generated ID.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (owner_id, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		acc.OwnerID,
		acc.Balance,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	).Scan(&acc.ID)
	if err != nil {
		r.logger.Error("Failed to create account", "owner_id", acc.OwnerID, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	query := `
		SELECT id, owner_id, balance, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.OwnerID,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// Save writes the balance if the stored version still equals acc.Version, then bumps acc.Version.
func (r *AccountRepository) Save(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`

	result, err := r.querier.Exec(ctx, query, acc.Balance, acc.UpdatedAt, acc.ID, acc.Version)
	if err != nil {
		r.logger.Error("Failed to save account", "id", acc.ID, "error", err)
		return fmt.Errorf("failed to save account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{Entity: "account", ID: acc.ID}
	}

	acc.Version++
	return nil
}

// LockOwner obtains a row lock on the owner for the rest of the surrounding transaction.
func (r *AccountRepository) LockOwner(ctx context.Context, ownerID int64) (*account.Owner, error) {
	query := `
		SELECT id, name, account_count, version, updated_at
		FROM owners
		WHERE id = $1
		FOR UPDATE
	`

	var owner account.Owner
	err := r.querier.QueryRow(ctx, query, ownerID).Scan(
		&owner.ID,
		&owner.Name,
		&owner.AccountCount,
		&owner.Version,
		&owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrOwnerNotFound{OwnerID: ownerID}
		}
		r.logger.Error("Failed to lock owner for update", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to lock owner for update: %w", err)
	}

	return &owner, nil
}

// SaveOwner writes the owner guarded by its version and bumps owner.Version.
func (r *AccountRepository) SaveOwner(ctx context.Context, owner *account.Owner) error {
	query := `
		UPDATE owners
		SET name = $1, account_count = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5
	`

	now := time.Now()
	result, err := r.querier.Exec(ctx, query, owner.Name, owner.AccountCount, now, owner.ID, owner.Version)
	if err != nil {
		r.logger.Error("Failed to save owner", "owner_id", owner.ID, "error", err)
		return fmt.Errorf("failed to save owner: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{Entity: "owner", ID: owner.ID}
	}

	owner.Version++
	owner.UpdatedAt = now
	return nil
}
