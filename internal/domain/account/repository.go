package account

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)

	// Save persists the balance guarded by the account's version and bumps it.
	Save(ctx context.Context, account *Account) error

	// LockOwner loads the owner row with SELECT ... FOR UPDATE; it needs a repository bound to a tx.
	LockOwner(ctx context.Context, ownerID int64) (*Owner, error)
	SaveOwner(ctx context.Context, owner *Owner) error
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	Entity string
	ID     int64
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for " + e.Entity + ": " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrConcurrentModification when the target carries no ID.
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.ID == 0 || (t.ID == e.ID && t.Entity == e.Entity)
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID int64
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + strconv.FormatInt(e.AccountID, 10)
}

// Is matches any ErrAccountNotFound when the target carries no ID.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == 0 || t.AccountID == e.AccountID
}

// ErrOwnerNotFound indicates missing owner
type ErrOwnerNotFound struct {
	OwnerID int64
}

func (e ErrOwnerNotFound) Error() string {
	return "owner not found: " + strconv.FormatInt(e.OwnerID, 10)
}
