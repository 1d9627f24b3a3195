package ledger

import (
	"context"
	"fmt"
)

// Repository manages ledger entry persistence with pagination support
type Repository interface {
	// Create stores an entry; a second entry with the same (TransactionID, Kind) yields ErrDuplicateEntry.
	Create(ctx context.Context, entry *Entry) error
	GetByTransactionID(ctx context.Context, transactionID int64) ([]*Entry, error)
	GetByAccountID(ctx context.Context, accountID int64, limit, offset int) ([]*Entry, error)
	CountByAccountID(ctx context.Context, accountID int64) (int64, error)
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	TransactionID int64
}

func (e ErrEntryNotFound) Error() string {
	return fmt.Sprintf("ledger entry not found: %d", e.TransactionID)
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// A zero TransactionID matches any ErrEntryNotFound
	return t.TransactionID == 0 || e.TransactionID == t.TransactionID
}

// ErrDuplicateEntry indicates an entry already exists for the transaction and kind
type ErrDuplicateEntry struct {
	TransactionID int64
	Kind          Kind
}

func (e ErrDuplicateEntry) Error() string {
	return fmt.Sprintf("duplicate ledger entry: %d (%s)", e.TransactionID, e.Kind)
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.TransactionID == 0 {
		return true
	}
	return e.TransactionID == t.TransactionID && (t.Kind == "" || t.Kind == e.Kind)
}
