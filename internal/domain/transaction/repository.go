package transaction

import (
	"context"
	"strconv"
)

// Repository defines transaction persistence operations
type Repository interface {
	// Create inserts a record and assigns its ID. CreatedAt defaults to now when zero.
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id int64) (*Record, error)

	// UpdateStatus stores the status for id and returns the number of rows affected.
	UpdateStatus(ctx context.Context, id int64, status Status) (int64, error)
	ListIDsByStatus(ctx context.Context, status Status, limit int) ([]int64, error)
}

// ErrNotFound indicates a missing transaction
type ErrNotFound struct {
	ID int64
}

func (e ErrNotFound) Error() string {
	return "transaction not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrNotFound when the target carries no ID.
func (e ErrNotFound) Is(target error) bool {
	t, ok := target.(ErrNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
