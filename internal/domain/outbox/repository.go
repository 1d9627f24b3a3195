package outbox

import (
	"context"
	"fmt"

	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// Repository persists outbox messages. Create participates in the caller's
// database transaction through WithTx.
type Repository interface {
	// Create inserts the message; an existing (TransactionID, Kind) yields ErrDuplicateMessage.
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	// RecordFailedAttempt counts a failed publish and, in the same statement, gives
	// the message up once maxAttempts is reached.
	RecordFailedAttempt(ctx context.Context, id int64, maxAttempts int) (AttemptOutcome, error)
	WithTx(tx pgx.Tx) Repository
}

// AttemptOutcome is the state of a message right after a failed publish was recorded
type AttemptOutcome struct {
	Attempts int
	Status   shared.OutboxStatus
}

// GaveUp reports whether the message will no longer be retried.
func (o AttemptOutcome) GaveUp() bool {
	return o.Status == shared.OutboxStatusFailedToPublish
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message not found: %d", e.ID)
}

// ErrDuplicateMessage indicates the transaction already has a message of this kind
type ErrDuplicateMessage struct {
	TransactionID int64
	Kind          ledger.Kind
}

func (e ErrDuplicateMessage) Error() string {
	return fmt.Sprintf("duplicate outbox message: %d (%s)", e.TransactionID, e.Kind)
}
