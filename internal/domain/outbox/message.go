// Package outbox holds ledger entries waiting to be projected into the ledger store.
package outbox

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
)

// ErrUnkeyedEntry is returned for an entry that lacks its (transaction, kind) key.
var ErrUnkeyedEntry = errors.New("ledger entry needs a transaction id and a kind")

// Message carries one ledger entry from the processing transaction to the
// projection. (TransactionID, Kind) is its idempotency key.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID int64               `json:"transaction_id"`
	Kind          ledger.Kind         `json:"kind"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps entry in a PENDING message keyed by its transaction and kind.
func NewMessage(entry *ledger.Entry) (*Message, error) {
	if entry == nil || entry.TransactionID == 0 || entry.Kind == "" {
		return nil, ErrUnkeyedEntry
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: entry.TransactionID,
		Kind:          entry.Kind,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

// GetLedgerEntry decodes the ledger entry carried by the message
func (m *Message) GetLedgerEntry() (*ledger.Entry, error) {
	var entry ledger.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
