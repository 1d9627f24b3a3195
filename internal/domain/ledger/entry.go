package ledger

import (
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/transaction"
)

// Kind separates regular outcome entries from entries needing manual follow-up.
type Kind string

const (
	// KindOutcome records the terminal status a transaction reached.
	KindOutcome Kind = "LEDGER_OUTCOME"
	// KindReconciliation flags a transaction whose balances moved but whose DONE status was not stored.
	KindReconciliation Kind = "RECONCILIATION"
)

// Entry is the ledger projection of a processed transaction.
// At most one entry exists per (TransactionID, Kind).
type Entry struct {
	TransactionID        int64              `json:"transaction_id" bson:"transaction_id"`
	Kind                 Kind               `json:"kind" bson:"kind"`
	Type                 transaction.Type   `json:"type" bson:"type"`
	Status               transaction.Status `json:"status" bson:"status"`
	SourceAccountID      *int64             `json:"source_account_id,omitempty" bson:"source_account_id,omitempty"`
	DestinationAccountID *int64             `json:"destination_account_id,omitempty" bson:"destination_account_id,omitempty"`
	AccountIDs           []int64            `json:"account_ids" bson:"account_ids"`
	Amount               string             `json:"amount" bson:"amount"` // Decimal string, exact
	Title                string             `json:"title,omitempty" bson:"title,omitempty"`
	Reason               string             `json:"reason,omitempty" bson:"reason,omitempty"`
	CorrelationID        string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	RecordedAt           time.Time          `json:"recorded_at" bson:"recorded_at"`
}

// NewEntry builds an entry from a transaction's current state.
func NewEntry(kind Kind, txn *transaction.Transaction, reason, correlationID string) *Entry {
	entry := &Entry{
		TransactionID:        txn.ID,
		Kind:                 kind,
		Type:                 txn.Type,
		Status:               txn.Status,
		SourceAccountID:      txn.SourceID(),
		DestinationAccountID: txn.DestinationID(),
		AccountIDs:           []int64{},
		Amount:               txn.Amount.String(),
		Title:                txn.Title,
		Reason:               reason,
		CorrelationID:        correlationID,
		CreatedAt:            txn.CreatedAt,
		RecordedAt:           time.Now().UTC(),
	}
	if entry.SourceAccountID != nil {
		entry.AccountIDs = append(entry.AccountIDs, *entry.SourceAccountID)
	}
	if entry.DestinationAccountID != nil {
		entry.AccountIDs = append(entry.AccountIDs, *entry.DestinationAccountID)
	}
	return entry
}
