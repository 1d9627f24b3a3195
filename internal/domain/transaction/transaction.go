// Package transaction models monetary transactions and their status lifecycle.
package transaction

import (
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/shopspring/decimal"
)

// Type defines the supported transaction operations
type Type string

const (
	TypeDeposit          Type = "DEPOSIT"
	TypeWithdrawal       Type = "WITHDRAWAL"
	TypeFee              Type = "FEE"
	TypeTransferOwn      Type = "TRANSFER_OWN"
	TypeTransferInternal Type = "TRANSFER_INTERNAL"
	TypeTransferExternal Type = "TRANSFER_EXTERNAL"
)

// Types lists every transaction type. Executor registries are checked against it.
func Types() []Type {
	return []Type{
		TypeDeposit,
		TypeWithdrawal,
		TypeFee,
		TypeTransferOwn,
		TypeTransferInternal,
		TypeTransferExternal,
	}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// IsTransfer reports whether t moves money between two customer accounts.
func (t Type) IsTransfer() bool {
	return t == TypeTransferOwn || t == TypeTransferInternal || t == TypeTransferExternal
}

// NeedsSource reports whether the type debits a source account.
func (t Type) NeedsSource() bool {
	return t != TypeDeposit
}

// NeedsDestination reports whether the type requires an explicit destination.
// FEE falls back to the house account.
func (t Type) NeedsDestination() bool {
	return t == TypeDeposit || t.IsTransfer()
}

// Status defines transaction processing states
type Status string

const (
	StatusNew               Status = "NEW"
	StatusPending           Status = "PENDING"
	StatusDone              Status = "DONE"
	StatusValidationError   Status = "VALIDATION_ERROR"
	StatusInsufficientFunds Status = "INSUFFICIENT_FUNDS"
	StatusFailed            Status = "FAILED"
)

// Statuses lists every status.
func Statuses() []Status {
	return []Status{
		StatusNew,
		StatusPending,
		StatusDone,
		StatusValidationError,
		StatusInsufficientFunds,
		StatusFailed,
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusValidationError, StatusInsufficientFunds, StatusFailed:
		return true
	default:
		return false
	}
}

// Transaction is a transaction with its accounts loaded, ready for processing.
// Source and Destination are borrowed for the duration of one processing run.
type Transaction struct {
	ID          int64
	Type        Type
	Source      *account.Account
	Destination *account.Account
	Amount      decimal.Decimal
	Status      Status
	Title       string
	CreatedAt   time.Time
}

// SourceID returns the source account id, or nil when there is no source.
func (t *Transaction) SourceID() *int64 {
	if t.Source == nil {
		return nil
	}
	id := t.Source.ID
	return &id
}

// DestinationID returns the destination account id, or nil when there is no destination.
func (t *Transaction) DestinationID() *int64 {
	if t.Destination == nil {
		return nil
	}
	id := t.Destination.ID
	return &id
}

// Record is the persisted form of a transaction, referencing accounts by id.
type Record struct {
	ID                   int64           `json:"id"`
	Type                 Type            `json:"type"`
	SourceAccountID      *int64          `json:"source_account_id,omitempty"`
	DestinationAccountID *int64          `json:"destination_account_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Status               Status          `json:"status"`
	Title                string          `json:"title"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// NewRecord creates a NEW transaction record. CreatedAt is set on insert.
func NewRecord(txType Type, sourceID, destinationID *int64, amount decimal.Decimal, title string) *Record {
	return &Record{
		Type:                 txType,
		SourceAccountID:      sourceID,
		DestinationAccountID: destinationID,
		Amount:               amount,
		Status:               StatusNew,
		Title:                title,
	}
}
