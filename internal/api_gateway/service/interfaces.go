package service

import (
	"context"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount opens an account for the owner and bumps the owner's account count.
	// Returns ErrOwnerNotFound if the owner doesn't exist
	CreateAccount(ctx context.Context, ownerID int64, initialBalance decimal.Decimal) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id int64) (*account.Account, error)

	// GetLedgerByAccountID retrieves the paginated ledger entries touching an account
	// Returns entries, total count of all entries, and any error
	GetLedgerByAccountID(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.Entry, int64, error)
}

// TransactionService defines the interface for transaction operations
type TransactionService interface {
	// CreateTransaction stores a NEW transaction and asks the processor to run it
	CreateTransaction(ctx context.Context, input CreateTransactionInput) (*transaction.Record, error)

	// GetTransactionByID retrieves a transaction by its ID
	// Returns ErrNotFound if the transaction doesn't exist
	GetTransactionByID(ctx context.Context, id int64) (*transaction.Record, error)

	// RequestProcessing publishes a new trigger for a transaction that is still NEW
	RequestProcessing(ctx context.Context, id int64) (*transaction.Record, error)

	// GetLedgerEntries returns the ledger entries recorded for a transaction
	GetLedgerEntries(ctx context.Context, transactionID int64) ([]*ledger.Entry, error)
}

// TxRunner runs fn inside a database transaction, committing when fn returns nil.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// CreateTransactionInput carries the fields a caller supplies for a new transaction
type CreateTransactionInput struct {
	Type                 transaction.Type
	SourceAccountID      *int64
	DestinationAccountID *int64
	Amount               decimal.Decimal
	Title                string
}
