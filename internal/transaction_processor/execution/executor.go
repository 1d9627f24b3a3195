// Package execution applies the balance effects of each transaction type.
package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// ErrMissingAccount is returned when a transaction lacks an account its type requires.
var ErrMissingAccount = errors.New("transaction is missing a required account")

// AccountOperations mutates and persists account balances. Debit must return
// account.ErrInsufficientFunds rather than let a balance go negative.
type AccountOperations interface {
	Debit(ctx context.Context, acc *account.Account, amount decimal.Decimal) error
	Credit(ctx context.Context, acc *account.Account, amount decimal.Decimal) error
}

// Executor applies one transaction type. Execute runs while the transaction is
// PENDING and the locks of all its accounts are held.
type Executor interface {
	Type() transaction.Type
	Execute(ctx context.Context, txn *transaction.Transaction, ops AccountOperations) error
}

// Preparer is implemented by executors that attach accounts to the transaction.
// Prepare runs before locking so attached accounts are locked as well.
type Preparer interface {
	Prepare(ctx context.Context, txn *transaction.Transaction) error
}

// HouseAccountResolver returns the bank-owned counterparty for fees.
type HouseAccountResolver interface {
	GetDefaultAccount(ctx context.Context) (*account.Account, error)
}

type depositExecutor struct{}

func (depositExecutor) Type() transaction.Type { return transaction.TypeDeposit }

func (depositExecutor) Execute(ctx context.Context, txn *transaction.Transaction, ops AccountOperations) error {
	if txn.Destination == nil {
		return fmt.Errorf("%w: deposit %d has no destination", ErrMissingAccount, txn.ID)
	}
	return ops.Credit(ctx, txn.Destination, txn.Amount)
}

type withdrawalExecutor struct{}

func (withdrawalExecutor) Type() transaction.Type { return transaction.TypeWithdrawal }

func (withdrawalExecutor) Execute(ctx context.Context, txn *transaction.Transaction, ops AccountOperations) error {
	if txn.Source == nil {
		return fmt.Errorf("%w: withdrawal %d has no source", ErrMissingAccount, txn.ID)
	}
	return ops.Debit(ctx, txn.Source, txn.Amount)
}

// transferExecutor debits before it credits: insufficient funds is detected
// before the destination is touched.
type transferExecutor struct {
	txType transaction.Type
}

func (e transferExecutor) Type() transaction.Type { return e.txType }

func (e transferExecutor) Execute(ctx context.Context, txn *transaction.Transaction, ops AccountOperations) error {
	return debitThenCredit(ctx, txn, ops)
}

type feeExecutor struct {
	houseAccounts HouseAccountResolver
}

func (feeExecutor) Type() transaction.Type { return transaction.TypeFee }

// Prepare attaches the house account when the fee has no destination.
func (e feeExecutor) Prepare(ctx context.Context, txn *transaction.Transaction) error {
	if txn.Destination != nil {
		return nil
	}
	if e.houseAccounts == nil {
		return fmt.Errorf("%w: fee %d has no destination and no house account resolver", ErrMissingAccount, txn.ID)
	}

	house, err := e.houseAccounts.GetDefaultAccount(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve house account for fee %d: %w", txn.ID, err)
	}
	txn.Destination = house
	return nil
}

// Execute expects Prepare to have run: the house account is only credited
// when it was locked along with the source.
func (feeExecutor) Execute(ctx context.Context, txn *transaction.Transaction, ops AccountOperations) error {
	if txn.Destination == nil {
		return fmt.Errorf("%w: fee %d was not prepared with a destination", ErrMissingAccount, txn.ID)
	}
	return debitThenCredit(ctx, txn, ops)
}

func debitThenCredit(ctx context.Context, txn *transaction.Transaction, ops AccountOperations) error {
	if txn.Source == nil || txn.Destination == nil {
		return fmt.Errorf("%w: %s %d needs source and destination", ErrMissingAccount, txn.Type, txn.ID)
	}
	if err := ops.Debit(ctx, txn.Source, txn.Amount); err != nil {
		return err
	}
	return ops.Credit(ctx, txn.Destination, txn.Amount)
}

// DefaultExecutors returns one executor per transaction type.
func DefaultExecutors(houseAccounts HouseAccountResolver) []Executor {
	return []Executor{
		depositExecutor{},
		withdrawalExecutor{},
		feeExecutor{houseAccounts: houseAccounts},
		transferExecutor{txType: transaction.TypeTransferOwn},
		transferExecutor{txType: transaction.TypeTransferInternal},
		transferExecutor{txType: transaction.TypeTransferExternal},
	}
}
