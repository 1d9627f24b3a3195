package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNegativeBalance   = errors.New("initial balance cannot be negative")
	ErrInvalidOwner      = errors.New("owner id must be positive")
)

// InsufficientFundsError reports a debit that would take a balance below zero.
type InsufficientFundsError struct {
	AccountID int64
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %d: balance %s, requested %s",
		e.AccountID, e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

// Is makes errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Account represents a bank account. It carries no lock; mutual exclusion is
// keyed by ID in the processor's lock registry.
type Account struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int             `json:"version"` // For optimistic locking
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates an account for the owner with the given opening balance.
// ID is assigned by the repository.
func NewAccount(ownerID int64, initialBalance decimal.Decimal) (*Account, error) {
	if ownerID <= 0 {
		return nil, ErrInvalidOwner
	}
	if initialBalance.IsNegative() {
		return nil, ErrNegativeBalance
	}

	now := time.Now()
	return &Account{
		OwnerID:   ownerID,
		Balance:   initialBalance,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
	return nil
}

// Debit subtracts amount from the balance. The balance never goes negative.
func (a *Account) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !a.CanDebit(amount) {
		return &InsufficientFundsError{AccountID: a.ID, Balance: a.Balance, Requested: amount}
	}

	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	return nil
}

// CanDebit checks if the account has sufficient funds for a debit
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Owner is the holder of one or more accounts. AccountCount is bumped on
// every account creation under a row lock and a version check.
type Owner struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	AccountCount int       `json:"account_count"`
	Version      int       `json:"version"`
	UpdatedAt    time.Time `json:"updated_at"`
}
