package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/execution"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountOperationsImpl applies debits and credits to borrowed accounts and
// persists them. Callers hold the account's lock.
type AccountOperationsImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewAccountOperations creates a new AccountOperationsImpl
func NewAccountOperations(accountRepo account.Repository, logger *slog.Logger) *AccountOperationsImpl {
	return &AccountOperationsImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// WithTx returns operations writing through tx. A nil tx keeps the current repository.
func (m *AccountOperationsImpl) WithTx(tx pgx.Tx) execution.AccountOperations {
	if tx == nil {
		return m
	}
	return &AccountOperationsImpl{
		accountRepo: m.accountRepo.WithTx(tx),
		logger:      m.logger,
	}
}

// Debit subtracts amount from acc. Insufficient funds leave acc unchanged.
func (m *AccountOperationsImpl) Debit(ctx context.Context, acc *account.Account, amount decimal.Decimal) error {
	return m.apply(ctx, acc, "debit", amount, acc.Debit)
}

// Credit adds amount to acc.
func (m *AccountOperationsImpl) Credit(ctx context.Context, acc *account.Account, amount decimal.Decimal) error {
	return m.apply(ctx, acc, "credit", amount, acc.Credit)
}

func (m *AccountOperationsImpl) apply(ctx context.Context, acc *account.Account, op string, amount decimal.Decimal, mutate func(decimal.Decimal) error) error {
	// The account may have been loaded before its lock was taken; work on the stored state.
	if err := m.refresh(ctx, acc); err != nil {
		return err
	}

	before := *acc
	if err := mutate(amount); err != nil {
		m.logger.Info("Account operation rejected", "op", op, "account_id", acc.ID, "amount", amount.String(), "balance", acc.Balance.String(), "error", err)
		return err
	}

	if err := m.accountRepo.Save(ctx, acc); err != nil {
		*acc = before
		m.logger.Error("Failed to save account", "op", op, "account_id", acc.ID, "error", err)
		return fmt.Errorf("failed to save account %d after %s: %w", acc.ID, op, err)
	}

	m.logger.Debug("Account updated", "op", op, "account_id", acc.ID, "amount", amount.String(), "balance", acc.Balance.String(), "version", acc.Version)
	return nil
}

func (m *AccountOperationsImpl) refresh(ctx context.Context, acc *account.Account) error {
	stored, err := m.accountRepo.GetByID(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to load account %d: %w", acc.ID, err)
	}
	acc.Balance = stored.Balance
	acc.Version = stored.Version
	acc.UpdatedAt = stored.UpdatedAt
	return nil
}
