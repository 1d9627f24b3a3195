package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/bankapp-ledger-engine/internal/platform/retry"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	db          TxRunner
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	retryCfg    config.RetryConfig
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	logger *slog.Logger,
	db TxRunner,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	retryCfg config.RetryConfig,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		db:          db,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		retryCfg:    retryCfg,
		logger:      logger,
	}
}

// CreateAccount locks the owner row, inserts the account and bumps the owner's
// account count in one database transaction. Concurrent creations for the same
// owner surface as ErrConcurrentModification and are retried with backoff.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, ownerID int64, initialBalance decimal.Decimal) (*account.Account, error) {
	if _, err := account.NewAccount(ownerID, initialBalance); err != nil {
		return nil, err
	}

	opts := retry.Options{
		Operation:   "create_account",
		Context:     fmt.Sprintf("owner_id=%d", ownerID),
		MaxAttempts: s.retryCfg.MaxAttempts,
		BaseDelay:   s.retryCfg.BaseDelay,
		Retryable: func(err error) bool {
			return errors.Is(err, account.ErrConcurrentModification{})
		},
		Logger: s.logger,
	}

	acc, err := retry.Do(ctx, func(ctx context.Context) (*account.Account, error) {
		return s.createAccountOnce(ctx, ownerID, initialBalance)
	}, opts)
	if err != nil {
		s.logger.Error("Failed to create account", "owner_id", ownerID, "error", err)
		return nil, err
	}

	s.logger.Info("Account created", "account_id", acc.ID, "owner_id", ownerID, "balance", acc.Balance.StringFixed(2))
	return acc, nil
}

func (s *AccountServiceImpl) createAccountOnce(ctx context.Context, ownerID int64, initialBalance decimal.Decimal) (*account.Account, error) {
	var created *account.Account
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.accountRepo.WithTx(tx)

		owner, err := repo.LockOwner(ctx, ownerID)
		if err != nil {
			return err
		}

		acc, err := account.NewAccount(ownerID, initialBalance)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, acc); err != nil {
			return err
		}

		owner.AccountCount++
		if err := repo.SaveOwner(ctx, owner); err != nil {
			return err
		}

		created = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id int64) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// GetLedgerByAccountID retrieves one page of ledger entries for an account, newest first
func (s *AccountServiceImpl) GetLedgerByAccountID(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.ledgerRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
