package components

import (
	"context"
	"fmt"

	"github.com/bankapp-ledger-engine/internal/domain/account"
)

// HouseAccountResolverImpl loads the configured bank-owned account used as
// counterparty for fees without a destination.
type HouseAccountResolverImpl struct {
	accountRepo account.Repository
	accountID   int64
}

func NewHouseAccountResolver(accountRepo account.Repository, houseAccountID int64) *HouseAccountResolverImpl {
	return &HouseAccountResolverImpl{
		accountRepo: accountRepo,
		accountID:   houseAccountID,
	}
}

// GetDefaultAccount returns a freshly loaded copy of the house account.
func (r *HouseAccountResolverImpl) GetDefaultAccount(ctx context.Context) (*account.Account, error) {
	acc, err := r.accountRepo.GetByID(ctx, r.accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load house account %d: %w", r.accountID, err)
	}
	return acc, nil
}
