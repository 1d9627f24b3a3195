package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bankapp-ledger-engine/internal/domain/account"
)

var (
	// ErrUnlock matches every *UnlockError.
	ErrUnlock = errors.New("account unlock failed")
	// ErrSameAccount is returned when source and destination are the same account.
	ErrSameAccount = errors.New("source and destination are the same account")
)

// UnlockError reports a lock the coordinator believed it held but could not release.
type UnlockError struct {
	AccountID int64
	Err       error
}

func (e *UnlockError) Error() string {
	return fmt.Sprintf("failed to unlock account %d: %v", e.AccountID, e.Err)
}

func (e *UnlockError) Is(target error) bool {
	return target == ErrUnlock
}

func (e *UnlockError) Unwrap() error {
	return e.Err
}

type role int

const (
	roleSource role = iota
	roleDestination
)

type heldLock struct {
	accountID int64
	role      role
}

// Held lists the locks acquired by one Lock call, in acquisition order.
// After a failed Lock it still lists whatever was acquired before the failure.
type Held struct {
	locks []heldLock
}

// IDs returns the locked account ids in acquisition order.
func (h *Held) IDs() []int64 {
	if h == nil {
		return nil
	}
	ids := make([]int64, 0, len(h.locks))
	for _, l := range h.locks {
		ids = append(ids, l.accountID)
	}
	return ids
}

// Empty reports whether nothing is held.
func (h *Held) Empty() bool {
	return h == nil || len(h.locks) == 0
}

// Stats is a snapshot of the coordinator's counters.
type Stats struct {
	Locks   int64
	Unlocks int64
}

// Coordinator acquires and releases the locks of a transaction's accounts.
type Coordinator struct {
	registry *Registry
	strategy Strategy
	logger   *slog.Logger

	locks   atomic.Int64
	unlocks atomic.Int64
}

func NewCoordinator(registry *Registry, strategy Strategy, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		registry: registry,
		strategy: strategy,
		logger:   logger,
	}
}

// Lock locks source and destination, smaller account id first. Either may be nil.
// The returned Held is never nil, also on error, and must be passed to Unlock.
func (c *Coordinator) Lock(ctx context.Context, source, destination *account.Account) (*Held, error) {
	held := &Held{}

	var order []heldLock
	switch {
	case source != nil && destination != nil:
		if source.ID == destination.ID {
			return held, fmt.Errorf("%w: %d", ErrSameAccount, source.ID)
		}
		src := heldLock{accountID: source.ID, role: roleSource}
		dst := heldLock{accountID: destination.ID, role: roleDestination}
		if src.accountID < dst.accountID {
			order = []heldLock{src, dst}
		} else {
			order = []heldLock{dst, src}
		}
	case source != nil:
		order = []heldLock{{accountID: source.ID, role: roleSource}}
	case destination != nil:
		order = []heldLock{{accountID: destination.ID, role: roleDestination}}
	}

	for _, l := range order {
		if err := c.strategy.Acquire(ctx, c.registry, l.accountID); err != nil {
			c.logger.Debug("Account lock failed", "account_id", l.accountID, "error", err)
			return held, err
		}
		held.locks = append(held.locks, l)
		c.locks.Add(1)
		c.logger.Debug("Account locked", "account_id", l.accountID)
	}

	return held, nil
}

// Unlock releases the locks in h, destination before source. Every lock is
// attempted even if an earlier release fails. h is emptied, so a second call is a no-op.
func (c *Coordinator) Unlock(h *Held) error {
	if h.Empty() {
		return nil
	}

	var errs []error
	for _, r := range []role{roleDestination, roleSource} {
		for _, l := range h.locks {
			if l.role != r {
				continue
			}
			if err := c.registry.Unlock(l.accountID); err != nil {
				errs = append(errs, &UnlockError{AccountID: l.accountID, Err: err})
				continue
			}
			c.unlocks.Add(1)
			c.logger.Debug("Account unlocked", "account_id", l.accountID)
		}
	}
	h.locks = nil

	return errors.Join(errs...)
}

// Stats returns the number of locks acquired and released by this coordinator.
func (c *Coordinator) Stats() Stats {
	return Stats{Locks: c.locks.Load(), Unlocks: c.unlocks.Load()}
}
