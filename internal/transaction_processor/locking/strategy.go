package locking

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/platform/retry"
)

// ErrLockAcquisition matches every *LockError.
var ErrLockAcquisition = errors.New("account lock acquisition failed")

// LockError reports an account lock that could not be acquired. No balance
// has moved when it is returned, so the whole transaction may be retried.
type LockError struct {
	AccountID   int64
	Attempts    int
	Waited      time.Duration
	Interrupted bool
	Err         error
}

func (e *LockError) Error() string {
	if e.Interrupted {
		return fmt.Sprintf("lock on account %d interrupted after %d attempts (waited %s): %v",
			e.AccountID, e.Attempts, e.Waited, e.Err)
	}
	return fmt.Sprintf("failed to lock account %d after %d attempts (waited %s)",
		e.AccountID, e.Attempts, e.Waited)
}

func (e *LockError) Is(target error) bool {
	return target == ErrLockAcquisition
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// Strategy bounds the wait for one account lock.
type Strategy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

// StrategyFromConfig builds a Strategy from the locking configuration.
func StrategyFromConfig(cfg config.LockingConfig) Strategy {
	return Strategy{
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: cfg.AttemptTimeout,
		BaseDelay:      cfg.BaseDelay,
		MaxDelay:       cfg.MaxDelay,
	}
}

// Acquire locks id in reg, making up to MaxAttempts timed attempts separated by backoff.
func (s Strategy) Acquire(ctx context.Context, reg *Registry, id int64) error {
	maxAttempts := s.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()
	for attempt := 1; ; attempt++ {
		err := reg.TryLock(ctx, id, s.AttemptTimeout)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrLockTimeout) {
			return &LockError{AccountID: id, Attempts: attempt, Waited: time.Since(start), Interrupted: true, Err: err}
		}
		if attempt >= maxAttempts {
			return &LockError{AccountID: id, Attempts: attempt, Waited: time.Since(start), Err: err}
		}

		if err := retry.Sleep(ctx, s.Backoff(attempt-1)); err != nil {
			return &LockError{AccountID: id, Attempts: attempt, Waited: time.Since(start), Interrupted: true, Err: err}
		}
	}
}

// Backoff returns the pause after the n-th failed attempt (0-based):
// min(MaxDelay, BaseDelay*2^n) with +/-25% jitter.
func (s Strategy) Backoff(n int) time.Duration {
	if s.BaseDelay <= 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	if n > 30 {
		n = 30
	}

	delay := s.BaseDelay << n
	if s.MaxDelay > 0 && (delay > s.MaxDelay || delay <= 0) {
		delay = s.MaxDelay
	}

	quarter := int64(delay) / 4
	if quarter > 0 {
		delay += time.Duration(rand.Int64N(2*quarter+1) - quarter)
	}
	return delay
}
