// Package locking serializes balance mutations per account.
//
// Locks live in a Registry keyed by account id, outside the account entity.
// The Coordinator always acquires them in ascending id order so two
// transactions touching the same pair of accounts cannot deadlock.
package locking

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotHeld is returned when releasing a lock nobody holds.
	ErrNotHeld = errors.New("lock not held")
	// ErrLockTimeout is returned when a single acquisition attempt times out.
	ErrLockTimeout = errors.New("lock wait timed out")
)

// Registry maps account ids to mutexes created on demand and dropped once
// nobody holds or waits for them. It is safe for concurrent use.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu    sync.Mutex
	locks map[int64]*slot
}

// slot is one account's mutex: a buffered channel of size one, held while it
// contains a token. refs counts the holder and the waiters.
type slot struct {
	ch   chan struct{}
	refs int
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[int64]*slot)}
}

// join returns the account's slot and registers the caller on it.
func (r *Registry) join(id int64) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.locks[id]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		r.locks[id] = s
	}
	s.refs++
	return s
}

// leave drops the caller's registration; the slot goes away with its last user.
func (r *Registry) leave(id int64, s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(id, s)
}

func (r *Registry) leaveLocked(id int64, s *slot) {
	s.refs--
	if s.refs == 0 {
		delete(r.locks, id)
	}
}

// TryLock waits up to timeout for the account's lock. It returns ErrLockTimeout
// when the wait runs out and ctx.Err() when ctx ends first.
func (r *Registry) TryLock(ctx context.Context, id int64, timeout time.Duration) error {
	s := r.join(id)
	if err := r.wait(ctx, s, timeout); err != nil {
		r.leave(id, s)
		return err
	}
	return nil
}

func (r *Registry) wait(ctx context.Context, s *slot, timeout time.Duration) error {
	// Fast path; also lets a zero timeout act as a pure try.
	select {
	case s.ch <- struct{}{}:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		return ErrLockTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unlock releases the account's lock.
func (r *Registry) Unlock(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.locks[id]
	if !ok {
		return ErrNotHeld
	}
	select {
	case <-s.ch:
		r.leaveLocked(id, s)
		return nil
	default:
		return ErrNotHeld
	}
}

// IsLocked reports whether the account's lock is currently held.
func (r *Registry) IsLocked(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.locks[id]
	return ok && len(s.ch) == 1
}
