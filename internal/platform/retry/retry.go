// Package retry runs fallible operations with linear backoff and jitter.
//
// It is used for contention-prone operations such as account creation, where a
// conflicting writer is expected to finish shortly. It must not wrap balance
// mutations: re-running a debit or credit would apply money twice.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// ErrInvalidArgument is returned before any attempt when Options are invalid.
var ErrInvalidArgument = errors.New("invalid retry options")

// jitterFraction bounds the random part of each wait: [0, BaseDelay/jitterFraction).
const jitterFraction = 10

// Options configures a retried operation.
type Options struct {
	Operation   string        // Name reported in errors and logs
	Context     string        // Caller-supplied detail, e.g. "owner_id=7"
	MaxAttempts int           // Must be >= 1
	BaseDelay   time.Duration // Must be >= 0
	// Retryable decides whether an error is worth another attempt. Nil retries every error.
	Retryable func(error) bool
	Logger    *slog.Logger
}

// ExhaustedError is returned after the last allowed attempt failed. It wraps that failure.
type ExhaustedError struct {
	Operation string
	Context   string
	Attempts  int
	Err       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation %q failed after %d attempts (%s): %v", e.Operation, e.Attempts, e.Context, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// InterruptedError is returned when ctx ends while waiting between attempts.
type InterruptedError struct {
	Operation string
	Context   string
	Attempts  int
	Err       error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("operation %q interrupted after %d attempts (%s): %v", e.Operation, e.Attempts, e.Context, e.Err)
}

func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// sleep is swapped in tests to observe waits.
var sleep = Sleep

// Do calls op until it succeeds, returns a non-retryable error, or MaxAttempts
// attempts have failed. Failed attempt n waits BaseDelay*n plus up to 10% of
// BaseDelay of jitter before attempt n+1.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	if op == nil {
		return zero, fmt.Errorf("%w: operation is nil", ErrInvalidArgument)
	}
	if opts.MaxAttempts < 1 {
		return zero, fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidArgument, opts.MaxAttempts)
	}
	if opts.BaseDelay < 0 {
		return zero, fmt.Errorf("%w: base delay must not be negative, got %s", ErrInvalidArgument, opts.BaseDelay)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if opts.Retryable != nil && !opts.Retryable(err) {
			return zero, err
		}

		if attempt >= opts.MaxAttempts {
			return zero, &ExhaustedError{
				Operation: opts.Operation,
				Context:   opts.Context,
				Attempts:  attempt,
				Err:       err,
			}
		}

		delay := Delay(opts.BaseDelay, attempt)
		log.Debug("Retrying operation",
			"operation", opts.Operation,
			"context", opts.Context,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		if err := sleep(ctx, delay); err != nil {
			return zero, &InterruptedError{
				Operation: opts.Operation,
				Context:   opts.Context,
				Attempts:  attempt,
				Err:       err,
			}
		}
	}
}

// Delay returns the wait after failed attempt n (1-based): base*n plus jitter in [0, base/10).
func Delay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base * time.Duration(attempt)
	if bound := int64(base) / jitterFraction; bound > 0 {
		delay += time.Duration(rand.Int64N(bound))
	}
	return delay
}

// Sleep waits for d or until ctx is done, whichever comes first. It returns
// ctx.Err() when interrupted, even for a zero d.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
