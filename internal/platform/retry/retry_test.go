package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

// recordSleeps replaces the package sleep and returns the recorded waits.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var mu sync.Mutex
	waits := []time.Duration{}
	original := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = original })
	return &waits
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	waits := recordSleeps(t)
	calls := 0

	got, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, Options{Operation: "create-account", MaxAttempts: 3, BaseDelay: time.Second})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestDo_RecoversAfterFailures(t *testing.T) {
	waits := recordSleeps(t)
	calls := 0

	got, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	}, Options{Operation: "op", MaxAttempts: 5, BaseDelay: 100 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	require.Len(t, *waits, 2)
	assert.GreaterOrEqual(t, (*waits)[0], 100*time.Millisecond)
	assert.Less(t, (*waits)[0], 110*time.Millisecond)
	assert.GreaterOrEqual(t, (*waits)[1], 200*time.Millisecond)
	assert.Less(t, (*waits)[1], 210*time.Millisecond)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 2, 4} {
		waits := recordSleeps(t)
		calls := 0

		_, err := Do(context.Background(), func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, errTransient
		}, Options{Operation: "bump-owner", Context: "owner_id=7", MaxAttempts: maxAttempts, BaseDelay: time.Millisecond})

		require.Error(t, err)
		assert.Equal(t, maxAttempts, calls, "operation runs at most MaxAttempts times")
		assert.Len(t, *waits, maxAttempts-1, "no wait after the last attempt")

		var exhausted *ExhaustedError
		require.True(t, errors.As(err, &exhausted))
		assert.Equal(t, maxAttempts, exhausted.Attempts)
		assert.Equal(t, "bump-owner", exhausted.Operation)
		assert.Equal(t, "owner_id=7", exhausted.Context)
		assert.ErrorIs(t, err, errTransient)
		assert.Contains(t, err.Error(), "owner_id=7")
	}
}

func TestDo_SingleAttemptNeverSleeps(t *testing.T) {
	waits := recordSleeps(t)

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		return 0, errTransient
	}, Options{Operation: "once", MaxAttempts: 1, BaseDelay: time.Hour})

	require.Error(t, err)
	assert.Empty(t, *waits)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	waits := recordSleeps(t)
	permanent := errors.New("owner not found")
	calls := 0

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, permanent
	}, Options{
		Operation:   "op",
		MaxAttempts: 3,
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestDo_InvalidArguments(t *testing.T) {
	op := func(context.Context) (int, error) {
		t.Fatal("operation must not run")
		return 0, nil
	}

	testCases := []struct {
		name string
		opts Options
	}{
		{"zero attempts", Options{MaxAttempts: 0}},
		{"negative attempts", Options{MaxAttempts: -2}},
		{"negative delay", Options{MaxAttempts: 1, BaseDelay: -time.Millisecond}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Do(context.Background(), op, tc.opts)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := Do[int](context.Background(), nil, Options{MaxAttempts: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDo_InterruptedWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	start := time.Now()
	_, err := Do(ctx, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	}, Options{Operation: "op", Context: "owner_id=7", MaxAttempts: 5, BaseDelay: time.Minute})

	assert.Less(t, time.Since(start), time.Second, "interruption must not wait out the delay")
	assert.Equal(t, 1, calls)
	var interrupted *InterruptedError
	require.True(t, errors.As(err, &interrupted))
	assert.Equal(t, 1, interrupted.Attempts)
	assert.Equal(t, "owner_id=7", interrupted.Context)
	assert.Contains(t, err.Error(), "(owner_id=7)")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay(t *testing.T) {
	assert.Zero(t, Delay(0, 3))
	for attempt := 1; attempt <= 4; attempt++ {
		d := Delay(50*time.Millisecond, attempt)
		assert.GreaterOrEqual(t, d, time.Duration(attempt)*50*time.Millisecond)
		assert.Less(t, d, time.Duration(attempt)*50*time.Millisecond+5*time.Millisecond)
	}
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
	require.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
