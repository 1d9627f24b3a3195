// Package sweeper periodically processes transactions left in NEW, covering
// lost triggers and transactions whose lock attempts timed out.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

// BatchProcessor processes every NEW transaction it can find
type BatchProcessor interface {
	ProcessAllNew(ctx context.Context) (service.BatchSummary, error)
}

type Sweeper struct {
	processor BatchProcessor
	interval  time.Duration
	logger    *slog.Logger
}

func NewSweeper(processor BatchProcessor, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		processor: processor,
		interval:  interval,
		logger:    logger.With("component", "sweeper"),
	}
}

// Enabled reports whether a sweep interval is configured.
func (s *Sweeper) Enabled() bool {
	return s.interval > 0
}

// Start sweeps on every tick until ctx is canceled. It returns immediately when disabled.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info("Sweeper disabled")
		return
	}

	s.logger.Info("Starting sweeper", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopping due to context cancellation")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over NEW transactions.
func (s *Sweeper) Sweep(ctx context.Context) service.BatchSummary {
	summary, err := s.processor.ProcessAllNew(ctx)
	if err != nil {
		s.logger.Error("Sweep failed", "error", err)
		return summary
	}
	if summary.Picked == 0 {
		s.logger.Debug("No NEW transactions to sweep")
		return summary
	}

	s.logger.Info("Sweep finished",
		"picked", summary.Picked,
		"done", summary.Done,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"lock_failures", summary.Failures[service.FailureLock],
		"insufficient_funds", summary.Failures[service.FailureInsufficientFunds],
	)
	return summary
}
