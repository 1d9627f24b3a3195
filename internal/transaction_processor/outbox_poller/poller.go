package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/domain/outbox"
)

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	ledgerPublisher  LedgerPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

// BatchStats counts the outcome of one polling pass
type BatchStats struct {
	Fetched   int
	Published int
	Failed    int
	GaveUp    int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	ledgerPublisher LedgerPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		ledgerPublisher:  ledgerPublisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping due to context cancellation")
			return
		case <-ticker.C:
			if _, err := p.ProcessPending(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// ProcessPending publishes one batch of pending messages. A message that keeps
// failing is given up by the repository once it reaches the attempt limit.
func (p *Poller) ProcessPending(ctx context.Context) (BatchStats, error) {
	var stats BatchStats

	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	stats.Fetched = len(messages)
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found")
		return stats, nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		err := p.ledgerPublisher.PublishToLedger(ctx, msg)
		if err == nil {
			stats.Published++
			continue
		}

		stats.Failed++
		logger := p.logger.With("outbox_id", msg.ID, "transaction_id", msg.TransactionID)
		if errors.Is(err, ErrMalformedPayload) {
			stats.GaveUp++
			continue
		}

		logger.Error("Failed to publish outbox message to ledger", "current_attempts", msg.Attempts, "error", err)
		outcome, errRecord := p.outboxRepo.RecordFailedAttempt(ctx, msg.ID, p.maxRetryAttempts)
		if errRecord != nil {
			logger.Error("Failed to record publish attempt for outbox message", "error", errRecord)
			continue
		}
		if outcome.GaveUp() {
			stats.GaveUp++
			logger.Warn("Max retry attempts reached, outbox message marked FAILED_TO_PUBLISH",
				"attempts_made", outcome.Attempts,
			)
		}
	}
	return stats, nil
}
