package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/bankapp-ledger-engine/internal/domain/outbox"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
)

// ErrMalformedPayload marks an outbox message that can never be published
var ErrMalformedPayload = errors.New("malformed outbox payload")

// LedgerPublisher publishes outbox messages to ledger
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

// LedgerPublisherImpl projects outbox messages into the ledger store
type LedgerPublisherImpl struct {
	outboxRepo outbox.Repository
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

// NewLedgerPublisher creates a new publisher
func NewLedgerPublisher(
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	logger *slog.Logger,
) *LedgerPublisherImpl {
	return &LedgerPublisherImpl{
		outboxRepo: outboxRepo,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// PublishToLedger writes the message's entry and marks the message PROCESSED.
// An entry that already exists for the same transaction and kind counts as published.
func (p *LedgerPublisherImpl) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "transaction_id", message.TransactionID, "kind", message.Kind)

	entry, err := message.GetLedgerEntry()
	if err != nil {
		logger.Error("Failed to unmarshal ledger entry from outbox payload", "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			logger.Error("Also failed to mark outbox message FAILED_TO_PUBLISH", "update_error", updateErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrMalformedPayload, message.ID, err)
	}

	if entry.CorrelationID != "" {
		logger = logger.With("correlation_id", entry.CorrelationID)
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	err = p.ledgerRepo.Create(ctx, entry)
	switch {
	case errors.Is(err, ledger.ErrDuplicateEntry{}):
		logger.Info("Ledger entry already exists")
	case err != nil:
		logger.Error("Failed to create ledger entry", "error", err)
		return fmt.Errorf("failed to create ledger entry for transaction %d: %w", message.TransactionID, err)
	default:
		logger.Info("Created ledger entry", "status", entry.Status)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to mark outbox message PROCESSED", "error", err)
		return fmt.Errorf("ledger write for %d OK, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}
	return nil
}
