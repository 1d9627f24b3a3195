package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/platform/messaging/producers"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
	"github.com/google/uuid"
)

// ProcessRequestHandler runs the transaction named by each process request message
type ProcessRequestHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewProcessRequestHandler creates a new handler. producer may be nil when the DLQ is disabled.
func NewProcessRequestHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *ProcessRequestHandler {
	return &ProcessRequestHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes one Kafka message. A nil return commits the offset.
func (h *ProcessRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ProcessRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, producers.DeadLetter{Key: key, Value: value, Reason: "failed to unmarshal process request", Cause: err})
	}
	if err := request.Validate(); err != nil {
		return h.deadLetter(ctx, producers.DeadLetter{
			Key: key, Value: value, Reason: "invalid process request", Cause: err, CorrelationID: request.CorrelationID,
		})
	}

	if request.CorrelationID == "" {
		request.CorrelationID = uuid.NewString()
	}
	ctx = shared.WithCorrelationID(ctx, request.CorrelationID)
	logger := h.logger.With("correlation_id", request.CorrelationID, "transaction_id", request.TransactionID)

	logger.Info("Received process request", "requested_at", request.RequestedAt)

	result, err := h.processingService.ProcessByID(ctx, request.TransactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound{}) {
			return h.deadLetter(ctx, producers.DeadLetter{
				Key: key, Value: value, Reason: "transaction not found", Cause: err, CorrelationID: request.CorrelationID,
			})
		}
		logger.Error("Failed to process transaction", "error", err)
		return fmt.Errorf("processing transaction %d failed: %w", request.TransactionID, err)
	}

	switch {
	case result.Skipped:
		logger.Info("Transaction was already processed", "status", result.Status)
	case result.Retryable():
		logger.Warn("Transaction left for a later sweep", "failure", result.Failure.String(), "cause", result.Cause)
	case !result.OK():
		logger.Info("Transaction finished with failure", "status", result.Status, "failure", result.Failure.String())
	default:
		logger.Info("Successfully processed transaction", "status", result.Status)
	}
	return nil
}

// deadLetter parks a message that can never be processed. If the DLQ is
// unavailable the error is returned so the offset is not committed.
func (h *ProcessRequestHandler) deadLetter(ctx context.Context, letter producers.DeadLetter) error {
	logger := h.logger.With("reason", letter.Reason, "message_key", string(letter.Key))
	logger.Error("Unprocessable process request", "error", letter.Cause)

	if h.producer != nil {
		dlqErr := h.producer.PublishToDLQ(ctx, letter)
		if dlqErr == nil {
			return nil
		}
		logger.Error("Failed to publish message to DLQ", "dlq_error", dlqErr)
	}
	return fmt.Errorf("%s: %w", letter.Reason, letter.Cause)
}
