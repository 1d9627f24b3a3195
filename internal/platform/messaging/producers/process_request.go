package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// ProcessRequestProducer publishes "process transaction <id>" triggers for
// transactions that are already persisted as NEW.
type ProcessRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewProcessRequestProducer creates the trigger producer and ensures the topic exists
func NewProcessRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ProcessRequestProducer, error) {
	if cfg.ProcessTopic == "" {
		return nil, fmt.Errorf("kafka process topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for process request producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.ProcessTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure process topic %s exists: %w", cfg.ProcessTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ProcessTopic,
		Balancer:     &kafka.Hash{}, // same transaction id, same partition
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return NewProcessRequestProducerWithWriter(logger, writer, cfg.ProcessTopic), nil
}

// NewProcessRequestProducerWithWriter builds a producer on an existing writer.
func NewProcessRequestProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *ProcessRequestProducer {
	return &ProcessRequestProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Publish writes value as JSON under key.
func (p *ProcessRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal process request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish process request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published process request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

// RequestProcessing publishes a trigger for the transaction, keyed by its id.
func (p *ProcessRequestProducer) RequestProcessing(ctx context.Context, transactionID int64, correlationID string) error {
	req := shared.ProcessRequest{
		TransactionID: transactionID,
		CorrelationID: correlationID,
		RequestedAt:   time.Now().UTC(),
	}
	return p.Publish(ctx, strconv.FormatInt(transactionID, 10), req)
}

func (p *ProcessRequestProducer) Close() error {
	p.logger.Info("Closing process request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
