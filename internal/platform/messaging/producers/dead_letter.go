package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/segmentio/kafka-go"
)

// ErrDLQDisabled is returned when publishing through a producer that was never initialized
var ErrDLQDisabled = errors.New("DLQ producer not initialized")

const (
	headerDLQReason     = "dlq-reason"
	headerCorrelationID = "correlation-id"
)

// DeadLetter is a consumed message together with why it was rejected.
type DeadLetter struct {
	Key           []byte
	Value         []byte
	Reason        string
	Cause         error
	CorrelationID string
}

// deadLetterRecord is the JSON body written to the DLQ topic
type deadLetterRecord struct {
	Key            string    `json:"key"`
	Value          string    `json:"value"`
	Reason         string    `json:"reason"`
	Cause          string    `json:"cause,omitempty"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	DeadLetteredAt time.Time `json:"dead_lettered_at"`
}

func (l DeadLetter) message(now time.Time) (kafka.Message, error) {
	record := deadLetterRecord{
		Key:            string(l.Key),
		Value:          string(l.Value),
		Reason:         l.Reason,
		CorrelationID:  l.CorrelationID,
		DeadLetteredAt: now.UTC(),
	}
	if l.Cause != nil {
		record.Cause = l.Cause.Error()
	}

	body, err := json.Marshal(record)
	if err != nil {
		return kafka.Message{}, err
	}

	headers := []kafka.Header{{Key: headerDLQReason, Value: []byte(l.Reason)}}
	if l.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: headerCorrelationID, Value: []byte(l.CorrelationID)})
	}
	return kafka.Message{Key: l.Key, Value: body, Headers: headers, Time: now}, nil
}

// DLQProducer writes dead letters to the configured DLQ topic
type DLQProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
	now    func() time.Time
}

// NewDLQProducer provisions the DLQ topic and opens a writer for it. It
// returns a nil producer when cfg.DLQTopic is empty.
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic is not configured, dead letters will not be published")
		return nil, nil
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for dlq producer: %w", err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, cfg.DLQTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	return NewDLQProducerWithWriter(logger, &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}, cfg.DLQTopic), nil
}

func NewDLQProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *DLQProducer {
	return &DLQProducer{
		logger: logger.With("topic", topic),
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

func (p *DLQProducer) PublishToDLQ(ctx context.Context, letter DeadLetter) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	msg, err := letter.message(p.now())
	if err != nil {
		return fmt.Errorf("failed to encode dead letter: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish dead letter", "key", string(letter.Key), "error", err)
		return fmt.Errorf("failed to publish message to DLQ %s: %w", p.topic, err)
	}

	p.logger.Warn("Published dead letter",
		"key", string(letter.Key),
		"reason", letter.Reason,
		"correlation_id", letter.CorrelationID,
	)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dlq kafka writer for topic %s: %w", p.topic, err)
	}
	p.logger.Info("Closed DLQ producer")
	return nil
}
