package consumers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/platform/retry"
	"github.com/segmentio/kafka-go"
)

const fetchRetryDelay = time.Second

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

var _ Consumer = (*KafkaConsumer)(nil)

// KafkaReader is the subset of *kafka.Reader the consumer uses
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using a Kafka consumer group. Offsets are
// committed only after the handler succeeds.
type KafkaConsumer struct {
	reader  KafkaReader
	topic   string
	groupID string
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset != 0 {
		startOffset = cfg.StartOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       cfg.ProcessTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	})
	return NewKafkaConsumerWithReader(logger, reader, cfg.ProcessTopic, cfg.ConsumerGroup)
}

// NewKafkaConsumerWithReader builds a consumer on an existing reader.
func NewKafkaConsumerWithReader(logger *slog.Logger, reader KafkaReader, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		topic:   topic,
		groupID: groupID,
		logger:  logger.With("topic", topic, "group_id", groupID),
	}
}

// Subscribe starts consuming in the background until ctx is canceled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consume(ctx, handler)
	}()

	return nil
}

func (c *KafkaConsumer) consume(ctx context.Context, handler MessageHandler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Context canceled, stopping consumer")
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "error", err)
			if sleepErr := retry.Sleep(ctx, fetchRetryDelay); sleepErr != nil {
				return
			}
			continue
		}

		msgLogger := c.logger.With(
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)
		msgLogger.Debug("Received message from Kafka")

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			// The offset stays uncommitted; the sweeper picks up anything left NEW
			msgLogger.Error("Failed to process message, will not commit offset", "error", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			msgLogger.Error("Failed to commit message after successful processing", "error", err)
		} else {
			msgLogger.Debug("Message committed successfully")
		}
	}
}

// Close stops the reader and waits for the consume loop to exit.
func (c *KafkaConsumer) Close() error {
	if c.reader == nil {
		return nil
	}
	err := c.reader.Close()
	c.wg.Wait()
	return err
}
