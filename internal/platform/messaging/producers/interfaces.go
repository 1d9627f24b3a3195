package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher handles publishing messages to a primary topic
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks messages the consumer can never handle
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, letter DeadLetter) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProcessTrigger asks the transaction processor to run a persisted NEW transaction
type ProcessTrigger interface {
	RequestProcessing(ctx context.Context, transactionID int64, correlationID string) error
	Close() error
}

var (
	_ MessagePublisher    = (*ProcessRequestProducer)(nil)
	_ ProcessTrigger      = (*ProcessRequestProducer)(nil)
	_ DeadLetterPublisher = (*DLQProducer)(nil)
)

// topicAdmin is the subset of *kafka.Conn used to provision topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}
