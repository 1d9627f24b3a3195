// Package config provides configuration structures and validation for the ledger engine.
// Both binaries (transaction processor and api gateway) share one Config; each group is
// validated at startup so a misconfigured engine never starts processing money.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Locking     LockingConfig
	Retry       RetryConfig
	Bank        BankConfig
	Processing  ProcessingConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings for the ops API
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains Kafka configuration for processing triggers and the DLQ
type KafkaConfig struct {
	Brokers           string
	ProcessTopic      string // Topic carrying "process transaction <id>" triggers
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration for the ledger projection
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox poller configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// LockingConfig bounds how long a transaction waits for an account lock.
// Each of MaxAttempts attempts waits at most AttemptTimeout; attempts are separated
// by an exponential backoff starting at BaseDelay and capped at MaxDelay.
type LockingConfig struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

// RetryConfig configures retried operations outside the processing pipeline (account creation).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// BankConfig identifies system-owned accounts.
type BankConfig struct {
	HouseAccountID int64 // Counterparty for FEE transactions without a destination
}

// ProcessingConfig drives the periodic sweep over NEW transactions.
type ProcessingConfig struct {
	SweepInterval time.Duration // 0 disables the sweep
	BatchSize     int
}

// validate performs validation of all configuration values and reports every
// violation at once.
func (c *Config) validate() error {
	var validationErrors []string
	add := func(cond bool, msg string) {
		if cond {
			validationErrors = append(validationErrors, msg)
		}
	}

	// Server
	add(c.Server.Port <= 0, "SERVER_PORT must be greater than 0")
	add(c.Server.ShutdownTimeout <= 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	add(c.Server.ReadTimeout <= 0, "SERVER_READ_TIMEOUT must be greater than 0")
	add(c.Server.WriteTimeout <= 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	add(c.Server.IdleTimeout <= 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	// Kafka
	add(c.Kafka.Brokers == "", "KAFKA_BROKERS is required")
	add(c.Kafka.ProcessTopic == "", "KAFKA_PROCESS_TOPIC is required")
	add(c.Kafka.ConsumerGroup == "", "KAFKA_CONSUMER_GROUP is required")
	add(c.Kafka.MinBytes <= 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	add(c.Kafka.MaxBytes <= 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	add(c.Kafka.MaxWait <= 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	add(c.Kafka.DLQTopic == "", "KAFKA_DLQ_TOPIC is required")

	// PostgreSQL
	add(c.Postgres.URL == "", "POSTGRES_URL is required")
	add(c.Postgres.MaxConns <= 0, "POSTGRES_MAX_CONNS must be greater than 0")
	add(c.Postgres.MinConns <= 0, "POSTGRES_MIN_CONNS must be greater than 0")
	add(c.Postgres.MinConns > c.Postgres.MaxConns, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS")
	add(c.Postgres.ConnMaxLifetime <= 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	add(c.Postgres.ConnMaxIdleTime <= 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")

	// MongoDB
	add(c.MongoDB.URI == "", "MONGO_URI is required")
	add(c.MongoDB.Database == "", "MONGO_DATABASE is required")
	add(c.MongoDB.Timeout <= 0, "MONGO_TIMEOUT must be greater than 0")
	add(c.MongoDB.MaxPoolSize <= 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	add(c.MongoDB.MinPoolSize <= 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	add(c.MongoDB.MaxConnIdleTime <= 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	// Outbox
	add(c.Outbox.PollingInterval <= 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	add(c.Outbox.BatchSize <= 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	add(c.Outbox.MaxRetryAttempts <= 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	add(c.WorkerPool.Size <= 0, "WORKER_POOL_SIZE must be greater than 0")

	// Locking
	add(c.Locking.MaxAttempts <= 0, "LOCK_MAX_ATTEMPTS must be greater than 0")
	add(c.Locking.AttemptTimeout <= 0, "LOCK_ATTEMPT_TIMEOUT must be greater than 0")
	add(c.Locking.BaseDelay < 0, "LOCK_BASE_DELAY must not be negative")
	add(c.Locking.MaxDelay < c.Locking.BaseDelay, "LOCK_MAX_DELAY must not be lower than LOCK_BASE_DELAY")

	// Retry
	add(c.Retry.MaxAttempts < 1, "RETRY_MAX_ATTEMPTS must be at least 1")
	add(c.Retry.BaseDelay < 0, "RETRY_BASE_DELAY must not be negative")

	// Processing
	add(c.Processing.SweepInterval < 0, "PROCESSING_SWEEP_INTERVAL must not be negative")
	add(c.Processing.BatchSize <= 0, "PROCESSING_BATCH_SIZE must be greater than 0")

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
