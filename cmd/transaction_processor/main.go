package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/data/mongo"
	"github.com/bankapp-ledger-engine/internal/data/postgres"
	"github.com/bankapp-ledger-engine/internal/logger"
	"github.com/bankapp-ledger-engine/internal/platform/messaging/consumers"
	"github.com/bankapp-ledger-engine/internal/platform/messaging/producers"
	"github.com/bankapp-ledger-engine/internal/platform/persistence"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/components"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/consumer"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/outbox_poller"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/sweeper"
)

func main() {
	cfg, err := config.LoadConfig("transaction_processor")
	if err != nil {
		// logger is not initialized yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting Transaction Processor", "app_name", cfg.Application.Name, "env", cfg.Application.Env)

	if err := run(log, cfg); err != nil {
		log.Error("Transaction Processor stopped with errors", "error", err)
		os.Exit(1)
	}
	log.Info("Transaction Processor stopped")
}

// run wires the processing pipeline and its three intake paths: Kafka
// triggers, the sweeper and the outbox poller feeding the ledger projection.
func run(log *slog.Logger, cfg *config.Config) error {
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Migrations run before the pool opens
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("initialize PostgreSQL: %w", err)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("initialize MongoDB: %w", err)
	}
	defer func() {
		if err := mongoDB.Close(context.Background()); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())

	if err := ledgerRepo.EnsureIndexes(appCtx); err != nil {
		return fmt.Errorf("create ledger indexes: %w", err)
	}

	stack, err := components.CreateProcessingService(postgresDB, accountRepo, transactionRepo, outboxRepo, log, cfg)
	if err != nil {
		return fmt.Errorf("initialize processing service: %w", err)
	}
	processingService := stack.Processing
	defer processingService.Shutdown()

	// nil when no DLQ topic is configured
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("initialize DLQ producer: %w", err)
	}
	defer func() {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}()
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	requestHandler := consumer.NewProcessRequestHandler(log, processingService, deadLetters)
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	ledgerPublisher := outbox_poller.NewLedgerPublisher(outboxRepo, ledgerRepo, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, ledgerPublisher, log)
	newSweeper := sweeper.NewSweeper(processingService, cfg.Processing.SweepInterval, log)

	log.Info("Starting Kafka consumer", "topic", cfg.Kafka.ProcessTopic, "group", cfg.Kafka.ConsumerGroup)
	if err := kafkaConsumer.Subscribe(appCtx, requestHandler.HandleMessage); err != nil {
		return fmt.Errorf("subscribe to %s: %w", cfg.Kafka.ProcessTopic, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		log.Info("Starting outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()
	go func() {
		defer wg.Done()
		newSweeper.Start(appCtx)
	}()

	<-appCtx.Done()
	log.Info("Shutdown signal received")

	// Stop intake first, then let in-flight transactions reach a terminal status
	var errs []error
	if err := kafkaConsumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka consumer: %w", err))
	}

	loopsDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(loopsDone)
	}()
	select {
	case <-loopsDone:
		log.Info("Background loops stopped")
	case <-time.After(cfg.Server.ShutdownTimeout):
		log.Warn("Shutdown timeout reached before background loops stopped")
	}

	return errors.Join(errs...)
}
