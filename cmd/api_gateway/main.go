package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bankapp-ledger-engine/internal/api_gateway"
	"github.com/bankapp-ledger-engine/internal/api_gateway/service"
	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/data/mongo"
	"github.com/bankapp-ledger-engine/internal/data/postgres"
	"github.com/bankapp-ledger-engine/internal/logger"
	"github.com/bankapp-ledger-engine/internal/platform/messaging/producers"
	"github.com/bankapp-ledger-engine/internal/platform/persistence"
)

func main() {
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	if err := run(log, cfg); err != nil {
		log.Error("API gateway stopped with errors", "error", err)
		os.Exit(1)
	}
	log.Info("API gateway stopped")
}

// run wires the gateway and serves until a signal arrives or the server fails
func run(log *slog.Logger, cfg *config.Config) error {
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("initialize PostgreSQL: %w", err)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("initialize MongoDB: %w", err)
	}

	// Processing triggers go to the processor's topic
	trigger, err := producers.NewProcessRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		_ = mongoDB.Close(context.Background())
		return fmt.Errorf("initialize process request producer: %w", err)
	}

	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())

	accountService := service.NewAccountService(log, postgresDB, accountRepo, ledgerRepo, cfg.Retry)
	transactionService := service.NewTransactionService(log, transactionRepo, ledgerRepo, trigger)

	server := api_gateway.NewServer(log, cfg, accountService, transactionService,
		api_gateway.HealthCheck{Name: "postgres", Pinger: postgresDB},
		api_gateway.HealthCheck{Name: "mongodb", Pinger: mongoDB},
	)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		serveErr <- server.Start()
	}()

	var errs []error
	select {
	case <-appCtx.Done():
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		errs = append(errs, fmt.Errorf("HTTP server: %w", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests before the stores they use go away
	if err := server.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := trigger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close process request producer: %w", err))
	}
	if err := mongoDB.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
