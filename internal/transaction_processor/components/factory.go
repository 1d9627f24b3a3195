package components

import (
	"fmt"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/config"
	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/outbox"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/execution"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/locking"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

// ProcessingStack is the wired processing pipeline.
type ProcessingStack struct {
	Processing   *service.WorkerPoolProcessingService
	Orchestrator *service.OrchestratorImpl
	Coordinator  *locking.Coordinator
}

// CreateProcessingService wires the processing pipeline with all its dependencies.
// It fails when the executor registry does not cover every transaction type.
func CreateProcessingService(
	db service.TxRunner,
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) (*ProcessingStack, error) {
	houseAccounts := NewHouseAccountResolver(accountRepo, cfg.Bank.HouseAccountID)
	registry, err := execution.NewDefaultRegistry(houseAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to build executor registry: %w", err)
	}

	coordinator := locking.NewCoordinator(
		locking.NewRegistry(),
		locking.StrategyFromConfig(cfg.Locking),
		logger.With("component", "lock_coordinator"),
	)
	guard := NewStatusGuard(transactionRepo, logger)
	outboxManager := NewOutboxManager(outboxRepo, logger)
	router := NewErrorRouter(guard, outboxManager, logger.With("component", "error_router"))

	orchestrator := service.NewOrchestrator(
		coordinator,
		guard,
		registry,
		NewAccountOperations(accountRepo, logger),
		db,
		router,
		outboxManager,
		logger.With("component", "orchestrator"),
	)

	baseService := service.NewProcessingService(
		transactionRepo,
		NewHydrator(accountRepo, logger),
		NewTransactionValidator(cfg.Bank.HouseAccountID, logger),
		router,
		orchestrator,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		transactionRepo,
		service.WorkerPoolConfig{
			Size:      cfg.WorkerPool.Size,
			BatchSize: cfg.Processing.BatchSize,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	logger.Info("Created worker pool processing service",
		"pool_size", cfg.WorkerPool.Size,
		"house_account_id", cfg.Bank.HouseAccountID,
	)
	return &ProcessingStack{
		Processing:   workerPoolService,
		Orchestrator: orchestrator,
		Coordinator:  coordinator,
	}, nil
}
