package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService bounds the number of transactions processed at once.
// Each transaction runs on its own pooled goroutine.
type WorkerPoolProcessingService struct {
	baseService  ProcessingService
	transactions transaction.Repository
	pool         *ants.Pool
	batchSize    int
	logger       *slog.Logger
}

type WorkerPoolConfig struct {
	Size      int
	BatchSize int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	transactions transaction.Repository,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = config.Size
	}

	return &WorkerPoolProcessingService{
		baseService:  baseService,
		transactions: transactions,
		pool:         pool,
		batchSize:    batchSize,
		logger:       logger,
	}, nil
}

type outcome struct {
	result Result
	err    error
}

// submit schedules one transaction and returns the channel its outcome is delivered on.
func (s *WorkerPoolProcessingService) submit(ctx context.Context, transactionID int64) (<-chan outcome, error) {
	done := make(chan outcome, 1)
	err := s.pool.Submit(func() {
		result, err := s.baseService.ProcessByID(ctx, transactionID)
		done <- outcome{result: result, err: err}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction %d to worker pool: %w", transactionID, err)
	}
	return done, nil
}

// ProcessByID processes one transaction on the pool and waits for its result
// or for ctx to end. A transaction whose locks are already held still runs to
// completion on the pool after the caller stopped waiting.
func (s *WorkerPoolProcessingService) ProcessByID(ctx context.Context, transactionID int64) (Result, error) {
	s.logger.Debug("Submitting transaction to worker pool", "transaction_id", transactionID)

	done, err := s.submit(ctx, transactionID)
	if err != nil {
		s.logger.Error("Failed to submit transaction to worker pool", "transaction_id", transactionID, "error", err)
		return Result{}, err
	}

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		s.logger.Warn("Stopped waiting for transaction result", "transaction_id", transactionID, "error", ctx.Err())
		return Result{TransactionID: transactionID}, ctx.Err()
	}
}

// ProcessAllNew processes up to one batch of NEW transactions concurrently and
// summarizes the outcomes.
func (s *WorkerPoolProcessingService) ProcessAllNew(ctx context.Context) (BatchSummary, error) {
	summary := BatchSummary{Failures: make(map[FailureKind]int)}

	ids, err := s.transactions.ListIDsByStatus(ctx, transaction.StatusNew, s.batchSize)
	if err != nil {
		return summary, fmt.Errorf("failed to list new transactions: %w", err)
	}
	summary.Picked = len(ids)
	if len(ids) == 0 {
		return summary, nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(res Result, err error) {
		mu.Lock()
		summary.add(res, err)
		mu.Unlock()
	}

	for _, id := range ids {
		done, err := s.submit(ctx, id)
		if err != nil {
			s.logger.Error("Failed to submit transaction to worker pool", "transaction_id", id, "error", err)
			record(Result{}, err)
			continue
		}
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			out := <-done
			if out.err != nil {
				s.logger.Error("Transaction processing returned an error", "transaction_id", id, "error", out.err)
			}
			record(out.result, out.err)
		}(id)
	}
	wg.Wait()

	s.logger.Info("Processed batch of new transactions",
		"picked", summary.Picked,
		"done", summary.Done,
		"skipped", summary.Skipped,
		"failed", summary.Picked-summary.Done-summary.Skipped-summary.Errors,
		"errors", summary.Errors,
	)
	return summary, nil
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
