package service

import (
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
)

// FailureKind classifies how a processing run ended.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureLock
	FailureInsufficientFunds
	FailureExecution
	FailureStatusChange
	FailureValidation
	FailurePreparation
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureLock:
		return "lock"
	case FailureInsufficientFunds:
		return "insufficient_funds"
	case FailureExecution:
		return "execution"
	case FailureStatusChange:
		return "status_change"
	case FailureValidation:
		return "validation"
	case FailurePreparation:
		return "preparation"
	default:
		return "unknown"
	}
}

// Result is the outcome of processing one transaction. Business failures are
// reported here instead of as errors.
type Result struct {
	TransactionID int64
	Status        transaction.Status
	Failure       FailureKind
	Cause         error
	Skipped       bool // Not NEW when picked up; nothing was done
}

// OK reports whether processing finished without failure.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}

// Retryable reports whether the transaction was left NEW and may be picked up again.
func (r Result) Retryable() bool {
	return r.Failure == FailureLock
}

// BatchSummary counts the results of one ProcessAllNew run.
type BatchSummary struct {
	Picked   int
	Done     int
	Skipped  int
	Failures map[FailureKind]int
	Errors   int // Runs that returned an error (unlock or infrastructure failures)
}

func (s *BatchSummary) add(res Result, err error) {
	if s.Failures == nil {
		s.Failures = make(map[FailureKind]int)
	}
	switch {
	case err != nil:
		s.Errors++
	case res.Skipped:
		s.Skipped++
	case res.OK():
		s.Done++
	default:
		s.Failures[res.Failure]++
	}
}
