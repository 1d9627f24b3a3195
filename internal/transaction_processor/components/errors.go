package components

import (
	"errors"
	"fmt"

	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

var (
	ErrNilArgument       = errors.New("transaction and status are required")
	ErrIllegalTransition = errors.New("illegal transaction status transition")
	ErrExecution         = errors.New("transaction execution failed")
	ErrStatusChange      = errors.New("transaction status change failed")
	// ErrValidation is shared with the processing service, which routes it to HandleValidationError.
	ErrValidation = service.ErrValidationFailed
)

// IllegalTransitionError is a programming error: a transition the state machine forbids.
type IllegalTransitionError struct {
	TransactionID int64
	From          transaction.Status
	To            transaction.Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition for transaction %d: %s -> %s", e.TransactionID, e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// ExecutionError wraps an unexpected failure inside an executor.
type ExecutionError struct {
	TransactionID int64
	Type          transaction.Type
	Err           error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of %s transaction %d failed: %v", e.Type, e.TransactionID, e.Err)
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// StatusChangeError reports a status transition that could not be stored.
// Stage DONE means balances already moved.
type StatusChangeError struct {
	TransactionID int64
	Stage         transaction.Status
	Err           error
}

func (e *StatusChangeError) Error() string {
	return fmt.Sprintf("failed to move transaction %d to %s: %v", e.TransactionID, e.Stage, e.Err)
}

func (e *StatusChangeError) Is(target error) bool {
	return target == ErrStatusChange
}

func (e *StatusChangeError) Unwrap() error {
	return e.Err
}

// ValidationError reports a transaction that can never be processed as stored.
type ValidationError struct {
	TransactionID int64
	Reason        string
	Err           error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction %d is invalid: %s", e.TransactionID, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
