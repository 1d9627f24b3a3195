package components

import (
	"context"
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/bankapp-ledger-engine/internal/transaction_processor/service"
)

type TransactionValidatorImpl struct {
	houseAccountID int64
	logger         *slog.Logger
}

// NewTransactionValidator returns a validator that knows houseAccountID, the
// account a FEE without destination is credited to.
func NewTransactionValidator(houseAccountID int64, logger *slog.Logger) service.TransactionValidator {
	return &TransactionValidatorImpl{
		houseAccountID: houseAccountID,
		logger:         logger,
	}
}

// Validate checks a hydrated transaction can be processed. Failures are *ValidationError.
func (v *TransactionValidatorImpl) Validate(ctx context.Context, txn *transaction.Transaction) error {
	if txn == nil {
		return &ValidationError{Reason: "transaction is nil"}
	}

	logger := v.logger
	if correlationID := shared.CorrelationID(ctx); correlationID != "" {
		logger = v.logger.With("correlation_id", correlationID)
	}

	invalid := func(reason string) error {
		logger.Warn("Invalid transaction", "transaction_id", txn.ID, "type", txn.Type, "reason", reason)
		return &ValidationError{TransactionID: txn.ID, Reason: reason}
	}

	if txn.Source != nil && txn.Destination != nil && txn.Source.ID == txn.Destination.ID {
		return invalid("source and destination must be different accounts")
	}
	if !txn.Amount.IsPositive() {
		return invalid("amount must be positive")
	}
	if !txn.Type.Valid() {
		return invalid("unknown transaction type " + string(txn.Type))
	}
	if txn.Source == nil && txn.Destination == nil {
		return invalid("at least one account is required")
	}
	if txn.Type.NeedsSource() && txn.Source == nil {
		return invalid(string(txn.Type) + " requires a source account")
	}
	if txn.Type.NeedsDestination() && txn.Destination == nil {
		return invalid(string(txn.Type) + " requires a destination account")
	}
	if txn.Type == transaction.TypeFee && txn.Destination == nil && txn.Source.ID == v.houseAccountID {
		return invalid("fee charged to the house account")
	}
	if txn.Type == transaction.TypeTransferOwn && txn.Source.OwnerID != txn.Destination.OwnerID {
		return invalid("own transfer between accounts of different owners")
	}

	return nil
}
