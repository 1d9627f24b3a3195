package shared

import (
	"errors"
	"time"
)

var ErrInvalidProcessRequest = errors.New("invalid process request")

// ProcessRequest defines a Kafka message asking the processor to run an
// already persisted NEW transaction.
type ProcessRequest struct {
	TransactionID int64     `json:"transaction_id"`
	CorrelationID string    `json:"correlation_id"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Validate checks the request carries a transaction to process.
func (r ProcessRequest) Validate() error {
	if r.TransactionID == 0 {
		return ErrInvalidProcessRequest
	}
	return nil
}
