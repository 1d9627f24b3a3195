package handler

import "github.com/shopspring/decimal"

// CreateAccountRequest represents a request to open an account for an existing owner
type CreateAccountRequest struct {
	OwnerID        int64           `json:"owner_id" binding:"required,gt=0"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        int64  `json:"id"`
	OwnerID   int64  `json:"owner_id"`
	Balance   string `json:"balance"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateTransactionRequest represents a request to register a transaction for processing
type CreateTransactionRequest struct {
	Type                 string          `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL FEE TRANSFER_OWN TRANSFER_INTERNAL TRANSFER_EXTERNAL"`
	SourceAccountID      *int64          `json:"source_account_id"`
	DestinationAccountID *int64          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Title                string          `json:"title" binding:"max=255"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                   int64                 `json:"id"`
	Type                 string                `json:"type"`
	SourceAccountID      *int64                `json:"source_account_id,omitempty"`
	DestinationAccountID *int64                `json:"destination_account_id,omitempty"`
	Amount               string                `json:"amount"`
	Status               string                `json:"status"`
	Title                string                `json:"title,omitempty"`
	CreatedAt            string                `json:"created_at"`
	UpdatedAt            string                `json:"updated_at"`
	LedgerEntries        []LedgerEntryResponse `json:"ledger_entries,omitempty"`
}

// LedgerEntryResponse represents a ledger projection entry in API responses
type LedgerEntryResponse struct {
	TransactionID        int64  `json:"transaction_id"`
	Kind                 string `json:"kind"`
	Type                 string `json:"type"`
	Status               string `json:"status"`
	SourceAccountID      *int64 `json:"source_account_id,omitempty"`
	DestinationAccountID *int64 `json:"destination_account_id,omitempty"`
	Amount               string `json:"amount"`
	Reason               string `json:"reason,omitempty"`
	CorrelationID        string `json:"correlation_id,omitempty"`
	RecordedAt           string `json:"recorded_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
