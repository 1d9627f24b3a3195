package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/bankapp-ledger-engine/internal/api_gateway/service"
	"github.com/bankapp-ledger-engine/internal/domain/transaction"
	"github.com/gin-gonic/gin"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// RegisterRoutes mounts the transaction endpoints on rg
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/transactions")
	transactions.POST("", h.Create)
	transactions.GET("/:id", h.GetByID)
	transactions.POST("/:id/process", h.Process)
}

// Create registers a NEW transaction and answers 202; processing happens asynchronously
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.transactionService.CreateTransaction(c.Request.Context(), service.CreateTransactionInput{
		Type:                 transaction.Type(req.Type),
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount,
		Title:                req.Title,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransaction) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create transaction", "type", req.Type, "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, mapRecordToResponse(record))
}

// GetByID retrieves a transaction with its ledger entries, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "transaction")
	if !ok {
		return
	}

	record, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	entries, err := h.transactionService.GetLedgerEntries(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get ledger entries", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	response := mapRecordToResponse(record)
	response.LedgerEntries = mapLedgerEntries(entries)
	RespondOK(c, response)
}

// Process asks the processor to run a transaction that is still NEW
func (h *TransactionHandler) Process(c *gin.Context) {
	id, ok := parseIDParam(c, "transaction")
	if !ok {
		return
	}

	record, err := h.transactionService.RequestProcessing(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrNotFound{}):
			RespondNotFound(c, "Transaction not found")
		case errors.Is(err, service.ErrNotReprocessable):
			RespondConflict(c, err.Error())
		default:
			h.logger.Error("Failed to request processing", "id", id, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapRecordToResponse(record))
}

func mapRecordToResponse(record *transaction.Record) TransactionResponse {
	return TransactionResponse{
		ID:                   record.ID,
		Type:                 string(record.Type),
		SourceAccountID:      record.SourceAccountID,
		DestinationAccountID: record.DestinationAccountID,
		Amount:               record.Amount.StringFixed(2),
		Status:               string(record.Status),
		Title:                record.Title,
		CreatedAt:            record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            record.UpdatedAt.Format(time.RFC3339),
	}
}
