package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bankapp-ledger-engine/internal/api_gateway/service"
	"github.com/bankapp-ledger-engine/internal/domain/account"
	"github.com/bankapp-ledger-engine/internal/domain/ledger"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// RegisterRoutes mounts the account endpoints on rg
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	accounts.POST("", h.Create)
	accounts.GET("/:id", h.GetByID)
	accounts.GET("/:id/ledger", h.GetLedger)
}

// Create opens a new account for an existing owner
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.OwnerID, req.InitialBalance)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNegativeBalance), errors.Is(err, account.ErrInvalidOwner):
			RespondBadRequest(c, err.Error())
		case errors.As(err, new(account.ErrOwnerNotFound)):
			RespondNotFound(c, "Owner not found")
		case errors.Is(err, account.ErrConcurrentModification{}):
			RespondConflict(c, "Owner is being modified concurrently, please retry")
		default:
			h.logger.Error("Failed to create account", "owner_id", req.OwnerID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "account")
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetLedger retrieves the paginated ledger history of an account, newest first
func (h *AccountHandler) GetLedger(c *gin.Context) {
	id, ok := parseIDParam(c, "account")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.accountService.GetLedgerByAccountID(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to get account ledger", "account_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, mapLedgerEntries(entries), pagination.Page, pagination.PerPage, int(total))
}

// parseIDParam reads the :id path parameter and answers 400 when it is not an integer
func parseIDParam(c *gin.Context, resource string) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		RespondBadRequest(c, "Invalid "+resource+" ID")
		return 0, false
	}
	return id, true
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID,
		OwnerID:   acc.OwnerID,
		Balance:   acc.Balance.StringFixed(2),
		Version:   acc.Version,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}

func mapLedgerEntries(entries []*ledger.Entry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, LedgerEntryResponse{
			TransactionID:        entry.TransactionID,
			Kind:                 string(entry.Kind),
			Type:                 string(entry.Type),
			Status:               string(entry.Status),
			SourceAccountID:      entry.SourceAccountID,
			DestinationAccountID: entry.DestinationAccountID,
			Amount:               entry.Amount,
			Reason:               entry.Reason,
			CorrelationID:        entry.CorrelationID,
			RecordedAt:           entry.RecordedAt.Format(time.RFC3339),
		})
	}
	return responses
}
