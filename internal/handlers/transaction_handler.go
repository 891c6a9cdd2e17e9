package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledger/internal/models"
	"ledger/internal/pagination"
	"ledger/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService, auditService: auditService}
}

// SplitRequest is one leg of a posted transaction. Value is in the
// transaction currency, Quantity in the account's commodity; Quantity may be
// omitted when the two are the same.
type SplitRequest struct {
	AccountID      string  `json:"account_id" binding:"required"`
	Value          string  `json:"value" binding:"required"`
	Quantity       string  `json:"quantity,omitempty"`
	Memo           string  `json:"memo,omitempty" binding:"max=2048"`
	Action         string  `json:"action,omitempty" binding:"max=2048"`
	ReconcileState string  `json:"reconcile_state,omitempty" binding:"omitempty,oneof=n c y f v"`
	LotID          *string `json:"lot_id,omitempty"`
}

// PostTransactionRequest represents the request payload for posting a transaction.
type PostTransactionRequest struct {
	CurrencyID  string         `json:"currency_id" binding:"required"`
	PostDate    string         `json:"post_date,omitempty"`
	Num         string         `json:"num,omitempty" binding:"max=2048"`
	Description string         `json:"description" binding:"max=2048"`
	Notes       string         `json:"notes,omitempty"`
	Splits      []SplitRequest `json:"splits" binding:"required,min=1,dive"`
}

// PostTransaction handles POST /transactions. A transaction that fails
// validation is answered with 422 and the reason in the error details.
// @Summary     Post a transaction
// @Description Validate and commit a transaction with its splits
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body PostTransactionRequest true "Transaction details"
// @Success     201 {object} services.TransactionView "Transaction posted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Book is read-only"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /transactions [post]
func (h *TransactionHandler) PostTransaction(c *gin.Context) {
	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	postDate, err := parseDate("post_date", req.PostDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	splits := make([]*models.Split, len(req.Splits))
	for i, s := range req.Splits {
		value, err := parseAmount("value", s.Value)
		if err != nil {
			respondWithError(c, err)
			return
		}
		quantity, err := parseAmount("quantity", s.Quantity)
		if err != nil {
			respondWithError(c, err)
			return
		}
		splits[i] = &models.Split{
			AccountID:      s.AccountID,
			Value:          value,
			Quantity:       quantity,
			Memo:           s.Memo,
			Action:         s.Action,
			ReconcileState: models.ReconcileState(s.ReconcileState),
			LotID:          s.LotID,
		}
	}

	txn, err := h.ledgerService.PostTransaction(c.Request.Context(), &models.Transaction{
		CurrencyID:  req.CurrencyID,
		PostDate:    postDate,
		Num:         req.Num,
		Description: req.Description,
		Notes:       req.Notes,
	}, splits)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// ListTransactions handles GET /transactions.
// @Summary     List transactions
// @Description List transactions ordered by post date
// @Tags        transactions
// @Produce     json
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.ledgerService.ListTransactions(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles GET /transactions/:id.
// @Summary     Get a transaction
// @Description Get a transaction with its splits
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} services.TransactionView
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// DeleteTransaction handles DELETE /transactions/:id.
// @Summary     Delete a transaction
// @Description Delete a transaction and its splits
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string
// @Failure     403 {object} ErrorResponse "Book is read-only"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	if err := h.ledgerService.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// GetTransactionAudit handles GET /transactions/:id/audit.
// @Summary     Get a transaction's audit trail
// @Description List the audit entries recorded for a transaction, newest first
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.AuditLog]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/{id}/audit [get]
func (h *TransactionHandler) GetTransactionAudit(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.auditService.ListAuditLogs(c.Request.Context(), "transaction", c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
