package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledger/internal/models"
	"ledger/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	ledgerService services.LedgerServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledgerService services.LedgerServicer) *AccountHandler {
	return &AccountHandler{ledgerService: ledgerService}
}

// CreateAccountRequest represents the request payload for creating an account.
// Without a parent the account is created under the root.
type CreateAccountRequest struct {
	Name        string             `json:"name" binding:"required,min=1,max=2048"`
	Type        models.AccountType `json:"type" binding:"required,account_type"`
	CommodityID string             `json:"commodity_id" binding:"required"`
	ParentID    *string            `json:"parent_id,omitempty"`
	Description string             `json:"description" binding:"max=2048"`
	Placeholder bool               `json:"placeholder"`
	Hidden      bool               `json:"hidden"`
}

// CreateAccount handles POST /accounts.
// @Summary     Create an account
// @Description Add an account under the root or a given parent
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} services.AccountView "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.ledgerService.CreateAccount(c.Request.Context(), &models.Account{
		Name:        req.Name,
		Type:        req.Type,
		CommodityID: &req.CommodityID,
		ParentID:    req.ParentID,
		Description: req.Description,
		Placeholder: req.Placeholder,
		Hidden:      req.Hidden,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// ListAccounts handles GET /accounts. With ?name= it returns the stored
// accounts carrying that short name.
// @Summary     List accounts
// @Description List accounts with full names and balances, or find stored accounts by short name
// @Tags        accounts
// @Produce     json
// @Param       name query string false "Short account name"
// @Success     200 {array} services.AccountView
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		accounts, err := h.ledgerService.FindAccounts(c.Request.Context(), name)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": accounts})
		return
	}

	accounts, err := h.ledgerService.ListAccounts(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if accounts == nil {
		accounts = []services.AccountView{}
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccount handles GET /accounts/:id.
// @Summary     Get an account
// @Description Get an account with its full name and balance
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} services.AccountView
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.ledgerService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}
