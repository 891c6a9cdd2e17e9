package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledger/internal/models"
	"ledger/internal/services"
)

// LotHandler handles lot-related requests.
type LotHandler struct {
	ledgerService services.LedgerServicer
}

// NewLotHandler creates a new LotHandler.
func NewLotHandler(ledgerService services.LedgerServicer) *LotHandler {
	return &LotHandler{ledgerService: ledgerService}
}

// CreateLotRequest represents the request payload for opening a lot.
type CreateLotRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Title     string `json:"title" binding:"max=2048"`
	Notes     string `json:"notes,omitempty"`
}

// CreateLot handles POST /lots.
// @Summary     Open a lot
// @Description Create a lot on a security account
// @Tags        lots
// @Accept      json
// @Produce     json
// @Param       request body CreateLotRequest true "Lot details"
// @Success     201 {object} models.Lot "Lot created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /lots [post]
func (h *LotHandler) CreateLot(c *gin.Context) {
	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	lot, err := h.ledgerService.CreateLot(c.Request.Context(), &models.Lot{
		AccountID: req.AccountID,
		Title:     req.Title,
		Notes:     req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lot": lot})
}

// GetLot handles GET /lots/:id.
// @Summary     Get a lot
// @Description Get a lot with its member splits and open quantity
// @Tags        lots
// @Produce     json
// @Param       id path string true "Lot ID"
// @Success     200 {object} services.LotStatus
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /lots/{id} [get]
func (h *LotHandler) GetLot(c *gin.Context) {
	status, err := h.ledgerService.GetLotStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lot": status})
}

// FinalizeLot handles POST /lots/:id/finalize.
// @Summary     Finalize a lot
// @Description Mark a lot closed; its member quantities must net to zero
// @Tags        lots
// @Produce     json
// @Param       id path string true "Lot ID"
// @Success     200 {object} services.LotStatus
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /lots/{id}/finalize [post]
func (h *LotHandler) FinalizeLot(c *gin.Context) {
	status, err := h.ledgerService.FinalizeLot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lot": status})
}
