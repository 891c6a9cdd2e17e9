package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledger/internal/models"
	"ledger/internal/services"
)

// CommodityHandler handles currency and security requests.
type CommodityHandler struct {
	ledgerService services.LedgerServicer
}

// NewCommodityHandler creates a new CommodityHandler.
func NewCommodityHandler(ledgerService services.LedgerServicer) *CommodityHandler {
	return &CommodityHandler{ledgerService: ledgerService}
}

// CreateCommodityRequest represents the request payload for creating a commodity.
type CreateCommodityRequest struct {
	Namespace      string `json:"namespace" binding:"required,commodity_namespace"`
	Mnemonic       string `json:"mnemonic" binding:"required,max=32"`
	Fullname       string `json:"fullname" binding:"max=2048"`
	Cusip          string `json:"cusip,omitempty" binding:"max=2048"`
	Fraction       int64  `json:"fraction,omitempty" binding:"omitempty,gt=0"`
	QuoteFlag      bool   `json:"quote_flag"`
	QuoteSource    string `json:"quote_source,omitempty"`
	QuoteTZ        string `json:"quote_tz,omitempty"`
	QuotedCurrency string `json:"quoted_currency,omitempty" binding:"omitempty,iso4217"`
}

// CreateCommodity handles POST /commodities.
// @Summary     Create a commodity
// @Description Add a currency or security to the book
// @Tags        commodities
// @Accept      json
// @Produce     json
// @Param       request body CreateCommodityRequest true "Commodity details"
// @Success     201 {object} models.Commodity "Commodity created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate"
// @Router      /commodities [post]
func (h *CommodityHandler) CreateCommodity(c *gin.Context) {
	var req CreateCommodityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	commodity, err := h.ledgerService.CreateCommodity(c.Request.Context(), &models.Commodity{
		Namespace:      req.Namespace,
		Mnemonic:       req.Mnemonic,
		Fullname:       req.Fullname,
		Cusip:          req.Cusip,
		Fraction:       req.Fraction,
		QuoteFlag:      req.QuoteFlag,
		QuoteSource:    req.QuoteSource,
		QuoteTZ:        req.QuoteTZ,
		QuotedCurrency: req.QuotedCurrency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"commodity": commodity})
}

// ListCommodities handles GET /commodities.
// @Summary     List commodities
// @Description List every commodity ordered by namespace and mnemonic
// @Tags        commodities
// @Produce     json
// @Success     200 {array} models.Commodity
// @Router      /commodities [get]
func (h *CommodityHandler) ListCommodities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commodities": h.ledgerService.ListCommodities(c.Request.Context())})
}

// LookupCommodity handles GET /commodities/lookup?namespace=&mnemonic=.
// @Summary     Look up a commodity
// @Description Find a commodity by namespace and mnemonic
// @Tags        commodities
// @Produce     json
// @Param       namespace query string true "Namespace"
// @Param       mnemonic query string true "Mnemonic"
// @Success     200 {object} models.Commodity
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /commodities/lookup [get]
func (h *CommodityHandler) LookupCommodity(c *gin.Context) {
	var query struct {
		Namespace string `form:"namespace" binding:"required"`
		Mnemonic  string `form:"mnemonic" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	commodity, err := h.ledgerService.LookupCommodity(c.Request.Context(), query.Namespace, query.Mnemonic)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"commodity": commodity})
}
