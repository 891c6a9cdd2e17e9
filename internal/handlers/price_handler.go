package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledger/internal/models"
	"ledger/internal/pagination"
	"ledger/internal/services"
)

// PriceHandler handles price and conversion requests.
type PriceHandler struct {
	ledgerService services.LedgerServicer
	now           func() time.Time
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(ledgerService services.LedgerServicer) *PriceHandler {
	return &PriceHandler{ledgerService: ledgerService, now: time.Now}
}

// AddPriceRequest represents the request payload for recording a price.
type AddPriceRequest struct {
	CommodityID string           `json:"commodity_id" binding:"required"`
	CurrencyID  string           `json:"currency_id" binding:"required"`
	Date        string           `json:"date,omitempty"`
	Value       string           `json:"value" binding:"required"`
	Type        models.PriceType `json:"type,omitempty" binding:"omitempty,price_type"`
	Source      string           `json:"source,omitempty"`
}

// RefreshPricesRequest represents the request payload for fetching quotes.
type RefreshPricesRequest struct {
	CommodityID string `json:"commodity_id" binding:"required"`
	Start       string `json:"start,omitempty"`
}

// AddPrice handles POST /prices.
// @Summary     Record a price
// @Description Record the price of a commodity in a currency
// @Tags        prices
// @Accept      json
// @Produce     json
// @Param       request body AddPriceRequest true "Price details"
// @Success     201 {object} models.Price "Price recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /prices [post]
func (h *PriceHandler) AddPrice(c *gin.Context) {
	var req AddPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	value, err := parseAmount("value", req.Value)
	if err != nil {
		respondWithError(c, err)
		return
	}

	price, err := h.ledgerService.AddPrice(c.Request.Context(), &models.Price{
		CommodityID: req.CommodityID,
		CurrencyID:  req.CurrencyID,
		Date:        date,
		Value:       value,
		Type:        req.Type,
		Source:      req.Source,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"price": price})
}

// PriceHistory handles GET /prices?commodity_id=&page=&page_size=.
// @Summary     Price history
// @Description List stored prices of a commodity, newest first
// @Tags        prices
// @Produce     json
// @Param       commodity_id query string true "Commodity ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Price]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /prices [get]
func (h *PriceHandler) PriceHistory(c *gin.Context) {
	var query struct {
		pagination.PageRequest
		CommodityID string `form:"commodity_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.ledgerService.PriceHistory(c.Request.Context(), query.CommodityID, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LatestPrice handles GET /prices/latest?commodity_id=&currency_id=&as_of=.
// @Summary     Latest price
// @Description Get the most recent price on or before a date
// @Tags        prices
// @Produce     json
// @Param       commodity_id query string true "Commodity ID"
// @Param       currency_id query string true "Currency ID"
// @Param       as_of query string false "YYYY-MM-DD, default today"
// @Success     200 {object} models.Price
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /prices/latest [get]
func (h *PriceHandler) LatestPrice(c *gin.Context) {
	var query struct {
		CommodityID string `form:"commodity_id" binding:"required"`
		CurrencyID  string `form:"currency_id" binding:"required"`
		AsOf        string `form:"as_of"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	asOf, err := h.asOf(query.AsOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	price, err := h.ledgerService.LatestPrice(c.Request.Context(), query.CommodityID, query.CurrencyID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"price": price})
}

// Convert handles GET /prices/convert?amount=&from=&to=&as_of=.
// @Summary     Convert an amount
// @Description Convert an amount between commodities using the latest direct or inverse price
// @Tags        prices
// @Produce     json
// @Param       amount query string true "Decimal amount"
// @Param       from query string true "Source commodity ID"
// @Param       to query string true "Target commodity ID"
// @Param       as_of query string false "YYYY-MM-DD, default today"
// @Success     200 {object} map[string]string
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /prices/convert [get]
func (h *PriceHandler) Convert(c *gin.Context) {
	var query struct {
		Amount string `form:"amount" binding:"required"`
		From   string `form:"from" binding:"required"`
		To     string `form:"to" binding:"required"`
		AsOf   string `form:"as_of"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := parseAmount("amount", query.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	asOf, err := h.asOf(query.AsOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	converted, err := h.ledgerService.Convert(c.Request.Context(), amount, query.From, query.To, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"amount": converted.String(), "as_of": asOf.Format(time.DateOnly)})
}

// RefreshPrices handles POST /prices/refresh.
// @Summary     Refresh prices
// @Description Fetch missing daily quotes for a commodity from the market-data provider
// @Tags        prices
// @Accept      json
// @Produce     json
// @Param       request body RefreshPricesRequest true "Commodity and start date"
// @Success     200 {object} map[string]int
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /prices/refresh [post]
func (h *PriceHandler) RefreshPrices(c *gin.Context) {
	var req RefreshPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := parseDate("start", req.Start)
	if err != nil {
		respondWithError(c, err)
		return
	}

	added, err := h.ledgerService.RefreshPrices(c.Request.Context(), req.CommodityID, start)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// asOf parses an optional as_of date, defaulting to the end of today.
func (h *PriceHandler) asOf(s string) (time.Time, error) {
	if s == "" {
		y, m, d := h.now().UTC().Date()
		return time.Date(y, m, d, 23, 59, 59, 0, time.UTC), nil
	}
	return parseDate("as_of", s)
}
