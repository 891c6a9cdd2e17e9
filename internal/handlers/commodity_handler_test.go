package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
)

func setupCommodityRouter(handler *CommodityHandler) *gin.Engine {
	r := gin.New()
	r.POST("/commodities", handler.CreateCommodity)
	r.GET("/commodities", handler.ListCommodities)
	r.GET("/commodities/lookup", handler.LookupCommodity)
	return r
}

func TestCommodityHandler_CreateCommodity(t *testing.T) {
	t.Run("returns_201_on_success", func(t *testing.T) {
		r := setupCommodityRouter(NewCommodityHandler(&mockLedgerService{}))

		rec := doRequest(r, "POST", "/commodities",
			`{"namespace":"NASDAQ","mnemonic":"AAPL","fullname":"Apple","fraction":1,"quoted_currency":"USD"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		commodity := parseJSON(t, rec)["commodity"].(map[string]interface{})
		if commodity["mnemonic"] != "AAPL" {
			t.Errorf("expected mnemonic=AAPL, got %v", commodity["mnemonic"])
		}
	})

	t.Run("returns_400_namespace_with_colon", func(t *testing.T) {
		r := setupCommodityRouter(NewCommodityHandler(&mockLedgerService{}))

		rec := doRequest(r, "POST", "/commodities", `{"namespace":"NAS:DAQ","mnemonic":"AAPL"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_unknown_quoted_currency", func(t *testing.T) {
		r := setupCommodityRouter(NewCommodityHandler(&mockLedgerService{}))

		rec := doRequest(r, "POST", "/commodities",
			`{"namespace":"NASDAQ","mnemonic":"AAPL","quoted_currency":"ZZZ"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns_409_duplicate", func(t *testing.T) {
		svc := &mockLedgerService{
			createCommodityFn: func(*models.Commodity) (*models.Commodity, error) {
				return nil, apperrors.ErrDuplicateCommodity
			},
		}
		r := setupCommodityRouter(NewCommodityHandler(svc))

		rec := doRequest(r, "POST", "/commodities", `{"namespace":"CURRENCY","mnemonic":"USD"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_COMMODITY")
	})
}

func TestCommodityHandler_LookupCommodity(t *testing.T) {
	t.Run("returns_404_unknown", func(t *testing.T) {
		svc := &mockLedgerService{
			lookupCommodityFn: func(string, string) (*models.Commodity, error) {
				return nil, apperrors.ErrCommodityNotFound
			},
		}
		r := setupCommodityRouter(NewCommodityHandler(svc))

		rec := doRequest(r, "GET", "/commodities/lookup?namespace=CURRENCY&mnemonic=ZZZ", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "COMMODITY_NOT_FOUND")
	})

	t.Run("returns_400_missing_mnemonic", func(t *testing.T) {
		r := setupCommodityRouter(NewCommodityHandler(&mockLedgerService{}))

		rec := doRequest(r, "GET", "/commodities/lookup?namespace=CURRENCY", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
