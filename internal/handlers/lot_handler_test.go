package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/services"
)

func setupLotRouter(handler *LotHandler) *gin.Engine {
	r := gin.New()
	r.POST("/lots", handler.CreateLot)
	r.GET("/lots/:id", handler.GetLot)
	r.POST("/lots/:id/finalize", handler.FinalizeLot)
	return r
}

func TestLotHandler_CreateLot(t *testing.T) {
	t.Run("returns_201_on_success", func(t *testing.T) {
		r := setupLotRouter(NewLotHandler(&mockLedgerService{}))

		rec := doRequest(r, "POST", "/lots", `{"account_id":"brokerage","title":"AAPL 2024-01"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		lot := parseJSON(t, rec)["lot"].(map[string]interface{})
		if lot["title"] != "AAPL 2024-01" {
			t.Errorf("expected title, got %v", lot["title"])
		}
	})

	t.Run("returns_400_missing_account", func(t *testing.T) {
		r := setupLotRouter(NewLotHandler(&mockLedgerService{}))

		rec := doRequest(r, "POST", "/lots", `{"title":"x"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestLotHandler_FinalizeLot(t *testing.T) {
	t.Run("returns_closed_status", func(t *testing.T) {
		svc := &mockLedgerService{
			finalizeLotFn: func(id string) (*services.LotStatus, error) {
				return &services.LotStatus{Lot: models.Lot{Base: models.Base{ID: id}, IsClosed: true}, Balance: "0", Closed: true}, nil
			},
		}
		r := setupLotRouter(NewLotHandler(svc))

		rec := doRequest(r, "POST", "/lots/lot-1/finalize", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		lot := parseJSON(t, rec)["lot"].(map[string]interface{})
		if lot["closed"] != true {
			t.Errorf("expected closed=true, got %v", lot["closed"])
		}
	})

	t.Run("returns_422_open_quantity", func(t *testing.T) {
		svc := &mockLedgerService{
			finalizeLotFn: func(string) (*services.LotStatus, error) {
				return nil, apperrors.WithDetails(apperrors.ErrLotNotClosed,
					"Finalized lot does not net to zero", map[string]any{"residual": "10"})
			},
		}
		r := setupLotRouter(NewLotHandler(svc))

		rec := doRequest(r, "POST", "/lots/lot-1/finalize", "")

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "LOT_NOT_CLOSED")
	})
}
