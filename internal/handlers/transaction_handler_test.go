package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/pagination"
	"ledger/internal/services"
)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	r.POST("/transactions", handler.PostTransaction)
	r.GET("/transactions", handler.ListTransactions)
	r.GET("/transactions/:id", handler.GetTransaction)
	r.DELETE("/transactions/:id", handler.DeleteTransaction)
	r.GET("/transactions/:id/audit", handler.GetTransactionAudit)
	return r
}

const balancedBody = `{
	"currency_id":"usd",
	"post_date":"2024-01-05",
	"description":"Groceries",
	"splits":[
		{"account_id":"food","value":"12.50"},
		{"account_id":"cash","value":"-12.50","memo":"wallet"}
	]
}`

func TestTransactionHandler_PostTransaction(t *testing.T) {
	t.Run("returns_201_on_success", func(t *testing.T) {
		var gotTxn *models.Transaction
		var gotSplits []*models.Split
		svc := &mockLedgerService{
			postTransactionFn: func(txn *models.Transaction, splits []*models.Split) (*services.TransactionView, error) {
				gotTxn, gotSplits = txn, splits
				txn.ID = "txn-1"
				return &services.TransactionView{Transaction: *txn}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions", balancedBody)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotTxn.CurrencyID != "usd" {
			t.Errorf("expected currency_id=usd, got %q", gotTxn.CurrencyID)
		}
		if !gotTxn.PostDate.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected post_date %v", gotTxn.PostDate)
		}
		if len(gotSplits) != 2 {
			t.Fatalf("expected 2 splits, got %d", len(gotSplits))
		}
		if !gotSplits[0].Value.Equal(numeric.New(1250, 100)) {
			t.Errorf("expected value 12.50, got %s", gotSplits[0].Value)
		}
		if gotSplits[0].Quantity.IsSet() {
			t.Errorf("expected omitted quantity to stay unset, got %s", gotSplits[0].Quantity)
		}
		if gotSplits[1].Memo != "wallet" {
			t.Errorf("expected memo=wallet, got %q", gotSplits[1].Memo)
		}
		txn := parseJSON(t, rec)["transaction"].(map[string]interface{})
		if txn["id"] != "txn-1" {
			t.Errorf("expected id=txn-1, got %v", txn["id"])
		}
	})

	t.Run("returns_422_with_residual", func(t *testing.T) {
		svc := &mockLedgerService{
			postTransactionFn: func(*models.Transaction, []*models.Split) (*services.TransactionView, error) {
				return nil, apperrors.WithDetails(apperrors.ErrImbalancedTransaction,
					"Transaction is not balanced", map[string]any{"residual": "90.00"})
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions", balancedBody)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "IMBALANCED_TRANSACTION")
		details := result["error"].(map[string]interface{})["details"].(map[string]interface{})
		if details["residual"] != "90.00" {
			t.Errorf("expected residual=90.00, got %v", details["residual"])
		}
	})

	t.Run("returns_400_invalid_amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"currency_id":"usd","splits":[{"account_id":"a","value":"ten"}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_amount_out_of_range", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockLedgerService{}, &mockAuditService{}))

		for _, value := range []string{
			"92233720368547758.08",
			"0.0000000000000000000000000000000000000000000000000000000000000001",
		} {
			rec := doRequest(r, "POST", "/transactions",
				`{"currency_id":"usd","splits":[{"account_id":"a","value":"`+value+`"}]}`)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("value %s: expected 400, got %d: %s", value, rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		}
	})

	t.Run("returns_400_invalid_date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"currency_id":"usd","post_date":"05/01/2024","splits":[{"account_id":"a","value":"1"}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_missing_splits", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions", `{"currency_id":"usd"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_bad_reconcile_state", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"currency_id":"usd","splits":[{"account_id":"a","value":"1","reconcile_state":"x"}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("passes_page_request", func(t *testing.T) {
		var got pagination.PageRequest
		svc := &mockLedgerService{
			listTransactionsFn: func(page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
				got = page
				resp := pagination.NewPageResponse([]models.Transaction{}, page.Page, page.PageSize, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions?page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Page != 2 || got.PageSize != 5 {
			t.Errorf("expected page 2 size 5, got %+v", got)
		}
	})

	t.Run("returns_400_page_size_too_large", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockLedgerService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	t.Run("returns_404_not_found", func(t *testing.T) {
		svc := &mockLedgerService{
			getTransactionFn: func(string) (*services.TransactionView, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions/missing", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		var deleted string
		svc := &mockLedgerService{
			deleteTransactionFn: func(id string) error {
				deleted = id
				return nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/transactions/txn-1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if deleted != "txn-1" {
			t.Errorf("expected txn-1 deleted, got %q", deleted)
		}
	})

	t.Run("returns_403_read_only", func(t *testing.T) {
		svc := &mockLedgerService{
			deleteTransactionFn: func(string) error { return apperrors.ErrReadOnlyViolation },
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/transactions/txn-1", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "READ_ONLY_VIOLATION")
	})
}

func TestTransactionHandler_GetTransactionAudit(t *testing.T) {
	t.Run("filters_by_transaction", func(t *testing.T) {
		var gotType, gotID string
		audit := &mockAuditService{
			listAuditLogsFn: func(resourceType, resourceID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
				gotType, gotID = resourceType, resourceID
				resp := pagination.NewPageResponse([]models.AuditLog{{Action: "create"}}, 1, 20, 1)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(&mockLedgerService{}, audit))

		rec := doRequest(r, "GET", "/transactions/txn-1/audit", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotType != "transaction" || gotID != "txn-1" {
			t.Errorf("expected transaction/txn-1, got %s/%s", gotType, gotID)
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 {
			t.Errorf("expected 1 audit entry, got %d", len(data))
		}
	})
}
