package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/pagination"
	"ledger/internal/services"
	"ledger/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// --- mock ledger service ---

type mockLedgerService struct {
	createCommodityFn   func(c *models.Commodity) (*models.Commodity, error)
	lookupCommodityFn   func(namespace, mnemonic string) (*models.Commodity, error)
	createAccountFn     func(a *models.Account) (*services.AccountView, error)
	listAccountsFn      func() ([]services.AccountView, error)
	getAccountFn        func(id string) (*services.AccountView, error)
	findAccountsFn      func(name string) ([]models.Account, error)
	postTransactionFn   func(txn *models.Transaction, splits []*models.Split) (*services.TransactionView, error)
	getTransactionFn    func(id string) (*services.TransactionView, error)
	listTransactionsFn  func(page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	deleteTransactionFn func(id string) error
	createLotFn         func(l *models.Lot) (*models.Lot, error)
	getLotStatusFn      func(id string) (*services.LotStatus, error)
	finalizeLotFn       func(id string) (*services.LotStatus, error)
	addPriceFn          func(p *models.Price) (*models.Price, error)
	latestPriceFn       func(commodityID, currencyID string, asOf time.Time) (*models.Price, error)
	priceHistoryFn      func(commodityID string, page pagination.PageRequest) (*pagination.PageResponse[models.Price], error)
	convertFn           func(amount numeric.Value, fromID, toID string, asOf time.Time) (numeric.Value, error)
	refreshPricesFn     func(commodityID string, start time.Time) (int, error)
}

var _ services.LedgerServicer = (*mockLedgerService)(nil)

func (m *mockLedgerService) CreateCommodity(_ context.Context, c *models.Commodity) (*models.Commodity, error) {
	if m.createCommodityFn != nil {
		return m.createCommodityFn(c)
	}
	return c, nil
}

func (m *mockLedgerService) ListCommodities(_ context.Context) []models.Commodity {
	return []models.Commodity{}
}

func (m *mockLedgerService) LookupCommodity(_ context.Context, namespace, mnemonic string) (*models.Commodity, error) {
	if m.lookupCommodityFn != nil {
		return m.lookupCommodityFn(namespace, mnemonic)
	}
	return &models.Commodity{Namespace: namespace, Mnemonic: mnemonic}, nil
}

func (m *mockLedgerService) CreateAccount(_ context.Context, a *models.Account) (*services.AccountView, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(a)
	}
	return &services.AccountView{Account: *a}, nil
}

func (m *mockLedgerService) ListAccounts(_ context.Context) ([]services.AccountView, error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn()
	}
	return nil, nil
}

func (m *mockLedgerService) GetAccount(_ context.Context, id string) (*services.AccountView, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(id)
	}
	return &services.AccountView{}, nil
}

func (m *mockLedgerService) FindAccounts(_ context.Context, name string) ([]models.Account, error) {
	if m.findAccountsFn != nil {
		return m.findAccountsFn(name)
	}
	return []models.Account{}, nil
}

func (m *mockLedgerService) PostTransaction(_ context.Context, txn *models.Transaction, splits []*models.Split) (*services.TransactionView, error) {
	if m.postTransactionFn != nil {
		return m.postTransactionFn(txn, splits)
	}
	return &services.TransactionView{Transaction: *txn}, nil
}

func (m *mockLedgerService) GetTransaction(_ context.Context, id string) (*services.TransactionView, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(id)
	}
	return &services.TransactionView{}, nil
}

func (m *mockLedgerService) ListTransactions(_ context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(page)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockLedgerService) DeleteTransaction(_ context.Context, id string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(id)
	}
	return nil
}

func (m *mockLedgerService) CreateLot(_ context.Context, l *models.Lot) (*models.Lot, error) {
	if m.createLotFn != nil {
		return m.createLotFn(l)
	}
	return l, nil
}

func (m *mockLedgerService) GetLotStatus(_ context.Context, id string) (*services.LotStatus, error) {
	if m.getLotStatusFn != nil {
		return m.getLotStatusFn(id)
	}
	return &services.LotStatus{}, nil
}

func (m *mockLedgerService) FinalizeLot(_ context.Context, id string) (*services.LotStatus, error) {
	if m.finalizeLotFn != nil {
		return m.finalizeLotFn(id)
	}
	return &services.LotStatus{}, nil
}

func (m *mockLedgerService) AddPrice(_ context.Context, p *models.Price) (*models.Price, error) {
	if m.addPriceFn != nil {
		return m.addPriceFn(p)
	}
	return p, nil
}

func (m *mockLedgerService) LatestPrice(_ context.Context, commodityID, currencyID string, asOf time.Time) (*models.Price, error) {
	if m.latestPriceFn != nil {
		return m.latestPriceFn(commodityID, currencyID, asOf)
	}
	return &models.Price{}, nil
}

func (m *mockLedgerService) PriceHistory(_ context.Context, commodityID string, page pagination.PageRequest) (*pagination.PageResponse[models.Price], error) {
	if m.priceHistoryFn != nil {
		return m.priceHistoryFn(commodityID, page)
	}
	resp := pagination.NewPageResponse([]models.Price{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockLedgerService) Convert(_ context.Context, amount numeric.Value, fromID, toID string, asOf time.Time) (numeric.Value, error) {
	if m.convertFn != nil {
		return m.convertFn(amount, fromID, toID, asOf)
	}
	return amount, nil
}

func (m *mockLedgerService) RefreshPrices(_ context.Context, commodityID string, start time.Time) (int, error) {
	if m.refreshPricesFn != nil {
		return m.refreshPricesFn(commodityID, start)
	}
	return 0, nil
}

func (m *mockLedgerService) Check(_ context.Context) []error {
	return nil
}

// --- mock audit service ---

type mockAuditService struct {
	listAuditLogsFn func(resourceType, resourceID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

func (m *mockAuditService) ListAuditLogs(_ context.Context, resourceType, resourceID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	if m.listAuditLogsFn != nil {
		return m.listAuditLogsFn(resourceType, resourceID, page)
	}
	resp := pagination.NewPageResponse([]models.AuditLog{}, 1, 20, 0)
	return &resp, nil
}

// --- helpers ---

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
