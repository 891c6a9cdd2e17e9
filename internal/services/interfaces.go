package services

import (
	"context"
	"time"

	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/pagination"
)

// AccountView is an account with its full name and current balance.
type AccountView struct {
	models.Account
	FullName string `json:"full_name"`
	Balance  string `json:"balance"`
}

// TransactionView is a transaction together with its splits.
type TransactionView struct {
	models.Transaction
	Splits []models.Split `json:"splits"`
}

// LotStatus reports whether a lot's member quantities net to zero.
type LotStatus struct {
	models.Lot
	Balance string         `json:"balance"`
	Closed  bool           `json:"closed"`
	Splits  []models.Split `json:"splits"`
}

// LedgerServicer defines the contract for ledger operations. Every mutating
// call stages its changes and commits them at once; a rejected commit is
// rolled back so the next call starts from the stored state.
type LedgerServicer interface {
	CreateCommodity(ctx context.Context, c *models.Commodity) (*models.Commodity, error)
	ListCommodities(ctx context.Context) []models.Commodity
	LookupCommodity(ctx context.Context, namespace, mnemonic string) (*models.Commodity, error)

	CreateAccount(ctx context.Context, a *models.Account) (*AccountView, error)
	ListAccounts(ctx context.Context) ([]AccountView, error)
	GetAccount(ctx context.Context, id string) (*AccountView, error)
	FindAccounts(ctx context.Context, name string) ([]models.Account, error)

	PostTransaction(ctx context.Context, txn *models.Transaction, splits []*models.Split) (*TransactionView, error)
	GetTransaction(ctx context.Context, id string) (*TransactionView, error)
	ListTransactions(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	DeleteTransaction(ctx context.Context, id string) error

	CreateLot(ctx context.Context, l *models.Lot) (*models.Lot, error)
	GetLotStatus(ctx context.Context, id string) (*LotStatus, error)
	FinalizeLot(ctx context.Context, id string) (*LotStatus, error)

	AddPrice(ctx context.Context, p *models.Price) (*models.Price, error)
	LatestPrice(ctx context.Context, commodityID, currencyID string, asOf time.Time) (*models.Price, error)
	PriceHistory(ctx context.Context, commodityID string, page pagination.PageRequest) (*pagination.PageResponse[models.Price], error)
	Convert(ctx context.Context, amount numeric.Value, fromID, toID string, asOf time.Time) (numeric.Value, error)
	RefreshPrices(ctx context.Context, commodityID string, start time.Time) (int, error)

	Check(ctx context.Context) []error
}

// AuditServicer defines the contract for reading the audit log.
type AuditServicer interface {
	ListAuditLogs(ctx context.Context, resourceType, resourceID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
