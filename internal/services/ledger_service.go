package services

import (
	"context"
	"sync"
	"time"

	"ledger/internal/book"
	apperrors "ledger/internal/errors"
	"ledger/internal/logger"
	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/pagination"
	"ledger/internal/provider"
	"ledger/internal/store"
)

// ledgerService handles ledger operations on one open book.
type ledgerService struct {
	// mu makes each stage-and-commit sequence atomic with respect to other
	// callers sharing the book.
	mu       sync.Mutex
	book     *book.Book
	store    *store.Store
	provider provider.Provider
}

// NewLedgerService creates a new LedgerServicer. p may be nil, in which case
// RefreshPrices is unavailable.
func NewLedgerService(b *book.Book, st *store.Store, p provider.Provider) LedgerServicer {
	return &ledgerService{book: b, store: st, provider: p}
}

// commit stages changes with stage and commits them, rolling back on any error.
func (s *ledgerService) commit(ctx context.Context, stage func() error) error {
	if err := stage(); err != nil {
		s.rollback(ctx)
		return err
	}
	if err := s.book.Commit(ctx); err != nil {
		s.rollback(ctx)
		return err
	}
	return nil
}

func (s *ledgerService) rollback(ctx context.Context) {
	if s.book.IsSaved() {
		return
	}
	if err := s.book.Rollback(ctx); err != nil {
		logger.Get().Errorw("failed to discard staged changes", "error", err)
	}
}

// CreateCommodity adds a currency or security.
func (s *ledgerService) CreateCommodity(ctx context.Context, c *models.Commodity) (*models.Commodity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func() error { return s.book.Add(c) }); err != nil {
		return nil, err
	}
	return s.book.Commodity(c.ID)
}

// ListCommodities returns every commodity ordered by namespace and mnemonic.
func (s *ledgerService) ListCommodities(_ context.Context) []models.Commodity {
	return s.book.Commodities()
}

// LookupCommodity finds a stored commodity by namespace and mnemonic.
func (s *ledgerService) LookupCommodity(ctx context.Context, namespace, mnemonic string) (*models.Commodity, error) {
	return s.store.FindCommodity(ctx, namespace, mnemonic)
}

// CreateAccount adds an account. Without a parent it is created under the root.
func (s *ledgerService) CreateAccount(ctx context.Context, a *models.Account) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func() error { return s.book.Add(a) }); err != nil {
		return nil, err
	}
	return s.accountView(a.ID)
}

// ListAccounts returns every account but the root, ordered by full name.
func (s *ledgerService) ListAccounts(_ context.Context) ([]AccountView, error) {
	rootID := s.book.RootAccountID()
	var views []AccountView
	for _, a := range s.book.Accounts() {
		if a.ID == rootID {
			continue
		}
		v, err := s.accountView(a.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// GetAccount returns one account with its balance.
func (s *ledgerService) GetAccount(_ context.Context, id string) (*AccountView, error) {
	return s.accountView(id)
}

// FindAccounts returns the stored accounts with the given short name.
func (s *ledgerService) FindAccounts(ctx context.Context, name string) ([]models.Account, error) {
	return s.store.FindAccountsByName(ctx, name)
}

func (s *ledgerService) accountView(id string) (*AccountView, error) {
	a, err := s.book.Account(id)
	if err != nil {
		return nil, err
	}
	balance, err := s.book.Balance(id)
	if err != nil {
		return nil, err
	}
	return &AccountView{Account: *a, FullName: s.book.FullName(id), Balance: balance.String()}, nil
}

// PostTransaction validates and commits a transaction with its splits.
func (s *ledgerService) PostTransaction(ctx context.Context, txn *models.Transaction, splits []*models.Split) (*TransactionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(splits) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a transaction needs at least one split")
	}
	if err := s.commit(ctx, func() error { return s.book.Post(txn, splits...) }); err != nil {
		return nil, err
	}
	logger.Get().Infow("Transaction posted", "transaction_id", txn.ID, "splits", len(splits))
	return s.transactionView(txn.ID)
}

// GetTransaction returns a transaction with its splits.
func (s *ledgerService) GetTransaction(_ context.Context, id string) (*TransactionView, error) {
	return s.transactionView(id)
}

func (s *ledgerService) transactionView(id string) (*TransactionView, error) {
	t, err := s.book.Transaction(id)
	if err != nil {
		return nil, err
	}
	return &TransactionView{Transaction: *t, Splits: s.book.TransactionSplits(id)}, nil
}

// ListTransactions returns one page of transactions ordered by post date.
func (s *ledgerService) ListTransactions(_ context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	result := pagination.Slice(s.book.Transactions(), page)
	return &result, nil
}

// DeleteTransaction removes a transaction and its splits.
func (s *ledgerService) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, func() error {
		return s.book.Delete(&models.Transaction{Base: models.Base{ID: id}})
	})
}

// CreateLot opens a lot on an account.
func (s *ledgerService) CreateLot(ctx context.Context, l *models.Lot) (*models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func() error { return s.book.Add(l) }); err != nil {
		return nil, err
	}
	return s.book.Lot(l.ID)
}

// GetLotStatus reports the balance of a lot and whether it is closed.
func (s *ledgerService) GetLotStatus(_ context.Context, id string) (*LotStatus, error) {
	lot, err := s.book.Lot(id)
	if err != nil {
		return nil, err
	}
	closed, balance, err := s.book.CloseCheck(id)
	if err != nil {
		return nil, err
	}
	return &LotStatus{Lot: *lot, Balance: balance.String(), Closed: closed, Splits: s.book.LotSplits(id)}, nil
}

// FinalizeLot marks a lot closed; the commit fails unless it nets to zero.
func (s *ledgerService) FinalizeLot(ctx context.Context, id string) (*LotStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func() error { return s.book.FinalizeLot(id) }); err != nil {
		return nil, err
	}
	return s.GetLotStatus(ctx, id)
}

// AddPrice records a price entered by hand.
func (s *ledgerService) AddPrice(ctx context.Context, p *models.Price) (*models.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func() error { return s.book.Add(p) }); err != nil {
		return nil, err
	}
	return p, nil
}

// LatestPrice returns the stored price in effect at asOf.
func (s *ledgerService) LatestPrice(ctx context.Context, commodityID, currencyID string, asOf time.Time) (*models.Price, error) {
	p, err := s.store.LatestPrice(ctx, commodityID, currencyID, asOf)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.WithDetails(apperrors.ErrNoPriceAvailable, apperrors.ErrNoPriceAvailable.Message,
			map[string]any{
				"commodity_id": commodityID,
				"currency_id":  currencyID,
				"as_of":        asOf.Format(time.DateOnly),
			})
	}
	return p, nil
}

// PriceHistory returns one page of a commodity's prices, newest first.
func (s *ledgerService) PriceHistory(ctx context.Context, commodityID string, page pagination.PageRequest) (*pagination.PageResponse[models.Price], error) {
	if _, err := s.book.Commodity(commodityID); err != nil {
		return nil, err
	}
	page.Defaults()
	prices, total, err := s.store.PriceHistory(ctx, commodityID, page)
	if err != nil {
		return nil, err
	}
	result := pagination.NewPageResponse(prices, page.Page, page.PageSize, total)
	return &result, nil
}

// Convert expresses an amount of one commodity in another.
func (s *ledgerService) Convert(_ context.Context, amount numeric.Value, fromID, toID string, asOf time.Time) (numeric.Value, error) {
	return s.book.Convert(amount, fromID, toID, asOf)
}

// RefreshPrices fetches and commits new prices for a commodity. Refreshes are
// serialised with other writes.
func (s *ledgerService) RefreshPrices(ctx context.Context, commodityID string, start time.Time) (int, error) {
	if s.provider == nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "no price provider configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var added int
	err := s.commit(ctx, func() error {
		var err error
		added, err = s.book.RefreshPrices(ctx, s.provider, commodityID, start)
		return err
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Check re-validates every transaction in the book.
func (s *ledgerService) Check(_ context.Context) []error {
	return s.book.Check()
}
