package book

import (
	"sort"
	"time"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/validator"
)

// Quote sources recorded on new commodities.
const (
	QuoteSourceCurrency = "currency"
	QuoteSourceYahoo    = "yahoo"
)

// today is midnight UTC of the book clock's current date.
func (b *Book) today() time.Time {
	y, m, d := b.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Commodity returns a copy of the commodity with the given handle.
func (b *Book) Commodity(id string) (*models.Commodity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.live.commodities[id]
	if !ok {
		return nil, apperrors.ErrCommodityNotFound
	}
	cp := *c
	return &cp, nil
}

// LookupCommodity returns the commodity identified by (namespace, mnemonic).
// The pair is unique within a book.
func (b *Book) LookupCommodity(namespace, mnemonic string) (*models.Commodity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.lookupCommodity(namespace, mnemonic)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (b *Book) lookupCommodity(namespace, mnemonic string) (*models.Commodity, error) {
	id, ok := b.live.commodityByKey[models.CommodityKey(namespace, mnemonic)]
	if !ok {
		return nil, apperrors.WithDetails(apperrors.ErrCommodityNotFound, apperrors.ErrCommodityNotFound.Message,
			map[string]any{"commodity": models.CommodityKey(namespace, mnemonic)})
	}
	return b.live.commodities[id], nil
}

// Commodities returns copies of every commodity ordered by namespace and mnemonic.
func (b *Book) Commodities() []models.Commodity {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Commodity, 0, len(b.live.commodities))
	for _, c := range b.live.commodities {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Currency returns the currency with the given ISO 4217 mnemonic. A known ISO
// currency missing from the book is staged for creation with its standard
// fraction.
func (b *Book) Currency(mnemonic string) (*models.Commodity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.currency(mnemonic)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (b *Book) currency(mnemonic string) (*models.Commodity, error) {
	if c, err := b.lookupCommodity(models.NamespaceCurrency, mnemonic); err == nil {
		return c, nil
	}
	if !validator.IsCurrencyCode(mnemonic) {
		return nil, apperrors.WithMessagef(apperrors.ErrCommodityNotFound, "unknown currency %q", mnemonic)
	}
	c := &models.Commodity{Namespace: models.NamespaceCurrency, Mnemonic: mnemonic, QuoteFlag: true}
	if err := b.addCommodity(c); err != nil {
		return nil, err
	}
	b.log.Infow("Currency created", "mnemonic", mnemonic, "fraction", c.Fraction)
	return b.live.commodities[c.ID], nil
}

// DefaultCurrency returns the book's default currency.
func (b *Book) DefaultCurrency() (*models.Commodity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.defaultCurrency()
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (b *Book) defaultCurrency() (*models.Commodity, error) {
	if b.live.book.DefaultCurrencyID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrCommodityNotFound, "book has no default currency")
	}
	c, ok := b.live.commodities[*b.live.book.DefaultCurrencyID]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrCommodityNotFound, "book default currency not found")
	}
	return c, nil
}

// BaseCurrency returns the currency a commodity is priced in: the book's
// default currency for currencies, the quoted currency for securities.
func (b *Book) BaseCurrency(commodityID string) (*models.Commodity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.baseCurrency(commodityID)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (b *Book) baseCurrency(commodityID string) (*models.Commodity, error) {
	c, ok := b.live.commodities[commodityID]
	if !ok {
		return nil, apperrors.ErrCommodityNotFound
	}
	if c.IsCurrency() {
		return b.defaultCurrency()
	}
	if c.QuotedCurrency == "" {
		return nil, apperrors.WithMessagef(apperrors.ErrInvalidInput, "commodity %s has no quoted currency", c.Key())
	}
	return b.currency(c.QuotedCurrency)
}
