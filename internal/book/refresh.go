package book

import (
	"context"
	"time"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/provider"
)

// DefaultRefreshWindow is how far back a refresh without a start date reaches.
const DefaultRefreshWindow = 7 * 24 * time.Hour

// RefreshPrices fetches quotes for a commodity and stages a price for every
// quoted date not yet covered. Currencies are quoted against the book's
// default currency, securities in their quoted currency. The effective start
// is the later of start (today minus DefaultRefreshWindow when zero) and the
// day after the latest stored price, so repeating a refresh adds nothing.
//
// The network call runs without holding the book's lock. The new prices are
// staged only; the caller commits them. It returns the number of prices added.
func (b *Book) RefreshPrices(ctx context.Context, p provider.Provider, commodityID string, start time.Time) (int, error) {
	req, currencyID, err := b.refreshRequest(commodityID, start)
	if err != nil {
		return 0, err
	}
	if req.End.Before(req.Start) {
		return 0, nil
	}

	quotes, err := p.FetchQuotes(ctx, req)
	if err != nil {
		b.log.Warnw("Price refresh failed", "commodity", models.CommodityKey(req.Namespace, req.Mnemonic), "error", err)
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	covered := make(map[time.Time]bool)
	for _, existing := range b.pricesOf(commodityID) {
		if existing.CurrencyID == currencyID {
			covered[provider.Day(existing.Date)] = true
		}
	}

	added := 0
	for _, q := range quotes {
		day := provider.Day(q.Date)
		if day.Before(req.Start) || covered[day] {
			continue
		}
		value, err := numeric.FromDecimal(q.Value, models.PriceFraction)
		if err != nil {
			b.log.Warnw("Quote skipped", "provider", p.Name(), "date", day.Format(time.DateOnly), "error", err)
			continue
		}
		price := &models.Price{
			CommodityID: commodityID,
			CurrencyID:  currencyID,
			Date:        day,
			Source:      "provider:" + p.Name(),
			Type:        models.PriceTypeLast,
			Value:       value,
		}
		if err := b.addPrice(price); err != nil {
			return added, err
		}
		covered[day] = true
		added++
	}

	b.log.Infow("Prices refreshed",
		"commodity", models.CommodityKey(req.Namespace, req.Mnemonic),
		"currency", req.Currency,
		"start", req.Start.Format(time.DateOnly),
		"added", added,
	)
	return added, nil
}

// refreshRequest works out what to ask the provider for, under the lock.
func (b *Book) refreshRequest(commodityID string, start time.Time) (provider.QuoteRequest, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.live.commodities[commodityID]
	if !ok {
		return provider.QuoteRequest{}, "", apperrors.ErrCommodityNotFound
	}
	currency, err := b.baseCurrency(commodityID)
	if err != nil {
		return provider.QuoteRequest{}, "", err
	}
	if currency.ID == c.ID {
		return provider.QuoteRequest{}, "", apperrors.WithMessage(apperrors.ErrInvalidInput,
			"cannot refresh the exchange rate of the default currency")
	}

	today := b.today()
	if start.IsZero() {
		start = today.Add(-DefaultRefreshWindow)
	}
	start = provider.Day(start)
	var last *models.Price
	for _, p := range b.pricesOf(commodityID) {
		if p.CurrencyID == currency.ID {
			last = p
		}
	}
	if last != nil {
		next := provider.Day(last.Date).AddDate(0, 0, 1)
		if next.After(start) {
			start = next
		}
	}

	return provider.QuoteRequest{
		Namespace: c.Namespace,
		Mnemonic:  c.Mnemonic,
		Currency:  currency.Mnemonic,
		Start:     start,
		End:       today,
	}, currency.ID, nil
}
