package book

import (
	"sort"
	"time"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
)

// Prices returns copies of a commodity's prices, oldest first.
func (b *Book) Prices(commodityID string) []models.Price {
	b.mu.Lock()
	defer b.mu.Unlock()
	sorted := b.pricesOf(commodityID)
	out := make([]models.Price, len(sorted))
	for i, p := range sorted {
		out[i] = *p
	}
	return out
}

// pricesOf returns the prices of a commodity ordered by date, then ID.
func (b *Book) pricesOf(commodityID string) []*models.Price {
	ids := b.live.pricesByCommodity[commodityID]
	out := make([]*models.Price, 0, len(ids))
	for id := range ids {
		out = append(out, b.live.prices[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LatestPrice returns the most recent price of commodity in currency dated at
// or before asOf, or nil when there is none. Staged prices are included.
func (b *Book) LatestPrice(commodityID, currencyID string, asOf time.Time) *models.Price {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.latestPrice(commodityID, currencyID, asOf)
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (b *Book) latestPrice(commodityID, currencyID string, asOf time.Time) *models.Price {
	var latest *models.Price
	for _, p := range b.pricesOf(commodityID) {
		if p.CurrencyID != currencyID || p.Date.After(asOf) {
			continue
		}
		latest = p
	}
	return latest
}

// Convert expresses amount of commodity from in commodity to, using the latest
// price at asOf. A direct price is preferred; otherwise the reverse price is
// inverted. The result is rounded half to even to the target fraction.
func (b *Book) Convert(amount numeric.Value, fromID, toID string, asOf time.Time) (numeric.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from, ok := b.live.commodities[fromID]
	if !ok {
		return numeric.Value{}, apperrors.ErrCommodityNotFound
	}
	to, ok := b.live.commodities[toID]
	if !ok {
		return numeric.Value{}, apperrors.ErrCommodityNotFound
	}
	if fromID == toID {
		return amount, nil
	}

	if p := b.latestPrice(fromID, toID, asOf); p != nil {
		return converted(amount.Mul(p.Value, to.Fraction))
	}
	if p := b.latestPrice(toID, fromID, asOf); p != nil && !p.Value.IsZero() {
		return converted(amount.Div(p.Value, to.Fraction))
	}

	return numeric.Value{}, apperrors.WithDetails(apperrors.ErrNoPriceAvailable,
		"no price available to convert "+from.Key()+" to "+to.Key(),
		map[string]any{
			"from":  from.Key(),
			"to":    to.Key(),
			"as_of": asOf.Format(time.DateOnly),
		})
}

func converted(v numeric.Value, err error) (numeric.Value, error) {
	if err != nil {
		return numeric.Value{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "converted amount exceeds the representable range")
	}
	return v, nil
}
