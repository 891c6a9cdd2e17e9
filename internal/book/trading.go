package book

import (
	"sort"

	"ledger/internal/models"
	"ledger/internal/numeric"
)

// TradingAccountName is the top-level account under which trading accounts
// are kept, one per namespace and commodity.
const TradingAccountName = "Trading"

// commoditySums totals value and quantity per account commodity.
func (b *Book) commoditySums(txnID string) (values, quantities map[string]numeric.Value, err error) {
	values = make(map[string]numeric.Value)
	quantities = make(map[string]numeric.Value)
	for _, s := range b.live.splitsOf(txnID) {
		c := b.live.accounts[s.AccountID].Commodity()
		if values[c], err = values[c].Add(s.Value); err != nil {
			return nil, nil, outOfRange(txnID, err)
		}
		if quantities[c], err = quantities[c].Add(s.Quantity); err != nil {
			return nil, nil, outOfRange(txnID, err)
		}
	}
	return values, quantities, nil
}

// balanceTrading makes every commodity's quantity net to zero by adjusting,
// or creating, one split per commodity in its trading account. The split takes
// the negated value and quantity residual of the commodity, so the value
// balance is preserved. The correction is applied once, and only when correct
// is set; if the transaction is still unbalanced afterwards it is rejected.
func (b *Book) balanceTrading(t *models.Transaction, cur *models.Commodity, correct bool) error {
	values, quantities, err := b.commoditySums(t.ID)
	if err != nil {
		return err
	}

	commodities := make([]string, 0, len(values))
	for c := range values {
		commodities = append(commodities, c)
	}
	sort.Strings(commodities)

	if correct {
		for _, cid := range commodities {
			val, qty := values[cid], quantities[cid]
			if val.IsZero() && qty.IsZero() {
				continue
			}
			account, err := b.tradingAccount(cid, cur)
			if err != nil {
				return err
			}
			if err := b.absorb(t.ID, account.ID, val, qty); err != nil {
				return err
			}
		}
		if values, quantities, err = b.commoditySums(t.ID); err != nil {
			return err
		}
	}

	total := numeric.Zero(cur.Fraction)
	for _, v := range values {
		if total, err = total.Add(v); err != nil {
			return outOfRange(t.ID, err)
		}
	}
	if !total.IsZero() {
		return imbalanced(t.ID, total, cur.Key())
	}
	commodities = commodities[:0]
	for c := range quantities {
		commodities = append(commodities, c)
	}
	sort.Strings(commodities)
	for _, cid := range commodities {
		if q := quantities[cid]; !q.IsZero() {
			return imbalanced(t.ID, q, b.live.commodities[cid].Key())
		}
	}
	return nil
}

// absorb moves a residual into the transaction's split on a trading account.
func (b *Book) absorb(txnID, accountID string, val, qty numeric.Value) error {
	for _, s := range b.live.splitsOf(txnID) {
		if s.AccountID != accountID {
			continue
		}
		v, err := s.Value.Sub(val)
		if err != nil {
			return outOfRange(txnID, err)
		}
		q, err := s.Quantity.Sub(qty)
		if err != nil {
			return outOfRange(txnID, err)
		}
		s.Value, s.Quantity = v, q
		b.mark(s.ID, kindSplit, opUpdate)
		return nil
	}

	v, err := numeric.Zero(val.Denom).Sub(val)
	if err != nil {
		return outOfRange(txnID, err)
	}
	q, err := numeric.Zero(qty.Denom).Sub(qty)
	if err != nil {
		return outOfRange(txnID, err)
	}
	s := models.Split{
		TransactionID:  txnID,
		AccountID:      accountID,
		ReconcileState: models.ReconcileNew,
		Value:          v,
		Quantity:       q,
	}
	s.EnsureID()
	b.live.putSplit(s)
	b.mark(s.ID, kindSplit, opCreate)
	return nil
}

// tradingAccount returns Trading:<namespace>:<mnemonic> for a commodity,
// staging whichever part of the path is missing.
func (b *Book) tradingAccount(commodityID string, cur *models.Commodity) (*models.Account, error) {
	c := b.live.commodities[commodityID]
	placeholderCurrency := cur
	if def, err := b.defaultCurrency(); err == nil {
		placeholderCurrency = def
	}

	path := []struct {
		name      string
		commodity string
		leaf      bool
	}{
		{TradingAccountName, placeholderCurrency.ID, false},
		{c.Namespace, placeholderCurrency.ID, false},
		{c.Mnemonic, c.ID, true},
	}

	parent := b.rootID()
	var names []string
	var account *models.Account
	for _, step := range path {
		names = append(names, step.name)
		account = b.accountByPath(names)
		if account == nil {
			commodity := step.commodity
			p := parent
			account = &models.Account{
				Name:        step.name,
				Type:        models.AccountTypeTrading,
				CommodityID: &commodity,
				ParentID:    &p,
				Placeholder: !step.leaf,
			}
			if err := b.addAccount(account); err != nil {
				return nil, err
			}
			b.log.Infow("Trading account created", "account", b.live.fullName(account.ID))
			account = b.live.accounts[account.ID]
		}
		parent = account.ID
	}
	return account, nil
}
