package book

import (
	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
)

// resolve maps every staged change to the transactions that must be validated
// again, and to the lots whose balance it may have changed. Both are returned
// in ascending ID order.
func (b *Book) resolve() (txns, lots []string, err error) {
	txnSet := make(idSet)
	lotSet := make(idSet)
	addTxn := func(id string) {
		if _, ok := b.live.transactions[id]; ok {
			txnSet.add(id)
		}
	}
	addSplitsOf := func(index map[string]idSet, key string) {
		for sid := range index[key] {
			addTxn(b.live.splits[sid].TransactionID)
		}
	}

	ids := make(idSet, len(b.dirty))
	for id := range b.dirty {
		ids.add(id)
	}
	for _, id := range ids.sorted() {
		c := b.dirty[id]
		switch c.kind {
		case kindSplit:
			if s, ok := b.live.splits[id]; ok {
				addTxn(s.TransactionID)
				if s.LotID != nil {
					lotSet.add(*s.LotID)
				}
			}
			// A moved or deleted split leaves its former transaction and lot
			// changed.
			if old, ok := b.clean.splits[id]; ok {
				addTxn(old.TransactionID)
				if old.LotID != nil {
					lotSet.add(*old.LotID)
				}
			}
		case kindTransaction:
			addTxn(id)
		case kindLot:
			addSplitsOf(b.live.splitsByLot, id)
			lotSet.add(id)
		case kindAccount:
			a, ok := b.live.accounts[id]
			if !ok {
				continue
			}
			if old, ok := b.clean.accounts[id]; ok && old.Commodity() != a.Commodity() {
				if len(b.live.splitsByAccount[id]) > 0 || len(b.clean.splitsByAccount[id]) > 0 {
					return nil, nil, apperrors.WithDetails(apperrors.ErrAccountCommodityChange,
						"commodity of account "+b.live.fullName(id)+" cannot change once splits exist",
						map[string]any{"account_id": id})
				}
			}
			addSplitsOf(b.live.splitsByAccount, id)
		case kindCommodity:
			for tid, t := range b.live.transactions {
				if t.CurrencyID == id {
					addTxn(tid)
				}
			}
		}
	}
	return txnSet.sorted(), lotSet.sorted(), nil
}

// validateTransaction runs the balance checks on one transaction. The first
// failing check wins. It may fill in quantities and, when correct is set, add
// or adjust trading splits, all of which are staged with the batch.
func (b *Book) validateTransaction(id string, correct bool) error {
	t := b.live.transactions[id]

	// Currency well-formedness.
	cur, ok := b.live.commodities[t.CurrencyID]
	if !ok || !cur.IsCurrency() {
		key := t.CurrencyID
		if ok {
			key = cur.Key()
		}
		return apperrors.WithDetails(apperrors.ErrInvalidTransactionCurrency,
			"transaction currency "+key+" is not a currency",
			map[string]any{"transaction_id": id, "currency": key})
	}
	if old, ok := b.clean.transactions[id]; ok && old.CurrencyID != t.CurrencyID {
		return apperrors.WithDetails(apperrors.ErrInvalidTransactionCurrency,
			"currency of a transaction cannot be changed",
			map[string]any{"transaction_id": id, "currency": cur.Key()})
	}

	splits := b.live.splitsOf(id)

	// Quantity against value, split by split.
	for _, s := range splits {
		if err := b.checkQuantity(t, s); err != nil {
			return err
		}
	}

	// Value balance.
	if len(splits) == 0 {
		return apperrors.WithDetails(apperrors.ErrEmptyTransaction, apperrors.ErrEmptyTransaction.Message,
			map[string]any{"transaction_id": id})
	}
	sum, err := b.valueSum(t, splits)
	if err != nil {
		return err
	}
	if !sum.IsZero() {
		return imbalanced(id, sum, cur.Key())
	}

	// Quantity balance per commodity, through trading accounts.
	if b.live.book.UseTradingAccounts {
		if err := b.balanceTrading(t, cur, correct); err != nil {
			return err
		}
		splits = b.live.splitsOf(id)
	}

	// Lot consistency.
	checked := make(map[string]bool)
	for _, s := range splits {
		if s.LotID == nil || checked[*s.LotID] {
			continue
		}
		checked[*s.LotID] = true
		if err := b.checkLot(s); err != nil {
			return err
		}
	}
	return nil
}

// checkQuantity enforces the quantity rules of one split. When the account
// holds the transaction currency a missing quantity is copied from the value.
func (b *Book) checkQuantity(t *models.Transaction, s *models.Split) error {
	account := b.live.accounts[s.AccountID]
	details := map[string]any{
		"transaction_id": t.ID,
		"split_id":       s.ID,
		"value":          s.Value.String(),
		"quantity":       s.Quantity.String(),
	}

	if account.Commodity() == t.CurrencyID {
		if !s.Quantity.IsSet() {
			s.Quantity = s.Value
			b.mark(s.ID, kindSplit, opUpdate)
			return nil
		}
		if s.Quantity.Cmp(s.Value) != 0 {
			return apperrors.WithDetails(apperrors.ErrQuantityValueMismatch,
				"quantity must equal value when the account holds the transaction currency", details)
		}
		return nil
	}

	if !s.Quantity.IsSet() {
		details["reason"] = "missing_quantity"
		return apperrors.WithDetails(apperrors.ErrQuantityValueMismatch,
			"quantity is required when the account commodity differs from the transaction currency", details)
	}
	if account.Type != models.AccountTypeTrading && s.Value.Sign()*s.Quantity.Sign() < 0 {
		return apperrors.WithDetails(apperrors.ErrQuantitySignMismatch, apperrors.ErrQuantitySignMismatch.Message, details)
	}
	return nil
}

// checkLot checks a split's lot: same account, and a zero balance once the
// lot is finalized.
func (b *Book) checkLot(s *models.Split) error {
	lot, ok := b.live.lots[*s.LotID]
	if !ok {
		return apperrors.WithDetails(apperrors.ErrLotNotFound, apperrors.ErrLotNotFound.Message,
			map[string]any{"split_id": s.ID, "lot_id": *s.LotID})
	}
	if lot.AccountID != s.AccountID {
		return lotAccountMismatch(s, lot)
	}
	return b.checkClosedLot(lot, s.TransactionID)
}

// checkClosedLot requires a finalized lot's member quantities to net to zero.
// txnID names the transaction that led to the check, if any.
func (b *Book) checkClosedLot(lot *models.Lot, txnID string) error {
	if !lot.IsClosed {
		return nil
	}
	sum, err := b.lotQuantity(lot.ID)
	if err != nil {
		return err
	}
	if sum.IsZero() {
		return nil
	}
	details := map[string]any{
		"lot_id":   lot.ID,
		"residual": sum.String(),
	}
	if txnID != "" {
		details["transaction_id"] = txnID
	}
	return apperrors.WithDetails(apperrors.ErrLotNotClosed, apperrors.ErrLotNotClosed.Message, details)
}

// outOfRange reports a transaction whose amounts no longer fit in 64 bits
// once summed.
func outOfRange(txnID string, err error) error {
	return apperrors.WithDetails(apperrors.ErrImbalancedTransaction,
		"transaction "+txnID+" amounts exceed the representable range",
		map[string]any{
			"transaction_id": txnID,
			"reason":         "overflow",
			"error":          err.Error(),
		})
}

func imbalanced(txnID string, residual numeric.Value, commodity string) error {
	return apperrors.WithDetails(apperrors.ErrImbalancedTransaction,
		"transaction "+txnID+" is imbalanced by "+residual.String()+" "+commodity,
		map[string]any{
			"transaction_id": txnID,
			"residual":       residual.String(),
			"commodity":      commodity,
		})
}
