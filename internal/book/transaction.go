package book

import (
	"sort"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
)

// Transaction returns a copy of the transaction with the given handle.
func (b *Book) Transaction(id string) (*models.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.live.transactions[id]
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

// Transactions returns copies of every transaction ordered by post date.
func (b *Book) Transactions() []models.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Transaction, 0, len(b.live.transactions))
	for _, t := range b.live.transactions {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PostDate.Equal(out[j].PostDate) {
			return out[i].PostDate.Before(out[j].PostDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Split returns a copy of the split with the given handle.
func (b *Book) Split(id string) (*models.Split, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.live.splits[id]
	if !ok {
		return nil, apperrors.ErrSplitNotFound
	}
	cp := *s
	return &cp, nil
}

// TransactionSplits returns copies of a transaction's splits, in ID order.
func (b *Book) TransactionSplits(txnID string) []models.Split {
	b.mu.Lock()
	defer b.mu.Unlock()
	splits := b.live.splitsOf(txnID)
	out := make([]models.Split, len(splits))
	for i, s := range splits {
		out[i] = *s
	}
	return out
}

// Post stages a transaction together with its splits. Each split's
// TransactionID is set to the new transaction. If any record is refused,
// nothing is staged and the IDs Post assigned are cleared again, so the same
// records can be fixed and posted anew.
func (b *Book) Post(txn *models.Transaction, splits ...*models.Split) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	txnID := txn.ID
	splitIDs := make([]string, len(splits))
	for i, s := range splits {
		splitIDs[i] = s.ID
	}
	if err := b.addTransaction(txn); err != nil {
		txn.ID = txnID
		return err
	}
	for _, s := range splits {
		s.TransactionID = txn.ID
		if err := b.addSplit(s); err != nil {
			_ = b.deleteTransaction(txn.ID)
			txn.ID = txnID
			for i, s := range splits {
				s.ID = splitIDs[i]
				s.TransactionID = ""
			}
			return err
		}
	}
	return nil
}

// ValueSum returns the sum of a transaction's split values, in its currency.
func (b *Book) ValueSum(txnID string) (numeric.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.live.transactions[txnID]
	if !ok {
		return numeric.Value{}, apperrors.ErrTransactionNotFound
	}
	return b.valueSum(t, b.live.splitsOf(txnID))
}

func (b *Book) valueSum(t *models.Transaction, splits []*models.Split) (numeric.Value, error) {
	fraction := int64(1)
	if c, ok := b.live.commodities[t.CurrencyID]; ok {
		fraction = c.Fraction
	}
	sum := numeric.Zero(fraction)
	for _, s := range splits {
		var err error
		if sum, err = sum.Add(s.Value); err != nil {
			return numeric.Value{}, outOfRange(t.ID, err)
		}
	}
	return sum, nil
}
