package book

import (
	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
)

func lotAccountMismatch(s *models.Split, lot *models.Lot) error {
	return apperrors.WithDetails(apperrors.ErrLotAccountMismatch,
		"split and lot refer to different accounts",
		map[string]any{
			"transaction_id": s.TransactionID,
			"split_id":       s.ID,
			"lot_id":         lot.ID,
			"split_account":  s.AccountID,
			"lot_account":    lot.AccountID,
		})
}

// Lot returns a copy of the lot with the given handle.
func (b *Book) Lot(id string) (*models.Lot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.live.lots[id]
	if !ok {
		return nil, apperrors.ErrLotNotFound
	}
	cp := *l
	return &cp, nil
}

// LotSplits returns copies of a lot's member splits, in ID order.
func (b *Book) LotSplits(id string) []models.Split {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := b.live.splitsByLot[id].sorted()
	out := make([]models.Split, len(ids))
	for i, sid := range ids {
		out[i] = *b.live.splits[sid]
	}
	return out
}

// AddToLot stages the move of a split into a lot. It fails at once with
// ErrLotAccountMismatch when the split is posted to another account.
func (b *Book) AddToLot(splitID, lotID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.live.splits[splitID]
	if !ok {
		return apperrors.ErrSplitNotFound
	}
	moved := *s
	moved.LotID = &lotID
	if err := b.checkLotMembership(&moved); err != nil {
		return err
	}
	b.live.putSplit(moved)
	b.mark(splitID, kindSplit, opUpdate)
	return nil
}

// CloseCheck sums the quantities of a lot's splits. The lot is closed when the
// sum is zero.
func (b *Book) CloseCheck(id string) (bool, numeric.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.live.lots[id]; !ok {
		return false, numeric.Value{}, apperrors.ErrLotNotFound
	}
	sum, err := b.lotQuantity(id)
	if err != nil {
		return false, numeric.Value{}, err
	}
	return sum.IsZero(), sum, nil
}

func (b *Book) lotQuantity(id string) (numeric.Value, error) {
	fraction := int64(1)
	if lot, ok := b.live.lots[id]; ok {
		if a, ok := b.live.accounts[lot.AccountID]; ok {
			if c, ok := b.live.commodities[a.Commodity()]; ok {
				fraction = c.Fraction
			}
		}
	}
	sum := numeric.Zero(fraction)
	for sid := range b.live.splitsByLot[id] {
		var err error
		if sum, err = sum.Add(b.live.splits[sid].Quantity); err != nil {
			return numeric.Value{}, apperrors.WithDetails(apperrors.ErrInvalidInput,
				"lot quantities exceed the representable range",
				map[string]any{"lot_id": id, "error": err.Error()})
		}
	}
	return sum, nil
}

// FinalizeLot stages the closed flag on a lot. From the next commit on, its
// member quantities must net to zero.
func (b *Book) FinalizeLot(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.live.lots[id]
	if !ok {
		return apperrors.ErrLotNotFound
	}
	if l.IsClosed {
		return nil
	}
	l.IsClosed = true
	b.mark(id, kindLot, opUpdate)
	return nil
}
