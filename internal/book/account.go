package book

import (
	"sort"
	"strings"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
)

// Account returns a copy of the account with the given handle.
func (b *Book) Account(id string) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.live.accounts[id]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

// Accounts returns copies of every account ordered by full name.
func (b *Book) Accounts() []models.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Account, 0, len(b.live.accounts))
	for _, a := range b.live.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return b.live.fullName(out[i].ID) < b.live.fullName(out[j].ID)
	})
	return out
}

// AccountByName returns the oldest account with the given short name. Names
// are only unique among siblings; use AccountByFullName when that matters.
func (b *Book) AccountByName(name string) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var found *models.Account
	for _, a := range b.live.accounts {
		if a.Name == name && (found == nil || a.ID < found.ID) {
			found = a
		}
	}
	if found == nil {
		return nil, apperrors.WithDetails(apperrors.ErrAccountNotFound, apperrors.ErrAccountNotFound.Message,
			map[string]any{"name": name})
	}
	cp := *found
	return &cp, nil
}

// AccountByFullName resolves a colon-separated path from the root, such as
// "Assets:Current:Checking".
func (b *Book) AccountByFullName(fullName string) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.accountByPath(strings.Split(fullName, AccountSeparator))
	if a == nil {
		return nil, apperrors.WithDetails(apperrors.ErrAccountNotFound, apperrors.ErrAccountNotFound.Message,
			map[string]any{"name": fullName})
	}
	cp := *a
	return &cp, nil
}

func (b *Book) accountByPath(path []string) *models.Account {
	current := b.rootID()
	for _, name := range path {
		next := ""
		for _, id := range b.live.children[current].sorted() {
			if b.live.accounts[id].Name == name {
				next = id
				break
			}
		}
		if next == "" {
			return nil
		}
		current = next
	}
	return b.live.accounts[current]
}

// FullName returns the account's path from the root.
func (b *Book) FullName(id string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live.fullName(id)
}

// Children returns copies of an account's direct children ordered by name.
func (b *Book) Children(id string) []models.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := b.live.children[id]
	out := make([]models.Account, 0, len(ids))
	for cid := range ids {
		out = append(out, *b.live.accounts[cid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Splits returns copies of the splits posted to an account, in ID order.
func (b *Book) Splits(accountID string) []models.Split {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := b.live.splitsByAccount[accountID].sorted()
	out := make([]models.Split, len(ids))
	for i, id := range ids {
		out[i] = *b.live.splits[id]
	}
	return out
}

// Balance sums the quantities of an account's splits, in the account's
// commodity. It is computed on demand and includes staged splits.
func (b *Book) Balance(accountID string) (numeric.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.live.accounts[accountID]
	if !ok {
		return numeric.Value{}, apperrors.ErrAccountNotFound
	}
	fraction := int64(1)
	if c, ok := b.live.commodities[a.Commodity()]; ok {
		fraction = c.Fraction
	}
	sum := numeric.Zero(fraction)
	for id := range b.live.splitsByAccount[accountID] {
		var err error
		if sum, err = sum.Add(b.live.splits[id].Quantity); err != nil {
			return numeric.Value{}, apperrors.WithDetails(apperrors.ErrInvalidInput,
				"account balance exceeds the representable range",
				map[string]any{"account_id": accountID, "error": err.Error()})
		}
	}
	return sum, nil
}
