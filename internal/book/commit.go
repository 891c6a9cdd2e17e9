package book

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/store"
)

// Audit actions recorded for committed transactions.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// Validate runs the commit-time checks on the staged changes without writing
// anything. Quantities it derives and trading splits it adds stay staged.
func (b *Book) Validate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.validate()
	return err
}

func (b *Book) validate() ([]string, error) {
	txns, lots, err := b.resolve()
	if err != nil {
		return nil, err
	}
	for _, id := range txns {
		if err := b.validateTransaction(id, true); err != nil {
			return nil, err
		}
	}
	// Splits leaving a lot are no longer in any transaction that points at it.
	for _, id := range lots {
		if lot, ok := b.live.lots[id]; ok {
			if err := b.checkClosedLot(lot, ""); err != nil {
				return nil, err
			}
		}
	}
	return txns, nil
}

// Commit validates the staged changes and writes them in one database
// transaction. On a validation error nothing is written and the staged
// changes are kept so the caller can fix them or Rollback.
func (b *Book) Commit(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "book is closed")
	}
	if b.opts.ReadOnly {
		return apperrors.ErrReadOnlyViolation
	}
	if len(b.dirty) == 0 {
		return nil
	}

	txns, err := b.validate()
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			b.log.Warnw("Commit rejected", "code", appErr.Code, "details", appErr.Details, "changes", len(b.dirty))
		}
		return err
	}

	batch := b.buildBatch(txns)
	if err := b.store.Apply(ctx, batch); err != nil {
		b.log.Errorw("Commit failed", "error", err, "changes", len(b.dirty))
		return err
	}

	b.log.Infow("Commit applied",
		"creates", len(batch.Creates),
		"updates", len(batch.Updates),
		"deletes", len(batch.Deletes),
		"transactions", len(batch.Audit),
	)
	b.clean = b.live.clone()
	b.dirty = make(map[string]*change)
	return nil
}

// Rollback discards every staged change by reloading the book from the store.
func (b *Book) Rollback(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, err := b.store.Load(ctx)
	if err != nil {
		return err
	}
	if snap.Book == nil {
		return apperrors.WithMessage(apperrors.ErrNotFound, "store contains no book")
	}
	discarded := len(b.dirty)
	b.live = graphFromSnapshot(snap)
	b.clean = b.live.clone()
	b.dirty = make(map[string]*change)
	b.log.Infow("Staged changes discarded", "changes", discarded)
	return nil
}

// Check validates every transaction of the book, including committed ones,
// and returns one error per failing transaction. Trading splits are not
// corrected, so a transaction lacking them is reported. Nothing is staged.
func (b *Book) Check() []error {
	b.mu.Lock()
	defer b.mu.Unlock()

	live, dirty := b.live, b.dirty
	b.live = live.clone()
	b.dirty = make(map[string]*change)
	defer func() {
		b.live, b.dirty = live, dirty
	}()

	ids := make(idSet, len(b.live.transactions))
	for id := range b.live.transactions {
		ids.add(id)
	}
	var errs []error
	for _, id := range ids.sorted() {
		if err := b.validateTransaction(id, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

type stagedRecord struct {
	id    string
	kind  kind
	depth int
}

// buildBatch turns the staged changes into store operations: creates parents
// first, deletes children first.
func (b *Book) buildBatch(txns []string) *store.Batch {
	var creates, updates, deletes []stagedRecord
	for id, c := range b.dirty {
		r := stagedRecord{id: id, kind: c.kind}
		if c.kind == kindAccount {
			if c.op == opDelete {
				r.depth = b.clean.depth(id)
			} else {
				r.depth = b.live.depth(id)
			}
		}
		switch c.op {
		case opCreate:
			creates = append(creates, r)
		case opUpdate:
			updates = append(updates, r)
		case opDelete:
			deletes = append(deletes, r)
		}
	}

	parentsFirst := func(rs []stagedRecord) func(i, j int) bool {
		return func(i, j int) bool {
			if rs[i].kind != rs[j].kind {
				return rs[i].kind < rs[j].kind
			}
			if rs[i].depth != rs[j].depth {
				return rs[i].depth < rs[j].depth
			}
			return rs[i].id < rs[j].id
		}
	}
	sort.Slice(creates, parentsFirst(creates))
	sort.Slice(updates, parentsFirst(updates))
	sort.Slice(deletes, parentsFirst(deletes))

	batch := &store.Batch{}
	for _, r := range creates {
		batch.Creates = append(batch.Creates, b.live.record(r.kind, r.id))
	}
	for _, r := range updates {
		batch.Updates = append(batch.Updates, b.live.record(r.kind, r.id))
	}
	for i := len(deletes) - 1; i >= 0; i-- {
		batch.Deletes = append(batch.Deletes, b.clean.record(deletes[i].kind, deletes[i].id))
	}
	batch.Audit = b.auditEntries(txns)
	return batch
}

// record returns the stored pointer of a record, for handing to the store.
func (g *graph) record(k kind, id string) any {
	switch k {
	case kindCommodity:
		return g.commodities[id]
	case kindBook:
		return &g.book
	case kindAccount:
		return g.accounts[id]
	case kindLot:
		return g.lots[id]
	case kindTransaction:
		return g.transactions[id]
	case kindSplit:
		return g.splits[id]
	case kindPrice:
		return g.prices[id]
	}
	return nil
}

// auditEntries describes every transaction the batch creates, changes or deletes.
func (b *Book) auditEntries(validated []string) []models.AuditLog {
	actions := make(map[string]string, len(validated))
	for _, id := range validated {
		actions[id] = AuditUpdate
	}
	for id, c := range b.dirty {
		if c.kind != kindTransaction {
			continue
		}
		switch c.op {
		case opCreate:
			actions[id] = AuditCreate
		case opDelete:
			actions[id] = AuditDelete
		}
	}

	ids := make(idSet, len(actions))
	for id := range actions {
		ids.add(id)
	}
	entries := make([]models.AuditLog, 0, len(actions))
	for _, id := range ids.sorted() {
		g := b.live
		if actions[id] == AuditDelete {
			g = b.clean
		}
		entries = append(entries, models.AuditLog{
			Action:       actions[id],
			ResourceType: "transaction",
			ResourceID:   id,
			Changes:      b.describe(g, id),
		})
	}
	return entries
}

type splitSummary struct {
	Account  string `json:"account"`
	Value    string `json:"value"`
	Quantity string `json:"quantity"`
}

// describe renders a transaction and its splits as JSON for the audit log.
func (b *Book) describe(g *graph, id string) string {
	t, ok := g.transactions[id]
	if !ok {
		return "{}"
	}
	currency := t.CurrencyID
	if c, ok := g.commodities[t.CurrencyID]; ok {
		currency = c.Key()
	}
	splits := g.splitsOf(id)
	summary := make([]splitSummary, len(splits))
	for i, s := range splits {
		summary[i] = splitSummary{
			Account:  g.fullName(s.AccountID),
			Value:    s.Value.String(),
			Quantity: s.Quantity.String(),
		}
	}
	data, err := json.Marshal(map[string]any{
		"description": t.Description,
		"currency":    currency,
		"post_date":   t.PostDate,
		"splits":      summary,
	})
	if err != nil {
		b.log.Errorw("failed to marshal audit log changes", "error", err, "transaction_id", id)
		return "{}"
	}
	return string(data)
}
