package book

import (
	"context"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/store"
	"ledger/internal/validator"
)

// RootAccountName is the name given to the root of a new book.
const RootAccountName = "Root Account"

// CreateOptions control the creation of a new book.
type CreateOptions struct {
	Options

	// DefaultCurrency is the ISO 4217 mnemonic of the book's currency.
	// Defaults to EUR.
	DefaultCurrency    string
	UseTradingAccounts bool
}

// Create initialises an empty store with a book, its default currency and a
// root account, writes the schema versions, and opens the result.
func Create(ctx context.Context, st *store.Store, opts CreateOptions) (*Book, error) {
	snap, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Book != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "store already contains a book")
	}

	mnemonic := opts.DefaultCurrency
	if mnemonic == "" {
		mnemonic = "EUR"
	}
	fraction, ok := validator.CurrencyFraction(mnemonic)
	if !ok {
		return nil, apperrors.WithMessagef(apperrors.ErrInvalidInput, "unknown currency %q", mnemonic)
	}

	var creates []any
	var currency *models.Commodity
	for i := range snap.Commodities {
		if snap.Commodities[i].Key() == models.CommodityKey(models.NamespaceCurrency, mnemonic) {
			currency = &snap.Commodities[i]
		}
	}
	if currency == nil {
		currency = &models.Commodity{
			Namespace:   models.NamespaceCurrency,
			Mnemonic:    mnemonic,
			Fullname:    mnemonic,
			Fraction:    fraction,
			QuoteFlag:   true,
			QuoteSource: QuoteSourceCurrency,
		}
		currency.EnsureID()
		creates = append(creates, currency)
	}

	root := &models.Account{Name: RootAccountName, Type: models.AccountTypeRoot}
	root.EnsureID()
	rec := &models.Book{
		RootAccountID:      &root.ID,
		DefaultCurrencyID:  &currency.ID,
		UseTradingAccounts: opts.UseTradingAccounts,
	}
	rec.EnsureID()
	creates = append(creates, root, rec)

	if err := st.Apply(ctx, &store.Batch{Creates: creates}); err != nil {
		return nil, err
	}
	if err := st.WriteVersions(ctx, models.SchemaVersions); err != nil {
		return nil, err
	}

	return Open(ctx, st, opts.Options)
}

// Open loads the book held by st. A read-write open takes the advisory lock;
// either mode fails with ErrBookLocked when another process holds it, unless
// opts.OpenIfLocked is set.
func Open(ctx context.Context, st *store.Store, opts Options) (*Book, error) {
	if err := checkVersions(ctx, st); err != nil {
		return nil, err
	}

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Book == nil {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "store contains no book")
	}

	b := newBook(st, opts)
	if b.opts.ReadOnly {
		if err := b.checkForeignLocks(ctx); err != nil {
			return nil, err
		}
	} else {
		if err := st.AcquireLock(ctx, b.opts.Hostname, b.opts.PID, b.opts.OpenIfLocked); err != nil {
			return nil, err
		}
		b.holdsLock = true
	}

	b.live = graphFromSnapshot(snap)
	b.clean = b.live.clone()

	b.log.Infow("Book opened",
		"book_id", b.live.book.ID,
		"readonly", b.opts.ReadOnly,
		"accounts", len(b.live.accounts),
		"transactions", len(b.live.transactions),
	)
	return b, nil
}

// Close releases the advisory lock. Staged changes that were never committed
// are discarded.
func (b *Book) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if len(b.dirty) > 0 {
		b.log.Warnw("Closing book with uncommitted changes", "changes", len(b.dirty))
	}
	if b.holdsLock {
		b.holdsLock = false
		return b.store.ReleaseLock(ctx, b.opts.Hostname, b.opts.PID)
	}
	return nil
}

func (b *Book) checkForeignLocks(ctx context.Context) error {
	if b.opts.OpenIfLocked {
		return nil
	}
	locks, err := b.store.Locks(ctx)
	if err != nil {
		return err
	}
	for _, l := range locks {
		if l.Hostname != b.opts.Hostname || l.PID != b.opts.PID {
			return apperrors.WithDetails(apperrors.ErrBookLocked, apperrors.ErrBookLocked.Message, map[string]any{
				"hostname": l.Hostname,
				"pid":      l.PID,
			})
		}
	}
	return nil
}

func checkVersions(ctx context.Context, st *store.Store) error {
	found, err := st.Versions(ctx)
	if err != nil {
		return err
	}
	for component, want := range models.SchemaVersions {
		got, ok := found[component]
		if !ok || got != want {
			return apperrors.WithDetails(apperrors.ErrVersionMismatch,
				"unsupported version of table "+component,
				map[string]any{"component": component, "found": got, "expected": want})
		}
	}
	return nil
}
