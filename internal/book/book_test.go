package book

import (
	"context"
	"testing"
	"time"

	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/store"
	"ledger/internal/testutil"

	"gorm.io/gorm"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{Hostname: "test-host", PID: 1, Now: func() time.Time { return testNow }}
}

// cents parses an amount in a two-decimal currency.
func cents(s string) numeric.Value { return numeric.MustParse(s, 100) }

// units parses a whole-unit security quantity.
func units(s string) numeric.Value { return numeric.MustParse(s, 1) }

func split(account *models.Account, value string) *models.Split {
	return &models.Split{AccountID: account.ID, Value: cents(value)}
}

type harness struct {
	db *gorm.DB
	st *store.Store
	f  *testutil.Fixture
	b  *Book
}

// setup opens the fixture book for writing.
func setup(t *testing.T, useTradingAccounts bool) *harness {
	t.Helper()

	db := testutil.SetupTestDB(t)
	f := testutil.SeedBook(t, db, useTradingAccounts)
	st := store.New(db)
	b, err := Open(context.Background(), st, testOptions())
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return &harness{db: db, st: st, f: f, b: b}
}

// post stages and commits a transaction, failing the test on error.
func (h *harness) post(t *testing.T, currency *models.Commodity, splits ...*models.Split) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{CurrencyID: currency.ID, Description: "test"}
	testutil.AssertNoError(t, h.b.Post(txn, splits...))
	testutil.AssertNoError(t, h.b.Commit(context.Background()))
	return txn
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("new_book", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		st := store.New(db)
		b, err := Create(ctx, st, CreateOptions{Options: testOptions(), DefaultCurrency: "USD", UseTradingAccounts: true})
		testutil.AssertNoError(t, err)
		defer b.Close(ctx)

		cur, err := b.DefaultCurrency()
		testutil.AssertNoError(t, err)
		if cur.Mnemonic != "USD" || cur.Fraction != 100 {
			t.Errorf("expected USD with fraction 100, got %s/%d", cur.Mnemonic, cur.Fraction)
		}
		root, err := b.Account(b.RootAccountID())
		testutil.AssertNoError(t, err)
		if root.Type != models.AccountTypeRoot || root.Name != RootAccountName {
			t.Errorf("unexpected root account %+v", root)
		}
		if !b.UseTradingAccounts() {
			t.Error("expected trading accounts to be enabled")
		}
		if !b.IsSaved() {
			t.Error("expected a freshly created book to have no staged changes")
		}

		versions, err := st.Versions(ctx)
		testutil.AssertNoError(t, err)
		if len(versions) != len(models.SchemaVersions) {
			t.Errorf("expected %d versions, got %d", len(models.SchemaVersions), len(versions))
		}
		testutil.AssertCount(t, db, &models.Lock{}, 1)
	})

	t.Run("store_already_has_book", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.SeedBook(t, db, false)
		_, err := Create(ctx, store.New(db), CreateOptions{Options: testOptions()})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, err := Create(ctx, store.New(db), CreateOptions{Options: testOptions(), DefaultCurrency: "XYZ"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		testutil.AssertCount(t, db, &models.Book{}, 0)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_store", func(t *testing.T) {
		_, err := Open(ctx, store.New(testutil.SetupTestDB(t)), testOptions())
		testutil.AssertAppError(t, err, "VERSION_MISMATCH")
	})

	t.Run("version_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.SeedBook(t, db, false)
		err := db.Model(&models.Version{}).Where("component = ?", "splits").Update("number", 2).Error
		testutil.AssertNoError(t, err)

		_, err = Open(ctx, store.New(db), testOptions())
		appErr := testutil.AssertAppError(t, err, "VERSION_MISMATCH")
		if appErr.Details["component"] != "splits" {
			t.Errorf("expected splits component in details, got %v", appErr.Details)
		}
	})

	t.Run("loads_graph", func(t *testing.T) {
		h := setup(t, false)
		if h.b.ID() != h.f.Book.ID {
			t.Errorf("expected book %s, got %s", h.f.Book.ID, h.b.ID())
		}
		if got := len(h.b.Accounts()); got != 6 {
			t.Errorf("expected 6 accounts, got %d", got)
		}
		if got := h.b.FullName(h.f.USDBank.ID); got != "usd bank" {
			t.Errorf("expected full name 'usd bank', got %q", got)
		}
	})
}

func TestOpen_Locking(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	testutil.SeedBook(t, db, false)
	st := store.New(db)

	first, err := Open(ctx, st, testOptions())
	testutil.AssertNoError(t, err)

	other := Options{Hostname: "other-host", PID: 2, Now: testOptions().Now}

	t.Run("writer_refused", func(t *testing.T) {
		_, err := Open(ctx, st, other)
		appErr := testutil.AssertAppError(t, err, "BOOK_LOCKED")
		if appErr.Details["hostname"] != "test-host" {
			t.Errorf("expected lock holder in details, got %v", appErr.Details)
		}
	})

	t.Run("reader_refused", func(t *testing.T) {
		ro := other
		ro.ReadOnly = true
		_, err := Open(ctx, st, ro)
		testutil.AssertAppError(t, err, "BOOK_LOCKED")
	})

	t.Run("reader_open_if_locked", func(t *testing.T) {
		ro := other
		ro.ReadOnly = true
		ro.OpenIfLocked = true
		b, err := Open(ctx, st, ro)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, b.Close(ctx))
		testutil.AssertCount(t, db, &models.Lock{}, 1)
	})

	t.Run("released_on_close", func(t *testing.T) {
		testutil.AssertNoError(t, first.Close(ctx))
		testutil.AssertCount(t, db, &models.Lock{}, 0)

		b, err := Open(ctx, st, other)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, b.Close(ctx))
	})
}

func TestCommit_ReadOnly(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	f := testutil.SeedBook(t, db, false)

	opts := testOptions()
	opts.ReadOnly = true
	b, err := Open(ctx, store.New(db), opts)
	testutil.AssertNoError(t, err)
	defer b.Close(ctx)

	txn := &models.Transaction{CurrencyID: f.EUR.ID}
	testutil.AssertNoError(t, b.Post(txn, split(f.Asset, "10"), split(f.Expense, "-10")))

	err = b.Commit(ctx)
	testutil.AssertAppError(t, err, "READ_ONLY_VIOLATION")
	testutil.AssertCount(t, db, &models.Transaction{}, 0)
	testutil.AssertCount(t, db, &models.Lock{}, 0)

	if len(b.Transactions()) != 1 {
		t.Error("expected the in-memory edit to survive the refused commit")
	}
}

func TestCommit_Closed(t *testing.T) {
	h := setup(t, false)
	testutil.AssertNoError(t, h.b.Close(context.Background()))

	txn := &models.Transaction{CurrencyID: h.f.EUR.ID}
	testutil.AssertNoError(t, h.b.Post(txn, split(h.f.Asset, "1"), split(h.f.Expense, "-1")))
	testutil.AssertAppError(t, h.b.Commit(context.Background()), "INVALID_INPUT")
}
