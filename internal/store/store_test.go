package store

import (
	"context"
	"testing"
	"time"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/pagination"
	"ledger/internal/testutil"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_store", func(t *testing.T) {
		s := New(testutil.SetupTestDB(t))
		snap, err := s.Load(ctx)
		testutil.AssertNoError(t, err)
		if snap.Book != nil {
			t.Error("expected no book in an empty store")
		}
	})

	t.Run("seeded_book", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		f := testutil.SeedBook(t, db, true)
		snap, err := New(db).Load(ctx)
		testutil.AssertNoError(t, err)
		if snap.Book == nil || snap.Book.ID != f.Book.ID {
			t.Fatal("expected the seeded book")
		}
		if !snap.Book.UseTradingAccounts {
			t.Error("expected trading accounts flag to round-trip")
		}
		if len(snap.Commodities) != 3 || len(snap.Accounts) != 6 {
			t.Errorf("expected 3 commodities and 6 accounts, got %d and %d", len(snap.Commodities), len(snap.Accounts))
		}
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	f := testutil.SeedBook(t, db, false)
	s := New(db)

	txn := &models.Transaction{CurrencyID: f.EUR.ID, PostDate: testutil.Day(2024, 1, 2), EnterDate: time.Now(), Description: "groceries"}
	txn.EnsureID()
	debit := &models.Split{TransactionID: txn.ID, AccountID: f.Expense.ID, Value: numeric.MustParse("12.34", 100), Quantity: numeric.MustParse("12.34", 100)}
	credit := &models.Split{TransactionID: txn.ID, AccountID: f.Asset.ID, Value: numeric.MustParse("-12.34", 100), Quantity: numeric.MustParse("-12.34", 100)}

	t.Run("creates_with_audit", func(t *testing.T) {
		err := s.Apply(ctx, &Batch{
			Creates: []any{txn, debit, credit},
			Audit:   []models.AuditLog{{Action: "create", ResourceType: "transaction", ResourceID: txn.ID}},
		})
		testutil.AssertNoError(t, err)
		testutil.AssertCount(t, db, &models.Split{}, 2)
		testutil.AssertCount(t, db, &models.AuditLog{}, 1)

		var stored models.Split
		if err := db.First(&stored, "id = ?", debit.ID).Error; err != nil {
			t.Fatal(err)
		}
		if !stored.Value.Equal(debit.Value) || stored.Value.Denom != 100 {
			t.Errorf("expected value %s to round-trip, got %s", debit.Value, stored.Value)
		}
	})

	t.Run("failure_rolls_back", func(t *testing.T) {
		dup := &models.Commodity{Namespace: models.NamespaceCurrency, Mnemonic: "EUR", Fraction: 100}
		other := &models.Commodity{Namespace: models.NamespaceCurrency, Mnemonic: "CHF", Fraction: 100}
		err := s.Apply(ctx, &Batch{Creates: []any{other, dup}})
		testutil.AssertAppError(t, err, apperrors.ErrInternalServer.Code)
		testutil.AssertCount(t, db, &models.Commodity{}, 3)
	})

	t.Run("updates_and_deletes", func(t *testing.T) {
		txn.Description = "market"
		err := s.Apply(ctx, &Batch{
			Updates: []any{txn},
			Deletes: []any{debit, credit},
		})
		testutil.AssertNoError(t, err)
		testutil.AssertCount(t, db, &models.Split{}, 0)

		var stored models.Transaction
		if err := db.First(&stored, "id = ?", txn.ID).Error; err != nil {
			t.Fatal(err)
		}
		if stored.Description != "market" {
			t.Errorf("expected updated description, got %q", stored.Description)
		}
	})
}

func TestFindCommodity(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	f := testutil.SeedBook(t, db, false)
	s := New(db)

	got, err := s.FindCommodity(ctx, "NASDAQ", "AAPL")
	testutil.AssertNoError(t, err)
	if got.ID != f.AAPL.ID {
		t.Error("expected AAPL")
	}

	_, err = s.FindCommodity(ctx, models.NamespaceCurrency, "AAPL")
	testutil.AssertAppError(t, err, "COMMODITY_NOT_FOUND")
}

func TestFindAccountsByName(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	f := testutil.SeedBook(t, db, false)
	s := New(db)

	accounts, err := s.FindAccountsByName(ctx, "broker")
	testutil.AssertNoError(t, err)
	if len(accounts) != 1 || accounts[0].ID != f.Broker.ID {
		t.Errorf("expected the broker account, got %+v", accounts)
	}

	accounts, err = s.FindAccountsByName(ctx, "missing")
	testutil.AssertNoError(t, err)
	if len(accounts) != 0 {
		t.Error("expected no accounts")
	}
}

func TestLatestPrice(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	f := testutil.SeedBook(t, db, false)
	s := New(db)

	testutil.CreateTestPrice(t, db, f.AAPL, f.USD, testutil.Day(2024, 1, 1), "180")
	testutil.CreateTestPrice(t, db, f.AAPL, f.USD, testutil.Day(2024, 1, 3), "185.5")

	tests := []struct {
		name string
		asOf time.Time
		want string
	}{
		{"before_any", testutil.Day(2023, 12, 31), ""},
		{"on_first", testutil.Day(2024, 1, 1), "180.00000000"},
		{"between", testutil.Day(2024, 1, 2), "180.00000000"},
		{"after_last", testutil.Day(2024, 6, 1), "185.50000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.LatestPrice(ctx, f.AAPL.ID, f.USD.ID, tt.asOf)
			testutil.AssertNoError(t, err)
			if tt.want == "" {
				if p != nil {
					t.Errorf("expected no price, got %s", p.Value)
				}
				return
			}
			if p == nil || p.Value.String() != tt.want {
				t.Errorf("expected %s, got %v", tt.want, p)
			}
		})
	}
}

func TestPriceHistory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	f := testutil.SeedBook(t, db, false)
	s := New(db)

	for day := 1; day <= 5; day++ {
		testutil.CreateTestPrice(t, db, f.AAPL, f.USD, testutil.Day(2024, 1, day), "100")
	}

	prices, total, err := s.PriceHistory(ctx, f.AAPL.ID, pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)
	if total != 5 {
		t.Errorf("expected 5 prices in total, got %d", total)
	}
	if len(prices) != 2 || !prices[0].Date.Equal(testutil.Day(2024, 1, 5)) {
		t.Errorf("expected newest first, got %+v", prices)
	}
}

func TestVersions(t *testing.T) {
	ctx := context.Background()
	s := New(testutil.SetupTestDB(t))

	testutil.AssertNoError(t, s.WriteVersions(ctx, map[string]int{"splits": 1, "lots": 1}))
	testutil.AssertNoError(t, s.WriteVersions(ctx, map[string]int{"splits": 2}))

	got, err := s.Versions(ctx)
	testutil.AssertNoError(t, err)
	if got["splits"] != 2 || got["lots"] != 1 || len(got) != 2 {
		t.Errorf("unexpected versions %v", got)
	}
}

func TestLocks(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := New(db)

	testutil.AssertNoError(t, s.AcquireLock(ctx, "host-a", 100, false))

	t.Run("reentrant", func(t *testing.T) {
		testutil.AssertNoError(t, s.AcquireLock(ctx, "host-a", 100, false))
		testutil.AssertCount(t, db, &models.Lock{}, 1)
	})

	t.Run("held_by_other", func(t *testing.T) {
		err := s.AcquireLock(ctx, "host-b", 200, false)
		appErr := testutil.AssertAppError(t, err, "BOOK_LOCKED")
		if appErr.Details["hostname"] != "host-a" {
			t.Errorf("expected holder in details, got %v", appErr.Details)
		}
	})

	t.Run("forced", func(t *testing.T) {
		testutil.AssertNoError(t, s.AcquireLock(ctx, "host-b", 200, true))
		testutil.AssertCount(t, db, &models.Lock{}, 2)
	})

	t.Run("release_and_clear", func(t *testing.T) {
		testutil.AssertNoError(t, s.ReleaseLock(ctx, "host-b", 200))
		locks, err := s.Locks(ctx)
		testutil.AssertNoError(t, err)
		if len(locks) != 1 || locks[0].Hostname != "host-a" {
			t.Errorf("expected only host-a's lock, got %+v", locks)
		}

		n, err := s.ClearLocks(ctx)
		testutil.AssertNoError(t, err)
		if n != 1 {
			t.Errorf("expected 1 cleared lock, got %d", n)
		}
	})
}

func TestAuditLogs(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := New(db)

	err := s.Apply(ctx, &Batch{Audit: []models.AuditLog{
		{Action: "create", ResourceType: "transaction", ResourceID: "0190a6b2-0000-7000-8000-000000000001"},
		{Action: "update", ResourceType: "transaction", ResourceID: "0190a6b2-0000-7000-8000-000000000001"},
		{Action: "create", ResourceType: "transaction", ResourceID: "0190a6b2-0000-7000-8000-000000000002"},
	}})
	testutil.AssertNoError(t, err)

	entries, total, err := s.AuditLogs(ctx, "transaction", "0190a6b2-0000-7000-8000-000000000001", pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", total)
	}
	if entries[0].Action != "update" {
		t.Errorf("expected newest first, got %s", entries[0].Action)
	}
}
