package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledger/internal/config"
	"ledger/internal/database"
	"ledger/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:             "test",
		DBDriver:        database.DriverSQLite,
		DBPath:          filepath.Join(t.TempDir(), "book.db"),
		DefaultCurrency: "USD",
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("missing_book", func(t *testing.T) {
		_, err := Open(ctx, testConfig(t), false)
		testutil.AssertAppError(t, err, "VERSION_MISMATCH")
	})

	t.Run("create_then_reopen", func(t *testing.T) {
		cfg := testConfig(t)
		a, err := Open(ctx, cfg, true)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		id := a.Book.ID()
		cur, err := a.Book.DefaultCurrency()
		if err != nil || cur.Mnemonic != "USD" {
			t.Fatalf("expected USD default currency, got %v (%v)", cur, err)
		}
		if err := a.Close(ctx); err != nil {
			t.Fatalf("close: %v", err)
		}

		a, err = Open(ctx, cfg, false)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer a.Close(ctx)
		if a.Book.ID() != id {
			t.Errorf("expected book %s, got %s", id, a.Book.ID())
		}
	})

	t.Run("backup_before_read_write_open", func(t *testing.T) {
		cfg := testConfig(t)
		a, err := Open(ctx, cfg, true)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		a.Close(ctx)

		cfg.Backup = true
		a, err = Open(ctx, cfg, false)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer a.Close(ctx)

		entries, err := os.ReadDir(filepath.Dir(cfg.DBPath))
		if err != nil {
			t.Fatal(err)
		}
		backups := 0
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), database.BackupSuffix) {
				backups++
			}
		}
		if backups != 1 {
			t.Errorf("expected 1 backup file, got %d", backups)
		}
	})
}

func TestOpenOrCreate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := OpenOrCreate(ctx, cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	id := a.Book.ID()
	a.Close(ctx)

	a, err = OpenOrCreate(ctx, cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer a.Close(ctx)
	if a.Book.ID() != id {
		t.Errorf("expected existing book %s to be reopened, got %s", id, a.Book.ID())
	}
}
