// Package app wires configuration, database, store and book together for the
// ledger binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ledger/internal/book"
	"ledger/internal/config"
	"ledger/internal/database"
	apperrors "ledger/internal/errors"
	"ledger/internal/logger"
	"ledger/internal/provider"
	"ledger/internal/store"
)

// Provider retry policy.
const (
	providerAttempts = 3
	providerDelay    = 500 * time.Millisecond
)

// App is an open book together with the resources it was opened from.
type App struct {
	Config *config.Config
	DB     *database.Manager
	Store  *store.Store
	Book   *book.Book
}

// Open connects to the configured database, brings its schema up to date and
// opens the book it holds. With create set, an empty store is initialised with
// a new book first.
func Open(ctx context.Context, cfg *config.Config, create bool) (*App, error) {
	log := logger.Get()

	dbConfig, err := database.NewConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		dbManager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	st := store.New(dbManager.DB())
	opts := book.Options{ReadOnly: cfg.ReadOnly, OpenIfLocked: cfg.OpenIfLocked}

	var b *book.Book
	if create {
		b, err = book.Create(ctx, st, book.CreateOptions{
			Options:            opts,
			DefaultCurrency:    cfg.DefaultCurrency,
			UseTradingAccounts: cfg.UseTradingAccounts,
		})
	} else {
		if cfg.Backup && !cfg.ReadOnly {
			path, err := dbManager.Backup(time.Now())
			if err != nil {
				dbManager.Close()
				return nil, err
			}
			if path != "" {
				log.Infow("Book backed up", "path", path)
			}
		}
		b, err = book.Open(ctx, st, opts)
	}
	if err != nil {
		dbManager.Close()
		return nil, err
	}

	return &App{Config: cfg, DB: dbManager, Store: st, Book: b}, nil
}

// OpenOrCreate opens the configured book, creating it when the store holds
// none yet.
func OpenOrCreate(ctx context.Context, cfg *config.Config) (*App, error) {
	a, err := Open(ctx, cfg, false)
	if err == nil {
		return a, nil
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || (appErr.Code != apperrors.ErrNotFound.Code && appErr.Code != apperrors.ErrVersionMismatch.Code) {
		return nil, err
	}
	if cfg.ReadOnly {
		return nil, err
	}
	logger.Get().Infow("No book found, creating one", "default_currency", cfg.DefaultCurrency)
	a, createErr := Open(ctx, cfg, true)
	if createErr != nil {
		// A store that already holds a book reports the original failure.
		return nil, err
	}
	return a, nil
}

// Provider returns the configured market-data provider with retries.
func (a *App) Provider() provider.Provider {
	client := &http.Client{Timeout: a.Config.RequestTimeout}
	return provider.WithRetry(provider.NewYahooProvider(client, a.Config.PriceProviderURL), providerAttempts, providerDelay)
}

// Close closes the book, releasing its lock, and the database.
func (a *App) Close(ctx context.Context) error {
	bookErr := a.Book.Close(ctx)
	dbErr := a.DB.Close()
	return errors.Join(bookErr, dbErr)
}
