// Package store persists a book's object graph with gorm. It loads the whole
// graph into memory, applies validated batches inside a single database
// transaction, and answers the indexed and ordered queries the book needs.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/pagination"
)

// Store is the gorm-backed persistent store of one book.
type Store struct {
	db *gorm.DB
}

// New creates a Store on an already migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying GORM database instance.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Snapshot is the full persisted graph of a book.
type Snapshot struct {
	Book         *models.Book
	Commodities  []models.Commodity
	Accounts     []models.Account
	Lots         []models.Lot
	Transactions []models.Transaction
	Splits       []models.Split
	Prices       []models.Price
}

// Load reads every record of the book. Book is nil for an empty store.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &Snapshot{}

	var book models.Book
	err := db.Order("created_at ASC").First(&book).Error
	switch {
	case err == nil:
		snap.Book = &book
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	loads := []struct {
		name string
		dest any
	}{
		{"commodities", &snap.Commodities},
		{"accounts", &snap.Accounts},
		{"lots", &snap.Lots},
		{"transactions", &snap.Transactions},
		{"splits", &snap.Splits},
		{"prices", &snap.Prices},
	}
	for _, l := range loads {
		if err := db.Order("id ASC").Find(l.dest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("load %s: %w", l.name, err))
		}
	}
	return snap, nil
}

// Batch is a validated set of changes. Creates are applied in order, then
// updates, then deletes; the caller orders each slice by dependency.
type Batch struct {
	Creates []any
	Updates []any
	Deletes []any
	Audit   []models.AuditLog
}

// Empty reports whether the batch carries no changes.
func (b *Batch) Empty() bool {
	return len(b.Creates) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0
}

// Apply writes the batch atomically. Any failure rolls back every change.
func (s *Store) Apply(ctx context.Context, batch *Batch) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range batch.Creates {
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("create %T: %w", rec, err)
			}
		}
		for _, rec := range batch.Updates {
			if err := tx.Select("*").Save(rec).Error; err != nil {
				return fmt.Errorf("update %T: %w", rec, err)
			}
		}
		for _, rec := range batch.Deletes {
			if err := tx.Delete(rec).Error; err != nil {
				return fmt.Errorf("delete %T: %w", rec, err)
			}
		}
		if len(batch.Audit) > 0 {
			if err := tx.Create(&batch.Audit).Error; err != nil {
				return fmt.Errorf("write audit log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// FindCommodity returns the commodity identified by (namespace, mnemonic).
func (s *Store) FindCommodity(ctx context.Context, namespace, mnemonic string) (*models.Commodity, error) {
	var c models.Commodity
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND mnemonic = ?", namespace, mnemonic).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCommodityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &c, nil
}

// FindAccountsByName returns every account with the given short name, oldest first.
func (s *Store) FindAccountsByName(ctx context.Context, name string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// LatestPrice returns the most recent price of commodity in currency dated at
// or before asOf, or nil when there is none.
func (s *Store) LatestPrice(ctx context.Context, commodityID, currencyID string, asOf time.Time) (*models.Price, error) {
	var p models.Price
	err := s.db.WithContext(ctx).
		Where("commodity_id = ? AND currency_id = ? AND date <= ?", commodityID, currencyID, asOf).
		Order("date DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &p, nil
}

// PriceHistory returns one page of a commodity's prices, newest first.
func (s *Store) PriceHistory(ctx context.Context, commodityID string, page pagination.PageRequest) ([]models.Price, int64, error) {
	page.Defaults()
	query := s.db.WithContext(ctx).Model(&models.Price{}).Where("commodity_id = ?", commodityID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var prices []models.Price
	if err := query.Scopes(pagination.Paginate(page)).Order("date DESC").Find(&prices).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return prices, total, nil
}

// AuditLogs returns one page of audit entries for a resource, newest first.
// An empty resourceID lists every entry of the resource type.
func (s *Store) AuditLogs(ctx context.Context, resourceType, resourceID string, page pagination.PageRequest) ([]models.AuditLog, int64, error) {
	page.Defaults()
	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("resource_type = ?", resourceType)
	if resourceID != "" {
		query = query.Where("resource_id = ?", resourceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := query.Scopes(pagination.Paginate(page)).Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, total, nil
}
