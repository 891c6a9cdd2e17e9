package models

import (
	"time"

	"ledger/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all ledger tables. The ID doubles as the
// opaque handle used for every cross-reference between records.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for records that were not assigned one
// while staged.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// EnsureID assigns a UUIDv7 if the record has none and returns the ID.
func (b *Base) EnsureID() string {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return b.ID
}

// All lists every persisted model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Version{},
		&Lock{},
		&Commodity{},
		&Book{},
		&Account{},
		&Lot{},
		&Transaction{},
		&Split{},
		&Price{},
		&AuditLog{},
	}
}
