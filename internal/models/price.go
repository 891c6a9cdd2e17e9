package models

import (
	"time"

	"ledger/internal/numeric"
	"ledger/internal/uuid"

	"gorm.io/gorm"
)

// PriceType describes how a quote was observed.
type PriceType string

const (
	PriceTypeLast    PriceType = "last"
	PriceTypeBid     PriceType = "bid"
	PriceTypeAsk     PriceType = "ask"
	PriceTypeNAV     PriceType = "nav"
	PriceTypeUnknown PriceType = "unknown"
)

// DefaultPriceSource is recorded for prices entered by hand.
const DefaultPriceSource = "user:price"

// PriceFraction is the denominator prices are stored with.
const PriceFraction int64 = 100000000

// Price states that one unit of Commodity is worth Value units of Currency at Date.
// Prices are immutable time-series data, so there is no UpdatedAt column.
type Price struct {
	ID          string        `gorm:"type:uuid;primaryKey" json:"id"`
	CommodityID string        `gorm:"type:uuid;not null;index:idx_prices_commodity_date,priority:1" json:"commodity_id" validate:"required"`
	CurrencyID  string        `gorm:"type:uuid;not null" json:"currency_id" validate:"required"`
	Date        time.Time     `gorm:"not null;index:idx_prices_commodity_date,priority:2" json:"date"`
	Source      string        `json:"source"`
	Type        PriceType     `gorm:"not null;default:'unknown'" json:"type" validate:"omitempty,price_type"`
	Value       numeric.Value `gorm:"embedded;embeddedPrefix:value_" json:"value"`
	CreatedAt   time.Time     `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *Price) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
