package models

import (
	"time"

	"ledger/internal/numeric"
)

// Transaction is a set of splits sharing a currency and a posting date.
type Transaction struct {
	Base
	CurrencyID  string    `gorm:"type:uuid;not null;index" json:"currency_id" validate:"required"`
	PostDate    time.Time `gorm:"not null;index" json:"post_date"`
	EnterDate   time.Time `gorm:"not null" json:"enter_date"`
	Num         string    `json:"num,omitempty" validate:"max=2048"`
	Description string    `json:"description" validate:"max=2048"`
	Notes       string    `json:"notes,omitempty"`
}

// ReconcileState is the reconciliation flag of a split.
type ReconcileState string

const (
	ReconcileNew        ReconcileState = "n"
	ReconcileCleared    ReconcileState = "c"
	ReconcileReconciled ReconcileState = "y"
	ReconcileFrozen     ReconcileState = "f"
	ReconcileVoid       ReconcileState = "v"
)

// Split is one leg of a transaction. Value is expressed in the transaction's
// currency, Quantity in the account's commodity. An unset Quantity (zero
// denominator) is filled in or rejected by validation.
type Split struct {
	Base
	TransactionID  string         `gorm:"type:uuid;not null;index" json:"transaction_id" validate:"required"`
	AccountID      string         `gorm:"type:uuid;not null;index" json:"account_id" validate:"required"`
	LotID          *string        `gorm:"type:uuid;index" json:"lot_id,omitempty"`
	Memo           string         `json:"memo,omitempty" validate:"max=2048"`
	Action         string         `json:"action,omitempty" validate:"max=2048"`
	ReconcileState ReconcileState `gorm:"not null;default:'n'" json:"reconcile_state" validate:"omitempty,oneof=n c y f v"`
	Value          numeric.Value  `gorm:"embedded;embeddedPrefix:value_" json:"value"`
	Quantity       numeric.Value  `gorm:"embedded;embeddedPrefix:quantity_" json:"quantity"`
}

// Lot returns the lot handle, or "" when the split is not in a lot.
func (s *Split) Lot() string {
	if s.LotID == nil {
		return ""
	}
	return *s.LotID
}
