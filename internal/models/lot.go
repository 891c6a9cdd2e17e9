package models

// Lot groups splits of one security within one account for cost-basis
// tracking. IsClosed is set when the lot is explicitly finalized; from then on
// its member quantities must net to zero.
type Lot struct {
	Base
	AccountID string `gorm:"type:uuid;not null;index" json:"account_id" validate:"required"`
	Title     string `json:"title" validate:"max=2048"`
	Notes     string `json:"notes,omitempty"`
	IsClosed  bool   `gorm:"not null;default:false" json:"is_closed"`
}
