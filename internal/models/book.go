package models

// Book is the root aggregate of a store: it points at the root account and the
// default currency, and holds global flags.
type Book struct {
	Base
	RootAccountID      *string `gorm:"type:uuid" json:"root_account_id,omitempty"`
	DefaultCurrencyID  *string `gorm:"type:uuid" json:"default_currency_id,omitempty"`
	UseTradingAccounts bool    `gorm:"not null;default:false" json:"use_trading_accounts"`
}

// Version records the schema version of one component of the store.
type Version struct {
	Component string `gorm:"primaryKey;size:50" json:"component"`
	Number    int    `gorm:"not null" json:"number"`
}

// TableName overrides the table name used by Version.
func (Version) TableName() string { return "versions" }

// Lock is an advisory record left by a process that opened the store for writing.
type Lock struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Hostname string `gorm:"size:255;not null" json:"hostname"`
	PID      int    `gorm:"not null" json:"pid"`
}

// TableName overrides the table name used by Lock.
func (Lock) TableName() string { return "locks" }

// SchemaVersions are the component versions this build writes when creating a
// book and expects to find when opening one.
var SchemaVersions = map[string]int{
	"books":        1,
	"commodities":  1,
	"prices":       1,
	"accounts":     1,
	"lots":         1,
	"transactions": 1,
	"splits":       1,
}
