package models

// AccountType is the type tag of an account.
type AccountType string

const (
	AccountTypeRoot       AccountType = "ROOT"
	AccountTypeAsset      AccountType = "ASSET"
	AccountTypeBank       AccountType = "BANK"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeStock      AccountType = "STOCK"
	AccountTypeMutual     AccountType = "MUTUAL"
	AccountTypeLiability  AccountType = "LIABILITY"
	AccountTypeCredit     AccountType = "CREDIT"
	AccountTypeIncome     AccountType = "INCOME"
	AccountTypeExpense    AccountType = "EXPENSE"
	AccountTypeEquity     AccountType = "EQUITY"
	AccountTypeTrading    AccountType = "TRADING"
	AccountTypeReceivable AccountType = "RECEIVABLE"
	AccountTypePayable    AccountType = "PAYABLE"
)

// AccountTypes lists every valid account type.
var AccountTypes = []AccountType{
	AccountTypeRoot, AccountTypeAsset, AccountTypeBank, AccountTypeCash,
	AccountTypeStock, AccountTypeMutual, AccountTypeLiability, AccountTypeCredit,
	AccountTypeIncome, AccountTypeExpense, AccountTypeEquity, AccountTypeTrading,
	AccountTypeReceivable, AccountTypePayable,
}

// Account is a node of the account tree. Every account but the root holds
// exactly one commodity, which cannot change once splits reference it.
type Account struct {
	Base
	Name        string      `gorm:"not null;index" json:"name" validate:"required,max=2048"`
	Type        AccountType `gorm:"not null" json:"type" validate:"required,account_type"`
	CommodityID *string     `gorm:"type:uuid" json:"commodity_id,omitempty"`
	ParentID    *string     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Description string      `json:"description" validate:"max=2048"`
	Placeholder bool        `gorm:"not null;default:false" json:"placeholder"`
	Hidden      bool        `gorm:"not null;default:false" json:"hidden"`
}

// Commodity returns the commodity handle, or "" for the root account.
func (a *Account) Commodity() string {
	if a.CommodityID == nil {
		return ""
	}
	return *a.CommodityID
}

// Parent returns the parent handle, or "" for a top-level account.
func (a *Account) Parent() string {
	if a.ParentID == nil {
		return ""
	}
	return *a.ParentID
}
