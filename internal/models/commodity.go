package models

// NamespaceCurrency is the namespace of tradable currencies. Any other
// namespace denotes a security or fund.
const NamespaceCurrency = "CURRENCY"

// Commodity is a currency or a security, identified by (namespace, mnemonic).
type Commodity struct {
	Base
	Namespace   string `gorm:"not null;uniqueIndex:uq_commodities_namespace_mnemonic" json:"namespace" validate:"required,commodity_namespace"`
	Mnemonic    string `gorm:"not null;uniqueIndex:uq_commodities_namespace_mnemonic" json:"mnemonic" validate:"required,max=32"`
	Fullname    string `json:"fullname" validate:"max=2048"`
	Cusip       string `json:"cusip,omitempty" validate:"max=2048"`
	Fraction    int64  `gorm:"not null;default:100" json:"fraction" validate:"gt=0"`
	QuoteFlag   bool   `gorm:"not null;default:false" json:"quote_flag"`
	QuoteSource string `json:"quote_source,omitempty"`
	QuoteTZ     string `json:"quote_tz,omitempty"`

	// QuotedCurrency is the mnemonic of the currency a security is priced in.
	QuotedCurrency string `json:"quoted_currency,omitempty" validate:"omitempty,iso4217"`
}

// IsCurrency reports whether the commodity lives in the CURRENCY namespace.
func (c *Commodity) IsCurrency() bool {
	return c.Namespace == NamespaceCurrency
}

// Key returns the unique "namespace:mnemonic" identity of the commodity.
func (c *Commodity) Key() string {
	return CommodityKey(c.Namespace, c.Mnemonic)
}

// CommodityKey builds the unique identity of a commodity.
func CommodityKey(namespace, mnemonic string) string {
	return namespace + ":" + mnemonic
}
