// Package validator validates staged ledger records and API payloads with
// go-playground/validator, extended with ledger-specific tags.
package validator

import (
	"strings"
	"sync"

	"github.com/Rhymond/go-money"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"ledger/internal/models"
)

var (
	instance *validator.Validate
	initOnce sync.Once
)

// Get returns the shared validator with all custom tags registered.
func Get() *validator.Validate {
	initOnce.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		registerAll(instance)
	})
	return instance
}

// Struct validates a record against its `validate` tags.
func Struct(s any) error {
	return Get().Struct(s)
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerAll(v)
	}
}

func registerAll(v *validator.Validate) {
	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("commodity_namespace", validateCommodityNamespace)
	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("price_type", validatePriceType)
}

// IsCurrencyCode reports whether code is a known ISO 4217 currency.
func IsCurrencyCode(code string) bool {
	return money.GetCurrency(code) != nil
}

// CurrencyFraction returns the smallest-unit denominator of an ISO 4217
// currency (100 for EUR, 1 for JPY) and whether the code is known.
func CurrencyFraction(code string) (int64, bool) {
	cur := money.GetCurrency(code)
	if cur == nil {
		return 0, false
	}
	fraction := int64(1)
	for i := 0; i < cur.Fraction; i++ {
		fraction *= 10
	}
	return fraction, true
}

func validateISO4217(fl validator.FieldLevel) bool {
	return IsCurrencyCode(fl.Field().String())
}

func validateCommodityNamespace(fl validator.FieldLevel) bool {
	ns := fl.Field().String()
	return ns != "" && !strings.Contains(ns, ":") && strings.TrimSpace(ns) == ns
}

func validateAccountType(fl validator.FieldLevel) bool {
	t := models.AccountType(fl.Field().String())
	for _, known := range models.AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

func validatePriceType(fl validator.FieldLevel) bool {
	switch models.PriceType(fl.Field().String()) {
	case models.PriceTypeLast, models.PriceTypeBid, models.PriceTypeAsk, models.PriceTypeNAV, models.PriceTypeUnknown:
		return true
	}
	return false
}
