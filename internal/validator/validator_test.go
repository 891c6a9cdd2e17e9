package validator

import (
	"testing"

	"ledger/internal/models"
)

func TestCurrencyFraction(t *testing.T) {
	tests := []struct {
		code   string
		want   int64
		wantOK bool
	}{
		{"EUR", 100, true},
		{"USD", 100, true},
		{"JPY", 1, true},
		{"BHD", 1000, true},
		{"XXX1", 0, false},
	}
	for _, tt := range tests {
		got, ok := CurrencyFraction(tt.code)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CurrencyFraction(%q) = (%d, %v), want (%d, %v)", tt.code, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStruct_Commodity(t *testing.T) {
	t.Run("valid_security", func(t *testing.T) {
		c := &models.Commodity{Namespace: "NASDAQ", Mnemonic: "AAPL", Fraction: 1, QuotedCurrency: "USD"}
		if err := Struct(c); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("bad_quoted_currency", func(t *testing.T) {
		c := &models.Commodity{Namespace: "NASDAQ", Mnemonic: "AAPL", Fraction: 1, QuotedCurrency: "DOLLARS"}
		if err := Struct(c); err == nil {
			t.Error("expected error for unknown quoted currency")
		}
	})

	t.Run("namespace_with_separator", func(t *testing.T) {
		c := &models.Commodity{Namespace: "A:B", Mnemonic: "X", Fraction: 1}
		if err := Struct(c); err == nil {
			t.Error("expected error for namespace containing ':'")
		}
	})

	t.Run("zero_fraction", func(t *testing.T) {
		c := &models.Commodity{Namespace: "CURRENCY", Mnemonic: "EUR"}
		if err := Struct(c); err == nil {
			t.Error("expected error for zero fraction")
		}
	})
}

func TestStruct_Account(t *testing.T) {
	if err := Struct(&models.Account{Name: "Assets", Type: models.AccountTypeAsset}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Struct(&models.Account{Name: "Assets", Type: "SAVINGS"}); err == nil {
		t.Error("expected error for unknown account type")
	}
	if err := Struct(&models.Account{Type: models.AccountTypeAsset}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestStruct_Price(t *testing.T) {
	p := &models.Price{CommodityID: "c", CurrencyID: "u", Type: "guess"}
	if err := Struct(p); err == nil {
		t.Error("expected error for unknown price type")
	}
	p.Type = models.PriceTypeLast
	if err := Struct(p); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
