// Package provider defines the interface for fetching historical quotes from
// external market-data sources.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteRequest asks for daily closes of one commodity between Start and End,
// both inclusive.
type QuoteRequest struct {
	Namespace string
	Mnemonic  string
	// Currency is the mnemonic the quotes should be expressed in. For a
	// currency commodity it names the other side of the exchange rate.
	Currency string
	Start    time.Time
	End      time.Time
}

// IsCurrency reports whether the request is for an exchange rate.
func (r QuoteRequest) IsCurrency() bool {
	return r.Namespace == "CURRENCY"
}

// Quote is one daily close: 1 unit of the commodity is worth Value units of
// Currency on Date.
type Quote struct {
	Date     time.Time
	Value    decimal.Decimal
	Currency string
}

// FetchError reports a failed fetch for one commodity.
type FetchError struct {
	Symbol     string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch quotes for %s (status %d): %v", e.Symbol, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch quotes for %s: %v", e.Symbol, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// Provider fetches historical quotes.
type Provider interface {
	// Name returns the provider's short name, recorded as the price source.
	Name() string

	// FetchQuotes returns the daily quotes in the requested range, oldest first.
	FetchQuotes(ctx context.Context, req QuoteRequest) ([]Quote, error)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
