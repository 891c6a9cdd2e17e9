package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	yahooBaseURL = "https://query1.finance.yahoo.com"
	yahooUA      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// yahooChartResponse is the top-level Yahoo Finance v8 chart response.
type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooChartError   `json:"error"`
	} `json:"chart"`
}

type yahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []decimal.NullDecimal `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// YahooProvider fetches daily closes from the Yahoo Finance v8 chart API.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance quote provider. An empty
// baseURL selects the public endpoint.
func NewYahooProvider(httpClient *http.Client, baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name returns the provider's short name.
func (p *YahooProvider) Name() string { return "yahoo" }

// Symbol returns the Yahoo ticker for a request: the mnemonic for securities,
// <FROM><TO>=X for exchange rates.
func Symbol(req QuoteRequest) string {
	if req.IsCurrency() {
		return req.Mnemonic + req.Currency + "=X"
	}
	return req.Mnemonic
}

// FetchQuotes fetches daily closes for the requested range.
func (p *YahooProvider) FetchQuotes(ctx context.Context, req QuoteRequest) ([]Quote, error) {
	symbol := Symbol(req)
	start := Day(req.Start)
	end := Day(req.End)
	if end.Before(start) {
		return nil, nil
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Add(24*time.Hour).Unix(), 10))
	endpoint := p.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("building request: %w", err)}
	}
	httpReq.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("http request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var chart yahooChartResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&chart)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && chart.Chart.Error != nil {
			return nil, &FetchError{Symbol: symbol, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", chart.Chart.Error.Description)}
		}
		return nil, &FetchError{Symbol: symbol, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	if chart.Chart.Error != nil {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)}
	}
	if len(chart.Chart.Result) == 0 {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("empty chart result")}
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	currency := result.Meta.Currency
	if currency == "" {
		currency = req.Currency
	}

	quotes := make([]Quote, 0, len(result.Timestamp))
	seen := make(map[time.Time]bool, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || !closes[i].Valid {
			continue
		}
		day := Day(time.Unix(ts, 0))
		if day.Before(start) || day.After(end) || seen[day] {
			continue
		}
		seen[day] = true
		quotes = append(quotes, Quote{Date: day, Value: closes[i].Decimal, Currency: currency})
	}
	return quotes, nil
}
