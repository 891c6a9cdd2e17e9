package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ledger/internal/logger"
)

// RetryProvider retries transient failures of another provider with
// exponential backoff.
type RetryProvider struct {
	next     Provider
	attempts int
	delay    time.Duration
}

// WithRetry wraps next so that each fetch is tried up to attempts times,
// sleeping delay, 2*delay, ... between tries.
func WithRetry(next Provider, attempts int, delay time.Duration) *RetryProvider {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryProvider{next: next, attempts: attempts, delay: delay}
}

// Name returns the wrapped provider's name.
func (p *RetryProvider) Name() string { return p.next.Name() }

// FetchQuotes calls the wrapped provider until it succeeds, fails permanently,
// runs out of attempts or ctx is done.
func (p *RetryProvider) FetchQuotes(ctx context.Context, req QuoteRequest) ([]Quote, error) {
	delay := p.delay
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		var quotes []Quote
		quotes, err = p.next.FetchQuotes(ctx, req)
		if err == nil || !retryable(err) || attempt == p.attempts {
			return quotes, err
		}

		logger.Get().Warnw("Quote fetch failed, retrying",
			"symbol", req.Mnemonic,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, err
}

// retryable reports whether err may go away on its own: network failures,
// rate limiting and server errors. Client errors are permanent.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		return fe.StatusCode == http.StatusTooManyRequests || fe.StatusCode >= http.StatusInternalServerError
	}
	return true
}
