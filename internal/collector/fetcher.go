package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"StockPicker/internal/model"
)

// MarketData supplies price history and fundamentals for a symbol.
type MarketData interface {
	FetchHistory(ctx context.Context, symbol string, start time.Time, interval model.Interval) (*model.PriceSeries, error)
	FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error)
	Name() string
}

// Holdings supplies the ordered top constituents of an ETF.
type Holdings interface {
	FetchTopHoldings(ctx context.Context, etf string, limit int) ([]string, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// newLimiter paces outgoing requests. Non-positive rps disables pacing.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// capHoldings trims symbols to limit.
func capHoldings(symbols []string, limit int) []string {
	if limit > 0 && len(symbols) > limit {
		return symbols[:limit]
	}
	return symbols
}
