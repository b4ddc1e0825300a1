// Package provider implements market data access against Yahoo Finance
// and Alpha Vantage, plus a caching decorator and a deterministic mock
// for offline use.
//
// Both live backends map upstream failures onto the same three
// sentinels: errors.ErrRateLimited, errors.ErrSymbolNotFound and
// errors.ErrUpstreamUnavailable. Transient failures are retried with
// exponential backoff inside this package; rate limits and unknown
// symbols are returned immediately.
package provider

import (
	"context"
	"fmt"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// HistoryRequest describes one price history fetch.
type HistoryRequest struct {
	Symbol     string
	Resolution models.Resolution
	Range      string
}

// Supported range strings, matching the Yahoo chart API vocabulary.
// Alpha Vantage requests are mapped onto the nearest output size.
var validRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// Validate checks the request fields against the supported vocabulary.
func (r HistoryRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("history request has no symbol")
	}
	if !r.Resolution.Valid() {
		return fmt.Errorf("unsupported resolution %q", r.Resolution)
	}
	if !validRanges[r.Range] {
		return fmt.Errorf("unsupported range %q (want one of 1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max)", r.Range)
	}
	return nil
}

// Provider is a market data backend. Implementations are safe for
// concurrent use.
type Provider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetHistory(ctx context.Context, req HistoryRequest) (*models.PriceSeries, error)
	GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)
	GetNewsSentiment(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
	SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error)
}

// New builds the provider selected by cfg.Primary.
func New(cfg config.ProviderConfig, creds config.Credentials) (Provider, error) {
	switch cfg.Primary {
	case "yahoo":
		return NewYahoo(cfg), nil
	case "alphavantage":
		if creds.AlphaVantage.APIKey == "" {
			return nil, fmt.Errorf("alphavantage provider requires an API key (set ALPHAVANTAGE_API_KEY)")
		}
		return NewAlphaVantage(cfg, creds.AlphaVantage.APIKey), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Primary)
	}
}
