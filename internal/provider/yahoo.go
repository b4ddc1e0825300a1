package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/logging"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
	"github.com/batman-haker/Professional-Trading-Terminal/pkg/utils"
)

const (
	yahooUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	maxResponseBytes = 10 << 20
)

// YahooProvider fetches market data from the public Yahoo Finance API.
// No API key is required.
type YahooProvider struct {
	baseURL    string
	httpClient *http.Client
	retry      utils.RetryConfig
	logger     zerolog.Logger
}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo(cfg config.ProviderConfig) *YahooProvider {
	baseURL := cfg.Yahoo.BaseURL
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	retry := utils.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryBackoffMS > 0 {
		retry.InitialDelay = cfg.RetryBackoff()
	}
	retry.RetryableErrors = []error{terrors.ErrUpstreamUnavailable}

	return &YahooProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		retry:      retry,
		logger:     zerolog.Nop(),
	}
}

// WithLogger sets the provider logger and returns the provider.
func (p *YahooProvider) WithLogger(logger zerolog.Logger) *YahooProvider {
	p.logger = logging.WithProvider(logger, "yahoo")
	return p
}

// Name returns the provider name.
func (p *YahooProvider) Name() string { return "yahoo" }

// Chart API response. The price arrays carry null holes on halted or
// partially reported bars, hence the pointer elements.
type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooAPIError     `json:"error"`
	} `json:"chart"`
}

type yahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResult struct {
	Meta       yahooChartMeta `json:"meta"`
	Timestamp  []int64        `json:"timestamp"`
	Indicators struct {
		Quote []yahooOHLCV `json:"quote"`
	} `json:"indicators"`
}

type yahooChartMeta struct {
	Currency            string  `json:"currency"`
	Symbol              string  `json:"symbol"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	ChartPreviousClose  float64 `json:"chartPreviousClose"`
	RegularMarketTime   int64   `json:"regularMarketTime"`
	RegularMarketVolume int64   `json:"regularMarketVolume"`
}

type yahooOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuoteResult `json:"result"`
		Error  any                `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuoteResult struct {
	Symbol                  string  `json:"symbol"`
	LongName                string  `json:"longName"`
	ShortName               string  `json:"shortName"`
	MarketCap               float64 `json:"marketCap"`
	TrailingPE              float64 `json:"trailingPE"`
	ForwardPE               float64 `json:"forwardPE"`
	PriceToBook             float64 `json:"priceToBook"`
	EpsTrailingTwelveMonths float64 `json:"epsTrailingTwelveMonths"`
	DividendYield           float64 `json:"dividendYield"` // already in percent
	AverageAnalystRating    string  `json:"averageAnalystRating"`
}

type yahooSearchResponse struct {
	Quotes []struct {
		Symbol    string  `json:"symbol"`
		ShortName string  `json:"shortname"`
		LongName  string  `json:"longname"`
		QuoteType string  `json:"quoteType"`
		ExchDisp  string  `json:"exchDisp"`
		Score     float64 `json:"score"`
	} `json:"quotes"`
}

// GetHistory fetches OHLCV history from the chart API. Bars with null
// price holes are dropped; a null volume is treated as zero.
func (p *YahooProvider) GetHistory(ctx context.Context, req HistoryRequest) (*models.PriceSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Resolution strings match the chart API interval vocabulary.
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		p.baseURL, url.PathEscape(req.Symbol), req.Resolution, req.Range)

	var resp yahooChartResponse
	if err := p.fetchJSON(ctx, u, req.Symbol, "chart", &resp); err != nil {
		return nil, err
	}
	result, err := p.chartResult(&resp, req.Symbol)
	if err != nil {
		return nil, err
	}

	quotes := result.Indicators.Quote
	if len(quotes) == 0 {
		return nil, terrors.NewProviderError("yahoo", "chart", req.Symbol, "no quote block in chart response", terrors.ErrSymbolNotFound)
	}
	q := quotes[0]

	n := len(result.Timestamp)
	for _, arr := range [][]*float64{q.Open, q.High, q.Low, q.Close} {
		if len(arr) < n {
			n = len(arr)
		}
	}
	candles := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil {
			continue
		}
		var volume int64
		if i < len(q.Volume) && q.Volume[i] != nil {
			volume = *q.Volume[i]
		}
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(result.Timestamp[i], 0).UTC(),
			Open:      *q.Open[i],
			High:      *q.High[i],
			Low:       *q.Low[i],
			Close:     *q.Close[i],
			Volume:    volume,
		})
	}
	if len(candles) == 0 {
		return nil, terrors.NewProviderError("yahoo", "chart", req.Symbol, "chart returned no usable bars", terrors.ErrSymbolNotFound)
	}

	return &models.PriceSeries{
		Symbol:     req.Symbol,
		Resolution: req.Resolution,
		Candles:    candles,
	}, nil
}

// GetQuote fetches the latest quote via a one-bar daily chart request.
// The chart meta carries the live price; the bar carries the session
// open, high and low.
func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", p.baseURL, url.PathEscape(symbol))

	var resp yahooChartResponse
	if err := p.fetchJSON(ctx, u, symbol, "chart", &resp); err != nil {
		return nil, err
	}
	result, err := p.chartResult(&resp, symbol)
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	quote := &models.Quote{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		PrevClose: meta.ChartPreviousClose,
		Volume:    meta.RegularMarketVolume,
		Timestamp: time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if quotes := result.Indicators.Quote; len(quotes) > 0 {
		q := quotes[0]
		if len(q.Open) > 0 && q.Open[0] != nil {
			quote.Open = *q.Open[0]
		}
		if len(q.High) > 0 && q.High[0] != nil {
			quote.High = *q.High[0]
		}
		if len(q.Low) > 0 && q.Low[0] != nil {
			quote.Low = *q.Low[0]
		}
	}
	if quote.PrevClose != 0 {
		quote.Change = quote.Price - quote.PrevClose
		quote.ChangePercent = quote.Change / quote.PrevClose * 100
	}
	return quote, nil
}

// GetFundamentals fetches the subset of fundamentals the quote API
// reports. Yahoo does not report sector, growth or balance sheet
// fields here; those stay zero and score against default benchmark
// bands downstream.
func (p *YahooProvider) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", p.baseURL, url.QueryEscape(symbol))

	var resp yahooQuoteResponse
	if err := p.fetchJSON(ctx, u, symbol, "quote", &resp); err != nil {
		return nil, err
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, terrors.NewProviderError("yahoo", "quote", symbol, "empty quote result", terrors.ErrSymbolNotFound)
	}
	r := resp.QuoteResponse.Result[0]

	name := r.LongName
	if name == "" {
		name = r.ShortName
	}
	return &models.Fundamentals{
		Symbol:        r.Symbol,
		Name:          name,
		MarketCap:     r.MarketCap,
		PERatio:       r.TrailingPE,
		ForwardPE:     r.ForwardPE,
		PriceToBook:   r.PriceToBook,
		EPS:           r.EpsTrailingTwelveMonths,
		DividendYield: r.DividendYield,
		AsOf:          time.Now().UTC(),
	}, nil
}

// GetNewsSentiment is not available on the Yahoo backend.
func (p *YahooProvider) GetNewsSentiment(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	return nil, terrors.NewProviderError("yahoo", "news", symbol, "news sentiment requires the alphavantage provider", terrors.ErrNotSupported)
}

// SearchSymbols queries the Yahoo autocomplete endpoint.
func (p *YahooProvider) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=10&newsCount=0", p.baseURL, url.QueryEscape(query))

	var resp yahooSearchResponse
	if err := p.fetchJSON(ctx, u, query, "search", &resp); err != nil {
		return nil, err
	}

	matches := make([]models.SymbolMatch, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		matches = append(matches, models.SymbolMatch{
			Symbol: q.Symbol,
			Name:   name,
			Type:   q.QuoteType,
			Region: q.ExchDisp,
			Score:  q.Score,
		})
	}
	return matches, nil
}

// chartResult unwraps the single chart result, mapping API-level errors
// onto the provider sentinels.
func (p *YahooProvider) chartResult(resp *yahooChartResponse, symbol string) (*yahooChartResult, error) {
	if e := resp.Chart.Error; e != nil {
		return nil, terrors.NewProviderError("yahoo", "chart", symbol, e.Description, terrors.ErrSymbolNotFound)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, terrors.NewProviderError("yahoo", "chart", symbol, "empty chart result", terrors.ErrSymbolNotFound)
	}
	return &resp.Chart.Result[0], nil
}

func (p *YahooProvider) fetchJSON(ctx context.Context, u, symbol, endpoint string, out any) error {
	body, err := utils.RetryWithResult(ctx, p.retry, func() ([]byte, error) {
		return p.fetchOnce(ctx, u, symbol, endpoint)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return terrors.NewProviderError("yahoo", endpoint, symbol, "decoding response", err)
	}
	return nil
}

func (p *YahooProvider) fetchOnce(ctx context.Context, u, symbol, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, terrors.NewProviderError("yahoo", endpoint, symbol, "building request", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	logging.LogFetch(p.logger, "yahoo", endpoint, symbol, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, terrors.NewProviderError("yahoo", endpoint, symbol, err.Error(), terrors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		logging.LogRateLimit(p.logger, "yahoo", symbol)
		return nil, terrors.NewProviderError("yahoo", endpoint, symbol, "http 429", terrors.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, terrors.NewProviderError("yahoo", endpoint, symbol, "http 404", terrors.ErrSymbolNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, terrors.NewProviderError("yahoo", endpoint, symbol,
			fmt.Sprintf("http %d", resp.StatusCode), terrors.ErrUpstreamUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, terrors.NewProviderError("yahoo", endpoint, symbol, "reading response", terrors.ErrUpstreamUnavailable)
	}
	return body, nil
}
