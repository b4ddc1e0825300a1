package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/logging"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
	"github.com/batman-haker/Professional-Trading-Terminal/pkg/utils"
)

const avNewsTimeLayout = "20060102T150405"

// AlphaVantageProvider fetches market data from the Alpha Vantage API.
// Every call goes through the single /query endpoint; the function
// parameter selects the operation.
type AlphaVantageProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      utils.RetryConfig
	logger     zerolog.Logger
}

// NewAlphaVantage creates an Alpha Vantage provider with the given API key.
func NewAlphaVantage(cfg config.ProviderConfig, apiKey string) *AlphaVantageProvider {
	baseURL := cfg.AlphaVantage.BaseURL
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	retry := utils.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryBackoffMS > 0 {
		retry.InitialDelay = cfg.RetryBackoff()
	}
	retry.RetryableErrors = []error{terrors.ErrUpstreamUnavailable}

	return &AlphaVantageProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		retry:      retry,
		logger:     zerolog.Nop(),
	}
}

// WithLogger sets the provider logger and returns the provider.
func (p *AlphaVantageProvider) WithLogger(logger zerolog.Logger) *AlphaVantageProvider {
	p.logger = logging.WithProvider(logger, "alphavantage")
	return p
}

// Name returns the provider name.
func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

// avParams is the /query parameter set, encoded with go-querystring.
type avParams struct {
	Function   string `url:"function"`
	Symbol     string `url:"symbol,omitempty"`
	Interval   string `url:"interval,omitempty"`
	OutputSize string `url:"outputsize,omitempty"`
	Keywords   string `url:"keywords,omitempty"`
	Tickers    string `url:"tickers,omitempty"`
	Limit      int    `url:"limit,omitempty"`
	APIKey     string `url:"apikey"`
}

// avEnvelope carries the body-level error fields Alpha Vantage returns
// with HTTP 200. A "Note" or "Information" body is the free tier rate
// limit; an "Error Message" body is an unknown symbol or bad call.
type avEnvelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

type avGlobalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		LatestDay     string `json:"07. latest trading day"`
		PrevClose     string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avOverview struct {
	Symbol                     string `json:"Symbol"`
	Name                       string `json:"Name"`
	Sector                     string `json:"Sector"`
	MarketCapitalization       string `json:"MarketCapitalization"`
	PERatio                    string `json:"PERatio"`
	ForwardPE                  string `json:"ForwardPE"`
	PEGRatio                   string `json:"PEGRatio"`
	PriceToBookRatio           string `json:"PriceToBookRatio"`
	EPS                        string `json:"EPS"`
	ReturnOnEquityTTM          string `json:"ReturnOnEquityTTM"`
	ProfitMargin               string `json:"ProfitMargin"`
	GrossProfitTTM             string `json:"GrossProfitTTM"`
	RevenueTTM                 string `json:"RevenueTTM"`
	QuarterlyRevenueGrowthYOY  string `json:"QuarterlyRevenueGrowthYOY"`
	QuarterlyEarningsGrowthYOY string `json:"QuarterlyEarningsGrowthYOY"`
	DividendYield              string `json:"DividendYield"`
	AnalystTargetPrice         string `json:"AnalystTargetPrice"`
}

type avNewsResponse struct {
	Feed []avArticle `json:"feed"`
}

type avArticle struct {
	Title                 string              `json:"title"`
	URL                   string              `json:"url"`
	TimePublished         string              `json:"time_published"`
	Source                string              `json:"source"`
	OverallSentimentScore float64             `json:"overall_sentiment_score"`
	OverallSentimentLabel string              `json:"overall_sentiment_label"`
	TickerSentiment       []avTickerSentiment `json:"ticker_sentiment"`
}

type avTickerSentiment struct {
	Ticker         string `json:"ticker"`
	RelevanceScore string `json:"relevance_score"`
	SentimentScore string `json:"ticker_sentiment_score"`
}

type avSearchResponse struct {
	BestMatches []struct {
		Symbol     string `json:"1. symbol"`
		Name       string `json:"2. name"`
		Type       string `json:"3. type"`
		Region     string `json:"4. region"`
		Currency   string `json:"8. currency"`
		MatchScore string `json:"9. matchScore"`
	} `json:"bestMatches"`
}

// GetQuote fetches the latest quote via GLOBAL_QUOTE.
func (p *AlphaVantageProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	body, err := p.fetch(ctx, avParams{Function: "GLOBAL_QUOTE", Symbol: symbol, APIKey: p.apiKey}, symbol)
	if err != nil {
		return nil, err
	}
	var resp avGlobalQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, terrors.NewProviderError("alphavantage", "global_quote", symbol, "decoding response", err)
	}
	q := resp.GlobalQuote
	if q.Symbol == "" {
		return nil, terrors.NewProviderError("alphavantage", "global_quote", symbol, "empty quote", terrors.ErrSymbolNotFound)
	}

	ts := time.Now().UTC()
	if day, err := time.Parse("2006-01-02", q.LatestDay); err == nil {
		ts = day
	}
	return &models.Quote{
		Symbol:        q.Symbol,
		Price:         avFloat(q.Price),
		Open:          avFloat(q.Open),
		High:          avFloat(q.High),
		Low:           avFloat(q.Low),
		PrevClose:     avFloat(q.PrevClose),
		Change:        avFloat(q.Change),
		ChangePercent: avFloat(q.ChangePercent),
		Volume:        avInt(q.Volume),
		Timestamp:     ts,
	}, nil
}

// GetHistory fetches OHLCV history via TIME_SERIES_DAILY or
// TIME_SERIES_INTRADAY and trims it to the requested range. Intraday
// timestamps are reported in US Eastern time and converted to UTC.
func (p *AlphaVantageProvider) GetHistory(ctx context.Context, req HistoryRequest) (*models.PriceSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := avParams{Symbol: req.Symbol, APIKey: p.apiKey, OutputSize: avOutputSize(req.Range)}
	layout, loc := "2006-01-02", time.UTC
	if req.Resolution == models.ResolutionDaily {
		params.Function = "TIME_SERIES_DAILY"
	} else {
		params.Function = "TIME_SERIES_INTRADAY"
		params.Interval = avInterval(req.Resolution)
		layout, loc = "2006-01-02 15:04:05", utils.Eastern
	}

	body, err := p.fetch(ctx, params, req.Symbol)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, terrors.NewProviderError("alphavantage", "time_series", req.Symbol, "decoding response", err)
	}
	var bars map[string]avBar
	for key, msg := range raw {
		if strings.HasPrefix(key, "Time Series") {
			if err := json.Unmarshal(msg, &bars); err != nil {
				return nil, terrors.NewProviderError("alphavantage", "time_series", req.Symbol, "decoding time series", err)
			}
			break
		}
	}
	if len(bars) == 0 {
		return nil, terrors.NewProviderError("alphavantage", "time_series", req.Symbol, "no time series in response", terrors.ErrSymbolNotFound)
	}

	candles := make([]models.Candle, 0, len(bars))
	start, bounded := rangeStart(time.Now().UTC(), req.Range)
	for stamp, bar := range bars {
		ts, err := time.ParseInLocation(layout, stamp, loc)
		if err != nil {
			continue
		}
		ts = ts.UTC()
		if bounded && ts.Before(start) {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      avFloat(bar.Open),
			High:      avFloat(bar.High),
			Low:       avFloat(bar.Low),
			Close:     avFloat(bar.Close),
			Volume:    avInt(bar.Volume),
		})
	}
	if len(candles) == 0 {
		return nil, terrors.NewProviderError("alphavantage", "time_series", req.Symbol, "no bars in requested range", terrors.ErrSymbolNotFound)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })

	return &models.PriceSeries{
		Symbol:     req.Symbol,
		Resolution: req.Resolution,
		Candles:    candles,
	}, nil
}

// GetFundamentals fetches the company OVERVIEW. Ratio fields are
// reported as fractions and converted to percent; "None" and "-"
// values come through as zero, meaning unreported.
func (p *AlphaVantageProvider) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	body, err := p.fetch(ctx, avParams{Function: "OVERVIEW", Symbol: symbol, APIKey: p.apiKey}, symbol)
	if err != nil {
		return nil, err
	}
	var ov avOverview
	if err := json.Unmarshal(body, &ov); err != nil {
		return nil, terrors.NewProviderError("alphavantage", "overview", symbol, "decoding response", err)
	}
	if ov.Symbol == "" {
		return nil, terrors.NewProviderError("alphavantage", "overview", symbol, "empty overview", terrors.ErrSymbolNotFound)
	}

	f := &models.Fundamentals{
		Symbol:          ov.Symbol,
		Name:            ov.Name,
		Sector:          avSector(ov.Sector),
		MarketCap:       avFloat(ov.MarketCapitalization),
		PERatio:         avFloat(ov.PERatio),
		ForwardPE:       avFloat(ov.ForwardPE),
		PEGRatio:        avFloat(ov.PEGRatio),
		PriceToBook:     avFloat(ov.PriceToBookRatio),
		EPS:             avFloat(ov.EPS),
		ROE:             avFloat(ov.ReturnOnEquityTTM) * 100,
		ProfitMargin:    avFloat(ov.ProfitMargin) * 100,
		RevenueGrowth:   avFloat(ov.QuarterlyRevenueGrowthYOY) * 100,
		EPSGrowth:       avFloat(ov.QuarterlyEarningsGrowthYOY) * 100,
		DividendYield:   avFloat(ov.DividendYield) * 100,
		TargetMeanPrice: avFloat(ov.AnalystTargetPrice),
		AsOf:            time.Now().UTC(),
	}
	if revenue := avFloat(ov.RevenueTTM); revenue > 0 {
		if gross := avFloat(ov.GrossProfitTTM); gross > 0 {
			f.GrossMargin = gross / revenue * 100
		}
	}
	return f, nil
}

// GetNewsSentiment fetches the NEWS_SENTIMENT feed for one symbol. The
// per-article score prefers the ticker-specific sentiment entry over
// the article-wide one.
func (p *AlphaVantageProvider) GetNewsSentiment(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = 50
	}
	body, err := p.fetch(ctx, avParams{Function: "NEWS_SENTIMENT", Tickers: symbol, Limit: limit, APIKey: p.apiKey}, symbol)
	if err != nil {
		return nil, err
	}
	var resp avNewsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, terrors.NewProviderError("alphavantage", "news_sentiment", symbol, "decoding response", err)
	}

	items := make([]models.NewsItem, 0, len(resp.Feed))
	for _, article := range resp.Feed {
		published, err := time.Parse(avNewsTimeLayout, article.TimePublished)
		if err != nil {
			continue
		}
		item := models.NewsItem{
			Title:          article.Title,
			Source:         article.Source,
			URL:            article.URL,
			PublishedAt:    published.UTC(),
			SentimentScore: article.OverallSentimentScore,
		}
		for _, ticker := range article.TickerSentiment {
			if !strings.EqualFold(ticker.Ticker, symbol) {
				continue
			}
			if score, err := strconv.ParseFloat(ticker.SentimentScore, 64); err == nil {
				item.SentimentScore = score
			}
			if rel, err := strconv.ParseFloat(ticker.RelevanceScore, 64); err == nil {
				item.Relevance = rel
			}
			break
		}
		items = append(items, item)
	}
	return items, nil
}

// SearchSymbols queries SYMBOL_SEARCH.
func (p *AlphaVantageProvider) SearchSymbols(ctx context.Context, q string) ([]models.SymbolMatch, error) {
	if q == "" {
		return nil, fmt.Errorf("empty search query")
	}
	body, err := p.fetch(ctx, avParams{Function: "SYMBOL_SEARCH", Keywords: q, APIKey: p.apiKey}, q)
	if err != nil {
		return nil, err
	}
	var resp avSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, terrors.NewProviderError("alphavantage", "symbol_search", q, "decoding response", err)
	}

	matches := make([]models.SymbolMatch, 0, len(resp.BestMatches))
	for _, m := range resp.BestMatches {
		matches = append(matches, models.SymbolMatch{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Type:     m.Type,
			Region:   m.Region,
			Currency: m.Currency,
			Score:    avFloat(m.MatchScore),
		})
	}
	return matches, nil
}

// fetch runs one /query call with retries and maps transport, HTTP and
// body-level failures onto the provider sentinels.
func (p *AlphaVantageProvider) fetch(ctx context.Context, params avParams, symbol string) ([]byte, error) {
	values, err := query.Values(params)
	if err != nil {
		return nil, terrors.NewProviderError("alphavantage", params.Function, symbol, "encoding params", err)
	}
	u := p.baseURL + "/query?" + values.Encode()
	endpoint := strings.ToLower(params.Function)

	return utils.RetryWithResult(ctx, p.retry, func() ([]byte, error) {
		return p.fetchOnce(ctx, u, symbol, endpoint)
	})
}

func (p *AlphaVantageProvider) fetchOnce(ctx context.Context, u, symbol, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, terrors.NewProviderError("alphavantage", endpoint, symbol, "building request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	logging.LogFetch(p.logger, "alphavantage", endpoint, symbol, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, terrors.NewProviderError("alphavantage", endpoint, symbol, err.Error(), terrors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		logging.LogRateLimit(p.logger, "alphavantage", symbol)
		return nil, terrors.NewProviderError("alphavantage", endpoint, symbol, "http 429", terrors.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, terrors.NewProviderError("alphavantage", endpoint, symbol,
			fmt.Sprintf("http %d", resp.StatusCode), terrors.ErrUpstreamUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, terrors.NewProviderError("alphavantage", endpoint, symbol, "reading response", terrors.ErrUpstreamUnavailable)
	}

	var env avEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Note != "" || env.Information != "":
			logging.LogRateLimit(p.logger, "alphavantage", symbol)
			return nil, terrors.NewProviderError("alphavantage", endpoint, symbol, "api rate limit note", terrors.ErrRateLimited)
		case env.ErrorMessage != "":
			return nil, terrors.NewProviderError("alphavantage", endpoint, symbol, env.ErrorMessage, terrors.ErrSymbolNotFound)
		}
	}
	return body, nil
}

// avInterval maps a bar resolution onto the intraday interval vocabulary.
func avInterval(r models.Resolution) string {
	switch r {
	case models.Resolution1Min:
		return "1min"
	case models.Resolution5Min:
		return "5min"
	case models.Resolution15Min:
		return "15min"
	case models.Resolution30Min:
		return "30min"
	case models.Resolution60Min:
		return "60min"
	default:
		return "5min"
	}
}

// avOutputSize picks compact (last 100 bars) for short ranges and full
// otherwise.
func avOutputSize(rng string) string {
	switch rng {
	case "1d", "5d", "1mo", "3mo":
		return "compact"
	default:
		return "full"
	}
}

// rangeStart returns the inclusive start of a range relative to now.
// bounded is false for "max".
func rangeStart(now time.Time, rng string) (start time.Time, bounded bool) {
	switch rng {
	case "1d":
		return now.AddDate(0, 0, -1), true
	case "5d":
		return now.AddDate(0, 0, -7), true
	case "1mo":
		return now.AddDate(0, -1, 0), true
	case "3mo":
		return now.AddDate(0, -3, 0), true
	case "6mo":
		return now.AddDate(0, -6, 0), true
	case "1y":
		return now.AddDate(-1, 0, 0), true
	case "2y":
		return now.AddDate(-2, 0, 0), true
	case "5y":
		return now.AddDate(-5, 0, 0), true
	case "10y":
		return now.AddDate(-10, 0, 0), true
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), true
	default:
		return time.Time{}, false
	}
}

// avSector maps the SIC-derived sector names Alpha Vantage reports onto
// the benchmark vocabulary used for fundamental scoring.
func avSector(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return ""
	case "TECHNOLOGY":
		return "Technology"
	case "FINANCE":
		return "Finance"
	case "LIFE SCIENCES":
		return "Healthcare"
	case "ENERGY & TRANSPORTATION":
		return "Energy"
	case "MANUFACTURING":
		return "Industrials"
	case "TRADE & SERVICES":
		return "Consumer Cyclical"
	case "REAL ESTATE & CONSTRUCTION":
		return "Real Estate"
	default:
		return strings.Title(strings.ToLower(s)) //nolint:staticcheck // sector names are plain ASCII
	}
}

// avFloat parses a numeric field, tolerating percent suffixes and the
// "None"/"-" placeholders, which come through as zero.
func avFloat(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func avInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
