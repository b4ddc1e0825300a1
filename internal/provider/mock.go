package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// mockEpoch anchors generated timestamps so a symbol's series is
// byte-for-byte identical across runs. It is a Tuesday.
var mockEpoch = time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)

var mockSectors = []string{
	"Technology", "Software", "Finance", "Consumer Cyclical", "Healthcare",
	"Energy", "Industrials", "Consumer Defensive", "Communication Services",
	"Utilities", "Real Estate", "Basic Materials",
}

var mockHeadlines = []string{
	"beats quarterly estimates",
	"announces product expansion",
	"faces analyst downgrade",
	"raises full year guidance",
	"completes strategic acquisition",
}

// MockProvider serves deterministic generated data for tests and
// offline use. The same symbol always produces the same series: the
// symbol hash seeds a random walk, so some symbols trend up and some
// down.
type MockProvider struct{}

// NewMock creates a mock provider.
func NewMock() *MockProvider { return &MockProvider{} }

// Name returns the provider name.
func (p *MockProvider) Name() string { return "mock" }

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return int64(h.Sum64() & math.MaxInt64)
}

// mockDrift is the per-bar log return trend for a symbol, in
// [-0.0024, +0.0024]. Roughly half of all symbols trend up.
func mockDrift(seed int64) float64 {
	return float64(seed%7-3) * 0.0008
}

func mockBars(resolution models.Resolution, rng string) int {
	days := map[string]int{
		"1d": 1, "5d": 5, "1mo": 22, "3mo": 66, "6mo": 126, "ytd": 160,
		"1y": 252, "2y": 504, "5y": 1260, "10y": 2520, "max": 2520,
	}[rng]
	if resolution == models.ResolutionDaily {
		return days
	}
	perDay := map[models.Resolution]int{
		models.Resolution1Min:  390,
		models.Resolution5Min:  78,
		models.Resolution15Min: 26,
		models.Resolution30Min: 13,
		models.Resolution60Min: 7,
	}[resolution]
	bars := days * perDay
	if bars > 2000 {
		bars = 2000
	}
	return bars
}

// GetHistory generates a deterministic OHLCV random walk.
func (p *MockProvider) GetHistory(ctx context.Context, req HistoryRequest) (*models.PriceSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := symbolSeed(req.Symbol)
	rng := rand.New(rand.NewSource(seed))
	bars := mockBars(req.Resolution, req.Range)
	drift := mockDrift(seed)

	price := 20 + float64(seed%400)
	ts := mockEpoch
	candles := make([]models.Candle, 0, bars)
	for i := 0; i < bars; i++ {
		ret := drift + rng.NormFloat64()*0.015
		open := price
		cls := price * (1 + ret)
		high := math.Max(open, cls) * (1 + rng.Float64()*0.006)
		low := math.Min(open, cls) * (1 - rng.Float64()*0.006)
		volume := int64((0.5 + rng.Float64()) * 2e6 * (1 + 10*math.Abs(ret)))

		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cls,
			Volume:    volume,
		})
		price = cls
		ts = nextBarTime(ts, req.Resolution)
	}

	return &models.PriceSeries{
		Symbol:     req.Symbol,
		Resolution: req.Resolution,
		Candles:    candles,
	}, nil
}

// nextBarTime advances one bar. Daily bars skip weekends; intraday bars
// step by the interval without session gaps.
func nextBarTime(ts time.Time, resolution models.Resolution) time.Time {
	if resolution == models.ResolutionDaily {
		ts = ts.AddDate(0, 0, 1)
		for ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday {
			ts = ts.AddDate(0, 0, 1)
		}
		return ts
	}
	step := map[models.Resolution]time.Duration{
		models.Resolution1Min:  time.Minute,
		models.Resolution5Min:  5 * time.Minute,
		models.Resolution15Min: 15 * time.Minute,
		models.Resolution30Min: 30 * time.Minute,
		models.Resolution60Min: time.Hour,
	}[resolution]
	return ts.Add(step)
}

// GetQuote derives a quote from the last two bars of the generated
// daily series.
func (p *MockProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	series, err := p.GetHistory(ctx, HistoryRequest{Symbol: symbol, Resolution: models.ResolutionDaily, Range: "1mo"})
	if err != nil {
		return nil, err
	}
	candles := series.Candles
	last := candles[len(candles)-1]
	prevClose := candles[len(candles)-2].Close

	change := last.Close - prevClose
	return &models.Quote{
		Symbol:        symbol,
		Price:         last.Close,
		Open:          last.Open,
		High:          last.High,
		Low:           last.Low,
		PrevClose:     prevClose,
		Change:        change,
		ChangePercent: change / prevClose * 100,
		Volume:        last.Volume,
		Timestamp:     last.Timestamp,
	}, nil
}

// GetFundamentals generates a full fundamental snapshot so fundamental
// scoring works offline.
func (p *MockProvider) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := symbolSeed(symbol)
	rng := rand.New(rand.NewSource(seed + 1))

	pe := 8 + rng.Float64()*40
	fcf := 1e8 + rng.Float64()*5e9
	if rng.Intn(5) == 0 {
		fcf = -fcf
	}
	return &models.Fundamentals{
		Symbol:        strings.ToUpper(symbol),
		Name:          strings.ToUpper(symbol) + " Inc.",
		Sector:        mockSectors[seed%int64(len(mockSectors))],
		MarketCap:     1e9 * (1 + rng.Float64()*1999),
		PERatio:       pe,
		ForwardPE:     pe * (0.8 + rng.Float64()*0.3),
		PEGRatio:      0.8 + rng.Float64()*2.5,
		PriceToBook:   1 + rng.Float64()*9,
		EPS:           1 + rng.Float64()*14,
		EPSGrowth:     -5 + rng.Float64()*35,
		RevenueGrowth: -5 + rng.Float64()*35,
		DividendYield: rng.Float64() * 4,
		ROE:           5 + rng.Float64()*25,
		ProfitMargin:  5 + rng.Float64()*30,
		GrossMargin:   20 + rng.Float64()*50,
		DebtToEquity:  0.2 + rng.Float64()*2.3,
		FreeCashflow:  fcf,
		AsOf:          mockEpoch,
	}, nil
}

// GetNewsSentiment generates a small feed whose scores lean the same
// way as the symbol's price drift.
func (p *MockProvider) GetNewsSentiment(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(mockHeadlines) {
		limit = len(mockHeadlines)
	}
	seed := symbolSeed(symbol)
	rng := rand.New(rand.NewSource(seed + 2))
	lean := mockDrift(seed) * 150

	items := make([]models.NewsItem, 0, limit)
	for i := 0; i < limit; i++ {
		score := lean + rng.NormFloat64()*0.2
		score = math.Max(-0.9, math.Min(0.9, score))
		items = append(items, models.NewsItem{
			Title:          fmt.Sprintf("%s %s", strings.ToUpper(symbol), mockHeadlines[i]),
			Source:         "Mock Newswire",
			URL:            fmt.Sprintf("https://news.example.com/%s/%d", strings.ToLower(symbol), i),
			PublishedAt:    mockEpoch.AddDate(0, 0, -i),
			SentimentScore: score,
			Relevance:      0.5 + rng.Float64()*0.5,
		})
	}
	return items, nil
}

// SearchSymbols returns the query itself as an exact match.
func (p *MockProvider) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	return []models.SymbolMatch{{
		Symbol:   strings.ToUpper(query),
		Name:     strings.ToUpper(query) + " Inc.",
		Type:     "Equity",
		Region:   "United States",
		Currency: "USD",
		Score:    1.0,
	}}, nil
}
