package provider

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

func avTestProvider(srv *httptest.Server) *AlphaVantageProvider {
	return NewAlphaVantage(config.ProviderConfig{
		MaxRetries:     1,
		RetryBackoffMS: 1,
		AlphaVantage:   config.AlphaVantageConfig{BaseURL: srv.URL},
	}, "test-key")
}

func TestAlphaVantageGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("function") != "GLOBAL_QUOTE" {
			t.Errorf("function = %q", q.Get("function"))
		}
		if q.Get("symbol") != "IBM" {
			t.Errorf("symbol = %q", q.Get("symbol"))
		}
		if q.Get("apikey") != "test-key" {
			t.Errorf("apikey = %q", q.Get("apikey"))
		}
		w.Write([]byte(`{
			"Global Quote": {
				"01. symbol": "IBM",
				"02. open": "168.20",
				"03. high": "170.05",
				"04. low": "167.80",
				"05. price": "169.50",
				"06. volume": "4120000",
				"07. latest trading day": "2025-03-07",
				"08. previous close": "167.00",
				"09. change": "2.50",
				"10. change percent": "1.4970%"
			}
		}`))
	}))
	defer srv.Close()

	quote, err := avTestProvider(srv).GetQuote(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.Price != 169.50 || quote.PrevClose != 167.00 {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if quote.ChangePercent != 1.4970 {
		t.Fatalf("ChangePercent = %v, want percent suffix stripped", quote.ChangePercent)
	}
	if quote.Volume != 4120000 {
		t.Fatalf("Volume = %d", quote.Volume)
	}
	wantDay := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	if !quote.Timestamp.Equal(wantDay) {
		t.Fatalf("Timestamp = %v, want %v", quote.Timestamp, wantDay)
	}
}

func TestAlphaVantageRateLimitNote(t *testing.T) {
	bodies := []string{
		`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`,
		`{"Information": "Please consider a premium plan."}`,
	}
	for _, body := range bodies {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.Write([]byte(body))
		}))

		p := NewAlphaVantage(config.ProviderConfig{
			MaxRetries:     3,
			RetryBackoffMS: 1,
			AlphaVantage:   config.AlphaVantageConfig{BaseURL: srv.URL},
		}, "test-key")
		_, err := p.GetQuote(context.Background(), "IBM")
		if !errors.Is(err, terrors.ErrRateLimited) {
			t.Fatalf("body %s: expected ErrRateLimited, got %v", body, err)
		}
		if attempts.Load() != 1 {
			t.Fatalf("rate limit note should not be retried, got %d attempts", attempts.Load())
		}
		srv.Close()
	}
}

func TestAlphaVantageErrorMessageMapsToSymbolNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call. Please retry or visit the documentation."}`))
	}))
	defer srv.Close()

	_, err := avTestProvider(srv).GetQuote(context.Background(), "NXIST")
	if !errors.Is(err, terrors.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestAlphaVantageGetHistoryDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "TIME_SERIES_DAILY" {
			t.Errorf("function = %q", q.Get("function"))
		}
		if q.Get("outputsize") != "full" {
			t.Errorf("outputsize = %q, want full for max range", q.Get("outputsize"))
		}
		// Keys deliberately out of order; the provider must sort.
		w.Write([]byte(`{
			"Meta Data": {"2. Symbol": "IBM"},
			"Time Series (Daily)": {
				"2025-03-07": {"1. open": "168.2", "2. high": "170.0", "3. low": "167.8", "4. close": "169.5", "5. volume": "4120000"},
				"2025-03-05": {"1. open": "165.0", "2. high": "166.4", "3. low": "164.1", "4. close": "166.0", "5. volume": "3900000"},
				"2025-03-06": {"1. open": "166.1", "2. high": "168.9", "3. low": "165.7", "4. close": "168.0", "5. volume": "4010000"}
			}
		}`))
	}))
	defer srv.Close()

	series, err := avTestProvider(srv).GetHistory(context.Background(), HistoryRequest{
		Symbol:     "IBM",
		Resolution: models.ResolutionDaily,
		Range:      "max",
	})
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(series.Candles) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(series.Candles))
	}
	for i := 1; i < len(series.Candles); i++ {
		if !series.Candles[i-1].Timestamp.Before(series.Candles[i].Timestamp) {
			t.Fatal("bars not sorted ascending")
		}
	}
	last := series.Candles[2]
	if last.Close != 169.5 || last.Volume != 4120000 {
		t.Fatalf("unexpected last bar %+v", last)
	}
}

func TestAlphaVantageGetHistoryIntraday(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "TIME_SERIES_INTRADAY" {
			t.Errorf("function = %q", q.Get("function"))
		}
		if q.Get("interval") != "5min" {
			t.Errorf("interval = %q", q.Get("interval"))
		}
		w.Write([]byte(`{
			"Time Series (5min)": {
				"2025-03-07 10:30:00": {"1. open": "168.0", "2. high": "168.4", "3. low": "167.9", "4. close": "168.2", "5. volume": "120000"}
			}
		}`))
	}))
	defer srv.Close()

	series, err := avTestProvider(srv).GetHistory(context.Background(), HistoryRequest{
		Symbol:     "IBM",
		Resolution: models.Resolution5Min,
		Range:      "max",
	})
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(series.Candles) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(series.Candles))
	}
	// March 7 2025 is before the DST switch, so 10:30 Eastern is
	// 15:30 UTC.
	want := time.Date(2025, 3, 7, 15, 30, 0, 0, time.UTC)
	if !series.Candles[0].Timestamp.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", series.Candles[0].Timestamp, want)
	}
}

func TestAlphaVantageGetHistoryNoSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Meta Data": {"2. Symbol": "IBM"}}`))
	}))
	defer srv.Close()

	_, err := avTestProvider(srv).GetHistory(context.Background(), HistoryRequest{
		Symbol:     "IBM",
		Resolution: models.ResolutionDaily,
		Range:      "max",
	})
	if !errors.Is(err, terrors.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestAlphaVantageGetFundamentals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "OVERVIEW" {
			t.Errorf("function = %q", got)
		}
		w.Write([]byte(`{
			"Symbol": "IBM",
			"Name": "International Business Machines",
			"Sector": "TECHNOLOGY",
			"MarketCapitalization": "170000000000",
			"PERatio": "21.4",
			"ForwardPE": "18.2",
			"PEGRatio": "1.8",
			"PriceToBookRatio": "7.1",
			"EPS": "7.89",
			"ReturnOnEquityTTM": "0.32",
			"ProfitMargin": "0.095",
			"GrossProfitTTM": "32000000000",
			"RevenueTTM": "64000000000",
			"QuarterlyRevenueGrowthYOY": "0.041",
			"QuarterlyEarningsGrowthYOY": "-0.12",
			"DividendYield": "0.0395",
			"AnalystTargetPrice": "185.50"
		}`))
	}))
	defer srv.Close()

	f, err := avTestProvider(srv).GetFundamentals(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("GetFundamentals: %v", err)
	}
	if f.Sector != "Technology" {
		t.Fatalf("Sector = %q, want Technology", f.Sector)
	}
	// Fractions come through as percents.
	if math.Abs(f.ROE-32) > 1e-9 {
		t.Fatalf("ROE = %v, want 32", f.ROE)
	}
	if math.Abs(f.ProfitMargin-9.5) > 1e-9 {
		t.Fatalf("ProfitMargin = %v, want 9.5", f.ProfitMargin)
	}
	if math.Abs(f.DividendYield-3.95) > 1e-9 {
		t.Fatalf("DividendYield = %v, want 3.95", f.DividendYield)
	}
	if math.Abs(f.EPSGrowth-(-12)) > 1e-9 {
		t.Fatalf("EPSGrowth = %v, want -12", f.EPSGrowth)
	}
	if math.Abs(f.GrossMargin-50) > 1e-9 {
		t.Fatalf("GrossMargin = %v, want 50 (gross profit over revenue)", f.GrossMargin)
	}
	if f.TargetMeanPrice != 185.50 {
		t.Fatalf("TargetMeanPrice = %v", f.TargetMeanPrice)
	}
}

func TestAlphaVantageGetFundamentalsUnreportedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Symbol": "NEWCO",
			"Name": "New Co",
			"Sector": "",
			"PERatio": "None",
			"PEGRatio": "-",
			"DividendYield": "None"
		}`))
	}))
	defer srv.Close()

	f, err := avTestProvider(srv).GetFundamentals(context.Background(), "NEWCO")
	if err != nil {
		t.Fatalf("GetFundamentals: %v", err)
	}
	if f.PERatio != 0 || f.PEGRatio != 0 || f.DividendYield != 0 {
		t.Fatalf("placeholder values should read as zero, got %+v", f)
	}
}

func TestAlphaVantageGetFundamentalsEmptyOverview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := avTestProvider(srv).GetFundamentals(context.Background(), "NXIST")
	if !errors.Is(err, terrors.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestAlphaVantageGetNewsSentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "NEWS_SENTIMENT" {
			t.Errorf("function = %q", q.Get("function"))
		}
		if q.Get("tickers") != "IBM" {
			t.Errorf("tickers = %q", q.Get("tickers"))
		}
		w.Write([]byte(`{
			"feed": [
				{
					"title": "IBM beats estimates",
					"url": "https://news.example.com/1",
					"time_published": "20250307T143000",
					"source": "Newswire",
					"overall_sentiment_score": 0.12,
					"ticker_sentiment": [
						{"ticker": "MSFT", "relevance_score": "0.2", "ticker_sentiment_score": "-0.1"},
						{"ticker": "IBM", "relevance_score": "0.91", "ticker_sentiment_score": "0.44"}
					]
				},
				{
					"title": "Broad market wrap",
					"url": "https://news.example.com/2",
					"time_published": "20250306T210000",
					"source": "Newswire",
					"overall_sentiment_score": -0.05,
					"ticker_sentiment": []
				},
				{
					"title": "bad timestamp, dropped",
					"url": "https://news.example.com/3",
					"time_published": "not-a-time",
					"source": "Newswire",
					"overall_sentiment_score": 0.5
				}
			]
		}`))
	}))
	defer srv.Close()

	items, err := avTestProvider(srv).GetNewsSentiment(context.Background(), "IBM", 50)
	if err != nil {
		t.Fatalf("GetNewsSentiment: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (unparseable timestamp dropped), got %d", len(items))
	}
	// Ticker-specific sentiment wins over the article-wide score.
	if items[0].SentimentScore != 0.44 {
		t.Fatalf("SentimentScore = %v, want ticker-specific 0.44", items[0].SentimentScore)
	}
	if items[0].Relevance != 0.91 {
		t.Fatalf("Relevance = %v, want 0.91", items[0].Relevance)
	}
	// No ticker entry: fall back to the article-wide score.
	if items[1].SentimentScore != -0.05 {
		t.Fatalf("SentimentScore = %v, want article-wide -0.05", items[1].SentimentScore)
	}
	want := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)
	if !items[0].PublishedAt.Equal(want) {
		t.Fatalf("PublishedAt = %v, want %v", items[0].PublishedAt, want)
	}
}

func TestAlphaVantageSearchSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "SYMBOL_SEARCH" {
			t.Errorf("function = %q", q.Get("function"))
		}
		if q.Get("keywords") != "intern" {
			t.Errorf("keywords = %q", q.Get("keywords"))
		}
		w.Write([]byte(`{
			"bestMatches": [
				{"1. symbol": "IBM", "2. name": "International Business Machines Corp", "3. type": "Equity", "4. region": "United States", "8. currency": "USD", "9. matchScore": "0.8889"}
			]
		}`))
	}))
	defer srv.Close()

	matches, err := avTestProvider(srv).SearchSymbols(context.Background(), "intern")
	if err != nil {
		t.Fatalf("SearchSymbols: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Symbol != "IBM" || m.Currency != "USD" || m.Score != 0.8889 {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestAVSectorMapping(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TECHNOLOGY", "Technology"},
		{"LIFE SCIENCES", "Healthcare"},
		{"ENERGY & TRANSPORTATION", "Energy"},
		{"MANUFACTURING", "Industrials"},
		{"TRADE & SERVICES", "Consumer Cyclical"},
		{"REAL ESTATE & CONSTRUCTION", "Real Estate"},
		{"FINANCE", "Finance"},
		{"", ""},
		{"  technology  ", "Technology"},
	}
	for _, tc := range tests {
		if got := avSector(tc.in); got != tc.want {
			t.Errorf("avSector(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAVFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.25", 1.25},
		{"1.4970%", 1.4970},
		{" 42 ", 42},
		{"None", 0},
		{"-", 0},
		{"", 0},
		{"-0.12", -0.12},
	}
	for _, tc := range tests {
		if got := avFloat(tc.in); got != tc.want {
			t.Errorf("avFloat(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAVOutputSize(t *testing.T) {
	if avOutputSize("1mo") != "compact" {
		t.Error("short ranges should request compact output")
	}
	if avOutputSize("5y") != "full" {
		t.Error("long ranges should request full output")
	}
}

func TestRangeStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	start, bounded := rangeStart(now, "1y")
	if !bounded || !start.Equal(now.AddDate(-1, 0, 0)) {
		t.Fatalf("1y start = %v bounded = %v", start, bounded)
	}

	start, bounded = rangeStart(now, "ytd")
	if !bounded || !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ytd start = %v", start)
	}

	if _, bounded := rangeStart(now, "max"); bounded {
		t.Fatal("max range must be unbounded")
	}
}
