package scoring

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// seriesOf builds a daily series from closes, with each bar trading at
// its close and the given volumes (cycled when shorter).
func seriesOf(symbol string, closes []float64, volumes []int64) *models.PriceSeries {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		vol := int64(1000)
		if len(volumes) > 0 {
			vol = volumes[i%len(volumes)]
		}
		candles[i] = models.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    vol,
		}
	}
	return &models.PriceSeries{Symbol: symbol, Resolution: models.ResolutionDaily, Candles: candles}
}

// risingSeries is a full year of steady gains on growing volume.
func risingSeries(symbol string) *models.PriceSeries {
	closes := make([]float64, 252)
	volumes := make([]int64, 252)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
		volumes[i] = 1000 + 10*int64(i)
	}
	return seriesOf(symbol, closes, volumes)
}

// fallingSeries mirrors risingSeries downward.
func fallingSeries(symbol string) *models.PriceSeries {
	closes := make([]float64, 252)
	volumes := make([]int64, 252)
	for i := range closes {
		closes[i] = 250 - 0.5*float64(i)
		volumes[i] = 1000 + 10*int64(i)
	}
	return seriesOf(symbol, closes, volumes)
}

func bullishInput(symbol string) Input {
	return Input{
		Series: risingSeries(symbol),
		Fundamentals: &models.Fundamentals{
			Symbol:        symbol,
			PEGRatio:      0.5,
			EPSGrowth:     30,
			GrossMargin:   60,
			FreeCashflow:  1e9,
			DividendYield: 5,
		},
		Sentiment: &models.SentimentSnapshot{
			Symbol: symbol, Score: 0.40, Articles: 12, Bullish: 9,
		},
	}
}

func bearishInput(symbol string) Input {
	return Input{
		Series: fallingSeries(symbol),
		Fundamentals: &models.Fundamentals{
			Symbol:       symbol,
			PEGRatio:     3,
			EPSGrowth:    -10,
			GrossMargin:  10,
			FreeCashflow: -1e8,
		},
		Sentiment: &models.SentimentSnapshot{
			Symbol: symbol, Score: -0.40, Articles: 12, Bearish: 9,
		},
	}
}

func findScore(t *testing.T, report *analysis.Report, dim analysis.Dimension) analysis.SignalScore {
	t.Helper()
	for _, s := range report.Scores {
		if s.Dimension == dim {
			return s
		}
	}
	t.Fatalf("dimension %s missing from report", dim)
	return analysis.SignalScore{}
}

func TestAnalyzeBullishProducesBuy(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())
	report, err := engine.Analyze(context.Background(), bullishInput("UPCO"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Action != analysis.ActionBuy {
		t.Errorf("action = %s (composite %.3f), want BUY", report.Action, report.Composite)
	}

	trend := findScore(t, report, analysis.DimensionTrend)
	if !trend.Available {
		t.Fatal("trend dimension unavailable")
	}
	if trend.Value != 1.0 {
		t.Errorf("trend value = %v, want the clamped maximum 1.0", trend.Value)
	}
	if trend.Label != "golden cross" {
		t.Errorf("trend label = %q, want golden cross", trend.Label)
	}
	if report.Completeness != 1.0 {
		t.Errorf("completeness = %v, want 1.0 with every dimension supplied", report.Completeness)
	}
	found := false
	for _, s := range report.Strengths {
		if s == "golden cross with price above both moving averages" {
			found = true
		}
	}
	if !found {
		t.Errorf("strengths missing the golden cross note: %v", report.Strengths)
	}
}

func TestAnalyzeBearishProducesSell(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())
	report, err := engine.Analyze(context.Background(), bearishInput("DNCO"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Action != analysis.ActionSell {
		t.Errorf("action = %s (composite %.3f), want SELL", report.Action, report.Composite)
	}
	trend := findScore(t, report, analysis.DimensionTrend)
	if trend.Value != -1.0 {
		t.Errorf("trend value = %v, want -1.0", trend.Value)
	}
	if trend.Label != "death cross" {
		t.Errorf("trend label = %q, want death cross", trend.Label)
	}
}

func TestAnalyzeMissingDimensionsReduceConfidence(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())
	report, err := engine.Analyze(context.Background(), Input{Series: risingSeries("UPCO")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Trend, momentum and volume carry 0.75 of the default weight.
	if math.Abs(report.Completeness-0.75) > 1e-9 {
		t.Errorf("completeness = %v, want 0.75", report.Completeness)
	}
	want := math.Min(1, math.Abs(report.Composite)*report.Completeness)
	if math.Abs(report.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", report.Confidence, want)
	}

	for _, dim := range []analysis.Dimension{analysis.DimensionSentiment, analysis.DimensionFundamental} {
		s := findScore(t, report, dim)
		if s.Available {
			t.Errorf("%s marked available without input", dim)
		}
		if s.Weighted != 0 {
			t.Errorf("%s weighted = %v, want 0", dim, s.Weighted)
		}
	}

	// Missing dimensions close the rationale, available ones lead it.
	n := len(report.Rationale)
	if n < 5 {
		t.Fatalf("rationale has %d lines, want 5", n)
	}
	for _, line := range report.Rationale[n-2:] {
		if !strings.Contains(line, "no data") {
			t.Errorf("expected missing-data line at the end, got %q", line)
		}
	}
}

func TestAnalyzeBuyThresholdIsInclusive(t *testing.T) {
	cfg := config.DefaultAnalysisConfig()
	cfg.Weights = config.WeightConfig{Trend: 0.30}

	engine := NewEngine(cfg)
	report, err := engine.Analyze(context.Background(), Input{Series: risingSeries("EDGE")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Trend clamps to exactly 1.0, so the composite sits exactly on the
	// buy threshold.
	if report.Composite != 0.30 {
		t.Fatalf("composite = %v, want exactly 0.30", report.Composite)
	}
	if report.Action != analysis.ActionBuy {
		t.Errorf("action at the threshold = %s, want BUY", report.Action)
	}

	cfg.Weights = config.WeightConfig{Trend: 0.29}
	report, err = NewEngine(cfg).Analyze(context.Background(), Input{Series: risingSeries("EDGE")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Action != analysis.ActionHold {
		t.Errorf("action below the threshold = %s, want HOLD", report.Action)
	}
}

func TestAnalyzeShortHistoryFails(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	_, err := engine.Analyze(context.Background(), Input{Series: seriesOf("SHRT", closes, nil)})
	if !errors.Is(err, terrors.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestAnalyzeStrictTrendRejectsShortSeries(t *testing.T) {
	cfg := config.DefaultAnalysisConfig()
	cfg.StrictTrend = true
	engine := NewEngine(cfg)

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	_, err := engine.Analyze(context.Background(), Input{Series: seriesOf("STRC", closes, nil)})
	if !errors.Is(err, terrors.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestAnalyzeFallsBackToShortWindows(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	report, err := engine.Analyze(context.Background(), Input{Series: seriesOf("FALL", closes, nil)})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Snapshot.FastWindow != 20 || report.Snapshot.SlowWindow != 50 {
		t.Errorf("trend windows = %d/%d, want the 20/50 fallback",
			report.Snapshot.FastWindow, report.Snapshot.SlowWindow)
	}
}

func TestAnalyzeRequireFundamentals(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())
	_, err := engine.Analyze(context.Background(), Input{
		Series:              risingSeries("REQF"),
		RequireFundamentals: true,
	})
	if !errors.Is(err, terrors.ErrInvalidFundamentals) {
		t.Errorf("expected ErrInvalidFundamentals, got %v", err)
	}

	// An all-zero snapshot has nothing to score either.
	_, err = engine.Analyze(context.Background(), Input{
		Series:              risingSeries("REQF"),
		Fundamentals:        &models.Fundamentals{Symbol: "REQF"},
		RequireFundamentals: true,
	})
	if !errors.Is(err, terrors.ErrInvalidFundamentals) {
		t.Errorf("expected ErrInvalidFundamentals for empty snapshot, got %v", err)
	}
}

func TestAnalyzeEmptySeries(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())
	for _, in := range []Input{{}, {Series: &models.PriceSeries{Symbol: "EMT"}}} {
		if _, err := engine.Analyze(context.Background(), in); !errors.Is(err, terrors.ErrInsufficientHistory) {
			t.Errorf("expected ErrInsufficientHistory, got %v", err)
		}
	}
}

func TestMinHistoryDefaults(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())
	if got := engine.MinHistory(); got != 26 {
		t.Errorf("MinHistory = %d, want 26 (MACD slow period)", got)
	}
}

func TestTrendFromSMAsExtremes(t *testing.T) {
	up := trendFromSMAs(110, 105, 100, 50, 200, 0.5, true)
	if up.value != 1.0 || up.label != "golden cross" {
		t.Errorf("bullish alignment = %v %q, want 1.0 golden cross", up.value, up.label)
	}

	down := trendFromSMAs(90, 95, 100, 50, 200, -0.5, true)
	if down.value != -1.0 || down.label != "death cross" {
		t.Errorf("bearish alignment = %v %q, want -1.0 death cross", down.value, down.label)
	}

	flat := trendFromSMAs(100, 100, 100, 50, 200, 0, false)
	if flat.value != 0 || flat.label != "sideways" {
		t.Errorf("flat alignment = %v %q, want 0 sideways", flat.value, flat.label)
	}
}

func TestScoreSentimentMapping(t *testing.T) {
	tests := []struct {
		name  string
		snap  *models.SentimentSnapshot
		want  float64
		avail bool
	}{
		{"nil snapshot", nil, 0, false},
		{"no articles", &models.SentimentSnapshot{Articles: 0, Score: 0.5}, 0, false},
		{"full bullish", &models.SentimentSnapshot{Articles: 5, Score: 0.35}, 1, true},
		{"beyond scale clamps", &models.SentimentSnapshot{Articles: 5, Score: 0.9}, 1, true},
		{"full bearish", &models.SentimentSnapshot{Articles: 5, Score: -0.35}, -1, true},
		{"half scale", &models.SentimentSnapshot{Articles: 5, Score: 0.175}, 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := scoreSentiment(tt.snap)
			if ds.available != tt.avail {
				t.Fatalf("available = %v, want %v", ds.available, tt.avail)
			}
			if tt.avail && math.Abs(ds.value-tt.want) > 1e-9 {
				t.Errorf("value = %v, want %v", ds.value, tt.want)
			}
		})
	}
}

func TestBuildSentimentSnapshot(t *testing.T) {
	if snap := BuildSentimentSnapshot("EMPT", nil); snap != nil {
		t.Errorf("expected nil for no articles, got %+v", snap)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []models.NewsItem{
		{Title: "a", SentimentScore: 0.5, PublishedAt: now.Add(-2 * time.Hour)},
		{Title: "b", SentimentScore: -0.4, PublishedAt: now},
		{Title: "c", SentimentScore: 0.2, PublishedAt: now.Add(-24 * time.Hour)},
	}
	snap := BuildSentimentSnapshot("NEWS", items)
	if snap.Articles != 3 {
		t.Errorf("articles = %d, want 3", snap.Articles)
	}
	if math.Abs(snap.Score-0.1) > 1e-9 {
		t.Errorf("score = %v, want 0.1", snap.Score)
	}
	if snap.Bullish != 1 || snap.Bearish != 1 {
		t.Errorf("bullish/bearish = %d/%d, want 1/1", snap.Bullish, snap.Bearish)
	}
	if !snap.AsOf.Equal(now) {
		t.Errorf("as-of = %v, want the latest article time %v", snap.AsOf, now)
	}
}

func TestScoreFundamentalsUnavailableCases(t *testing.T) {
	if ds := scoreFundamentals(nil); ds.available {
		t.Error("nil snapshot must be unavailable")
	}
	if ds := scoreFundamentals(&models.Fundamentals{Symbol: "ZERO"}); ds.available {
		t.Error("all-zero snapshot must be unavailable")
	}
	if HasScoreableMetrics(&models.Fundamentals{Symbol: "ZERO"}) {
		t.Error("all-zero snapshot must not be scoreable")
	}
	if !HasScoreableMetrics(&models.Fundamentals{Symbol: "PE", PERatio: 15}) {
		t.Error("a snapshot with a P/E must be scoreable")
	}
}

func TestScoreFundamentalsDirection(t *testing.T) {
	strong := scoreFundamentals(&models.Fundamentals{
		Sector:       "Technology",
		PEGRatio:     0.5,
		EPSGrowth:    30,
		GrossMargin:  60,
		FreeCashflow: 1e9,
	})
	if !strong.available || strong.value <= 0 {
		t.Errorf("strong metrics scored %v, want positive", strong.value)
	}

	weak := scoreFundamentals(&models.Fundamentals{
		Sector:       "Technology",
		PEGRatio:     3,
		EPSGrowth:    -10,
		GrossMargin:  10,
		FreeCashflow: -1e8,
	})
	if !weak.available || weak.value >= 0 {
		t.Errorf("weak metrics scored %v, want negative", weak.value)
	}
}

func TestBenchmarkForUnknownSector(t *testing.T) {
	got := BenchmarkFor("Interpretive Dance")
	if got != defaultBenchmark {
		t.Errorf("unknown sector benchmark = %+v, want the default", got)
	}
	if BenchmarkFor("Technology") == defaultBenchmark {
		t.Error("known sector must have its own benchmark")
	}
}

func TestAnalyzeMany(t *testing.T) {
	engine := NewEngine(config.DefaultAnalysisConfig())

	fetch := func(ctx context.Context, symbol string) (Input, error) {
		switch symbol {
		case "UPCO":
			return bullishInput(symbol), nil
		case "DNCO":
			return bearishInput(symbol), nil
		default:
			return Input{}, terrors.ErrSymbolNotFound
		}
	}

	results := engine.AnalyzeMany(context.Background(), []string{"DNCO", "MISSING", "UPCO"}, fetch, 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Symbol != "UPCO" || results[1].Symbol != "DNCO" {
		t.Errorf("order = %s, %s; want strongest composite first", results[0].Symbol, results[1].Symbol)
	}
	last := results[2]
	if last.Symbol != "MISSING" || !errors.Is(last.Err, terrors.ErrSymbolNotFound) {
		t.Errorf("failed symbol must sink to the end, got %+v", last)
	}
	if last.Report != nil {
		t.Error("failed result must carry no report")
	}
}
