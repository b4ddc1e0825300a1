// Package scoring implements the smart analysis engine: per-dimension
// signal scorers, sector benchmark tables, and the composite reducer
// that turns an indicator set into a BUY/HOLD/SELL recommendation.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis/indicators"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// Fallback trend windows used when the series is shorter than the
// configured pair and strict trend scoring is off.
const (
	fallbackTrendFast = 20
	fallbackTrendSlow = 50
)

// Input carries everything one analysis run may consume. Fundamentals
// and Sentiment are optional; when absent their dimensions contribute
// zero and reduce confidence. RequireFundamentals turns an unusable
// fundamentals snapshot into a hard error instead.
type Input struct {
	Series              *models.PriceSeries
	Fundamentals        *models.Fundamentals
	Sentiment           *models.SentimentSnapshot
	RequireFundamentals bool
}

// Engine produces recommendations from price history, fundamentals and
// news sentiment. It holds no mutable state between runs and is safe
// for concurrent use; every run returns a fresh Report.
type Engine struct {
	cfg config.AnalysisConfig
	lib *indicators.Library

	rsiName    string
	macdName   string
	bollName   string
	volName    string
	fastName   string
	slowName   string
	fbFastName string
	fbSlowName string

	levels *indicators.SupportResistance
}

// NewEngine creates an analysis engine with the given configuration.
func NewEngine(cfg config.AnalysisConfig) *Engine {
	ind := cfg.Indicators
	lib := indicators.NewLibrary(4)

	rsi := indicators.NewRSI(ind.RSIPeriod)
	macd := indicators.NewMACD(ind.MACDFast, ind.MACDSlow, ind.MACDSignal)
	boll := indicators.NewBollingerBands(ind.BollingerWindow, ind.BollingerK)
	vol := indicators.NewRelativeVolume(ind.VolumeWindow)
	fast := indicators.NewSMA(ind.TrendFast)
	slow := indicators.NewSMA(ind.TrendSlow)
	fbFast := indicators.NewSMA(fallbackTrendFast)
	fbSlow := indicators.NewSMA(fallbackTrendSlow)

	lib.Register(rsi)
	lib.Register(vol)
	lib.Register(fast)
	lib.Register(slow)
	lib.Register(fbFast)
	lib.Register(fbSlow)
	lib.RegisterMulti(macd)
	lib.RegisterMulti(boll)

	return &Engine{
		cfg:        cfg,
		lib:        lib,
		rsiName:    rsi.Name(),
		macdName:   macd.Name(),
		bollName:   boll.Name(),
		volName:    vol.Name(),
		fastName:   fast.Name(),
		slowName:   slow.Name(),
		fbFastName: fbFast.Name(),
		fbSlowName: fbSlow.Name(),
		levels: indicators.NewSupportResistance(
			ind.LevelStrength, ind.LevelTolerance, ind.LevelMinTouches),
	}
}

// MinHistory returns the fewest candles Analyze accepts: the longest
// lookback among the mandatory indicators (26 with shipped defaults,
// from the MACD slow period).
func (e *Engine) MinHistory() int {
	ind := e.cfg.Indicators
	minBars := ind.MACDSlow
	if v := ind.RSIPeriod + 1; v > minBars {
		minBars = v
	}
	if v := ind.BollingerWindow; v > minBars {
		minBars = v
	}
	if v := ind.VolumeWindow + 1; v > minBars {
		minBars = v
	}
	return minBars
}

// dimScore is one dimension's outcome before weights are attached.
type dimScore struct {
	value     float64
	label     string
	detail    string
	available bool
}

// trendReading records which moving average pair the trend scorer
// settled on, for the report snapshot. Zero windows mean the MACD-only
// fallback was used.
type trendReading struct {
	fastWin, slowWin int
	fast, slow       float64
}

// Analyze runs the full pipeline over one input and returns a fresh
// report. Series shorter than MinHistory fail with
// ErrInsufficientHistory; so do series shorter than the configured
// trend windows when strict trend scoring is on. An unusable
// fundamentals snapshot fails with ErrInvalidFundamentals only when
// the input requires fundamentals.
func (e *Engine) Analyze(ctx context.Context, in Input) (*analysis.Report, error) {
	series := in.Series
	if series == nil || series.Len() == 0 {
		return nil, terrors.NewAnalysisError("", "series", "no price history", terrors.ErrInsufficientHistory)
	}
	if err := series.Validate(); err != nil {
		return nil, terrors.NewAnalysisError(series.Symbol, "series", "invalid series", err)
	}

	n := series.Len()
	if minBars := e.MinHistory(); n < minBars {
		return nil, terrors.NewAnalysisError(series.Symbol, "series",
			fmt.Sprintf("%d candles, need %d", n, minBars), terrors.ErrInsufficientHistory)
	}
	if e.cfg.StrictTrend && n < e.cfg.Indicators.TrendSlow {
		return nil, terrors.NewAnalysisError(series.Symbol, "trend",
			fmt.Sprintf("%d candles, strict trend needs %d", n, e.cfg.Indicators.TrendSlow),
			terrors.ErrInsufficientHistory)
	}
	if in.RequireFundamentals && !HasScoreableMetrics(in.Fundamentals) {
		return nil, terrors.NewAnalysisError(series.Symbol, "fundamental",
			"fundamental scoring requested without usable metrics", terrors.ErrInvalidFundamentals)
	}

	set, err := e.lib.CalculateAll(ctx, series.Candles)
	if err != nil {
		return nil, err
	}

	trend, reading := e.scoreTrend(series.Candles, set)
	momentum := e.scoreMomentum(set)
	volume := e.scoreVolume(series.Candles, set)
	sentiment := scoreSentiment(in.Sentiment)
	fundamental := scoreFundamentals(in.Fundamentals)

	w := e.cfg.Weights
	dims := []struct {
		dim    analysis.Dimension
		weight float64
		score  dimScore
	}{
		{analysis.DimensionTrend, w.Trend, trend},
		{analysis.DimensionMomentum, w.Momentum, momentum},
		{analysis.DimensionVolume, w.Volume, volume},
		{analysis.DimensionSentiment, w.Sentiment, sentiment},
		{analysis.DimensionFundamental, w.Fundamental, fundamental},
	}

	var composite, availableWeight float64
	scores := make([]analysis.SignalScore, 0, len(dims))
	for _, d := range dims {
		s := analysis.SignalScore{
			Dimension: d.dim,
			Weight:    d.weight,
			Available: d.score.available,
			Label:     d.score.label,
			Detail:    d.score.detail,
		}
		if d.score.available {
			s.Value = d.score.value
			s.Weighted = d.score.value * d.weight
			composite += s.Weighted
			availableWeight += d.weight
		}
		scores = append(scores, s)
	}
	composite = clamp(composite, -1, 1)

	var completeness float64
	if total := w.Total(); total > 0 {
		completeness = availableWeight / total
	}

	action := analysis.ActionHold
	switch {
	case composite >= e.cfg.BuyThreshold:
		action = analysis.ActionBuy
	case composite <= e.cfg.SellThreshold:
		action = analysis.ActionSell
	}
	confidence := math.Min(1, math.Abs(composite)*completeness)

	levels, lerr := e.levels.Calculate(series.Candles)
	if lerr != nil {
		levels = nil
	}

	strengths, warnings := e.notes(scores, in.Fundamentals, set, series.Candles)

	return &analysis.Report{
		Symbol:       series.Symbol,
		GeneratedAt:  time.Now().UTC(),
		Action:       action,
		Composite:    composite,
		Confidence:   confidence,
		Completeness: completeness,
		Scores:       scores,
		Rationale:    buildRationale(scores),
		Strengths:    strengths,
		Warnings:     warnings,
		Levels:       levels,
		Snapshot:     e.snapshot(series.Candles, set, reading),
	}, nil
}

// scoreTrend walks the moving average ladder: the configured pair
// first, then the short fallback pair, then MACD alone. Strict mode
// never reaches the fallbacks; Analyze rejects short series up front.
func (e *Engine) scoreTrend(candles []models.Candle, set *indicators.Result) (dimScore, trendReading) {
	price := candles[len(candles)-1].Close
	hist, histOK := indicators.LastDefined(set.MultiSeries(e.macdName, "histogram"))

	pairs := []struct {
		fastName, slowName string
		fastWin, slowWin   int
	}{
		{e.fastName, e.slowName, e.cfg.Indicators.TrendFast, e.cfg.Indicators.TrendSlow},
		{e.fbFastName, e.fbSlowName, fallbackTrendFast, fallbackTrendSlow},
	}
	for _, p := range pairs {
		fast, ok1 := indicators.LastDefined(set.Series(p.fastName))
		slow, ok2 := indicators.LastDefined(set.Series(p.slowName))
		if !ok1 || !ok2 {
			continue
		}
		ds := trendFromSMAs(price, fast, slow, p.fastWin, p.slowWin, hist, histOK)
		return ds, trendReading{fastWin: p.fastWin, slowWin: p.slowWin, fast: fast, slow: slow}
	}

	var v float64
	label := "trend unclear"
	if histOK && hist > 0 {
		v, label = 0.5, "rising MACD trend"
	} else if histOK && hist < 0 {
		v, label = -0.5, "falling MACD trend"
	}
	ds := dimScore{
		value:     v,
		label:     label,
		detail:    "history too short for moving average trend, MACD only",
		available: true,
	}
	return ds, trendReading{}
}

func trendFromSMAs(price, fast, slow float64, fastWin, slowWin int, hist float64, histOK bool) dimScore {
	var v float64
	switch {
	case fast > slow:
		v = 0.6
	case fast < slow:
		v = -0.6
	}
	if price > fast {
		v += 0.2
	} else if price < fast {
		v -= 0.2
	}
	if price > slow {
		v += 0.2
	} else if price < slow {
		v -= 0.2
	}
	if histOK {
		if hist > 0 {
			v += 0.2
		} else if hist < 0 {
			v -= 0.2
		}
	}
	v = clamp(v, -1, 1)

	var label string
	switch {
	case fast > slow && price > fast:
		label = "golden cross"
	case fast < slow && price < fast:
		label = "death cross"
	case v > 0:
		label = "uptrend"
	case v < 0:
		label = "downtrend"
	default:
		label = "sideways"
	}
	return dimScore{
		value:     v,
		label:     label,
		detail:    fmt.Sprintf("SMA%d %.2f vs SMA%d %.2f, price %.2f", fastWin, fast, slowWin, slow, price),
		available: true,
	}
}

// scoreMomentum blends the RSI position around 50 with the MACD
// histogram's sign and slope, each at half weight.
func (e *Engine) scoreMomentum(set *indicators.Result) dimScore {
	rsiVal, rsiOK := indicators.LastDefined(set.Series(e.rsiName))
	prevHist, lastHist, histOK := indicators.LastTwoDefined(set.MultiSeries(e.macdName, "histogram"))

	var rsiScore float64
	switch {
	case !rsiOK:
	case rsiVal <= 30:
		rsiScore = 0.5 + (30-rsiVal)/30*0.5
	case rsiVal >= 70:
		rsiScore = -0.5 - (rsiVal-70)/30*0.5
	default:
		rsiScore = (50 - rsiVal) / 20 * 0.5
	}

	var histScore float64
	if histOK {
		if lastHist > 0 {
			histScore += 0.5
		} else if lastHist < 0 {
			histScore -= 0.5
		}
		if lastHist > prevHist {
			histScore += 0.5
		} else if lastHist < prevHist {
			histScore -= 0.5
		}
	}

	v := clamp(0.5*rsiScore+0.5*histScore, -1, 1)

	var label string
	switch {
	case rsiOK && rsiVal >= 70:
		label = "overbought"
	case rsiOK && rsiVal <= 30:
		label = "oversold"
	case v > 0.2:
		label = "positive momentum"
	case v < -0.2:
		label = "negative momentum"
	default:
		label = "neutral momentum"
	}

	detail := fmt.Sprintf("RSI %.1f", rsiVal)
	if histOK {
		detail = fmt.Sprintf("RSI %.1f, MACD histogram %+.3f", rsiVal, lastHist)
	}
	return dimScore{value: v, label: label, detail: detail, available: true}
}

// scoreVolume compares the last bar's volume with its rolling average.
// Above-average volume amplifies the day's direction; thin volume pulls
// the score toward zero.
func (e *Engine) scoreVolume(candles []models.Candle, set *indicators.Result) dimScore {
	ratio, ok := indicators.LastDefined(set.Series(e.volName))
	n := len(candles)
	if !ok || n < 2 {
		return dimScore{label: "volume unavailable", detail: "no volume history", available: true}
	}

	var dir float64
	if candles[n-1].Close > candles[n-2].Close {
		dir = 1
	} else if candles[n-1].Close < candles[n-2].Close {
		dir = -1
	}

	var v float64
	if ratio > 1 {
		v = dir * math.Min(1, 0.3+(ratio-1)*0.6)
	} else {
		v = dir * 0.3 * ratio
	}

	var label string
	switch {
	case ratio >= 1.5 && dir > 0:
		label = "heavy buying volume"
	case ratio >= 1.5 && dir < 0:
		label = "heavy selling volume"
	case ratio > 1:
		label = "above average volume"
	default:
		label = "light volume"
	}
	return dimScore{
		value:     v,
		label:     label,
		detail:    fmt.Sprintf("volume %.2fx its %d-day average", ratio, e.cfg.Indicators.VolumeWindow),
		available: true,
	}
}

// buildRationale renders one sentence per dimension, available ones
// first ordered by absolute weighted contribution, then the missing
// ones that reduced confidence.
func buildRationale(scores []analysis.SignalScore) []string {
	ordered := make([]analysis.SignalScore, len(scores))
	copy(ordered, scores)
	sort.SliceStable(ordered, func(i, j int) bool {
		return math.Abs(ordered[i].Weighted) > math.Abs(ordered[j].Weighted)
	})

	lines := make([]string, 0, len(ordered))
	for _, s := range ordered {
		if s.Available {
			lines = append(lines, fmt.Sprintf("%s: %s; %s (weighted %+.2f)", s.Dimension, s.Label, s.Detail, s.Weighted))
		}
	}
	for _, s := range ordered {
		if !s.Available {
			lines = append(lines, fmt.Sprintf("%s: no data, excluded from composite and confidence reduced", s.Dimension))
		}
	}
	return lines
}

// notes derives short strength and warning lists from the same readings
// the scorers used. Rendering only; they never alter the action.
func (e *Engine) notes(scores []analysis.SignalScore, f *models.Fundamentals, set *indicators.Result, candles []models.Candle) (strengths, warnings []string) {
	for _, s := range scores {
		if s.Dimension == analysis.DimensionTrend && s.Available {
			if s.Label == "golden cross" {
				strengths = append(strengths, "golden cross with price above both moving averages")
			}
			if s.Label == "death cross" {
				warnings = append(warnings, "death cross with price below both moving averages")
			}
		}
		if s.Dimension == analysis.DimensionVolume && s.Label == "heavy selling volume" {
			warnings = append(warnings, "heavy volume behind the latest decline")
		}
	}

	if rsiVal, ok := indicators.LastDefined(set.Series(e.rsiName)); ok {
		if rsiVal >= 70 {
			warnings = append(warnings, fmt.Sprintf("RSI %.0f overbought", rsiVal))
		} else if rsiVal <= 30 {
			strengths = append(strengths, fmt.Sprintf("RSI %.0f oversold, bounce setup", rsiVal))
		}
	}

	price := candles[len(candles)-1].Close
	if upper, ok := indicators.LastDefined(set.MultiSeries(e.bollName, "upper")); ok && price > upper {
		warnings = append(warnings, "price stretched above the upper Bollinger band")
	}
	if lower, ok := indicators.LastDefined(set.MultiSeries(e.bollName, "lower")); ok && price < lower {
		strengths = append(strengths, "price below the lower Bollinger band")
	}

	fs, fw := fundamentalNotes(f)
	strengths = append(strengths, fs...)
	warnings = append(warnings, fw...)

	if len(strengths) > 3 {
		strengths = strengths[:3]
	}
	if len(warnings) > 4 {
		warnings = warnings[:4]
	}
	return strengths, warnings
}

func (e *Engine) snapshot(candles []models.Candle, set *indicators.Result, tr trendReading) analysis.IndicatorSnapshot {
	rsiVal, _ := indicators.LastDefined(set.Series(e.rsiName))
	macdVal, _ := indicators.LastDefined(set.MultiSeries(e.macdName, "macd"))
	macdSig, _ := indicators.LastDefined(set.MultiSeries(e.macdName, "signal"))
	macdHist, _ := indicators.LastDefined(set.MultiSeries(e.macdName, "histogram"))
	bollU, _ := indicators.LastDefined(set.MultiSeries(e.bollName, "upper"))
	bollM, _ := indicators.LastDefined(set.MultiSeries(e.bollName, "middle"))
	bollL, _ := indicators.LastDefined(set.MultiSeries(e.bollName, "lower"))
	volRatio, _ := indicators.LastDefined(set.Series(e.volName))

	return analysis.IndicatorSnapshot{
		Close:       candles[len(candles)-1].Close,
		RSI:         rsiVal,
		MACD:        macdVal,
		MACDSignal:  macdSig,
		MACDHist:    macdHist,
		SMAFast:     tr.fast,
		SMASlow:     tr.slow,
		FastWindow:  tr.fastWin,
		SlowWindow:  tr.slowWin,
		BollUpper:   bollU,
		BollMiddle:  bollM,
		BollLower:   bollL,
		VolumeRatio: volRatio,
	}
}

// clamp restricts a value to the given range.
func clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
