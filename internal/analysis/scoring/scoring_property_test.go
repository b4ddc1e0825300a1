package scoring

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// priceSeriesGen generates a valid daily series of 30 to 120 bars with
// positive prices and strictly increasing timestamps.
func priceSeriesGen() gopter.Gen {
	return gen.SliceOfN(120, gen.Float64Range(10, 500)).Map(func(closes []float64) *models.PriceSeries {
		if len(closes) == 0 {
			closes = []float64{100}
		}
		n := 30 + int(closes[0])%91
		base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
		candles := make([]models.Candle, n)
		for i := 0; i < n; i++ {
			c := closes[i%len(closes)]
			candles[i] = models.Candle{
				Timestamp: base.AddDate(0, 0, i),
				Open:      c,
				High:      c,
				Low:       c,
				Close:     c,
				Volume:    int64(1000 + 37*i),
			}
		}
		return &models.PriceSeries{Symbol: "PROP", Resolution: models.ResolutionDaily, Candles: candles}
	})
}

// sentimentGen sometimes yields nil to cover the unavailable path.
func sentimentGen() gopter.Gen {
	return gen.Float64Range(-1, 1).Map(func(score float64) *models.SentimentSnapshot {
		if score > 0.9 {
			return nil
		}
		return &models.SentimentSnapshot{Symbol: "PROP", Score: score, Articles: 5}
	})
}

func TestReportInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	engine := NewEngine(config.DefaultAnalysisConfig())

	properties.Property("every report satisfies the output bounds", prop.ForAll(
		func(series *models.PriceSeries, sentiment *models.SentimentSnapshot) bool {
			report, err := engine.Analyze(context.Background(), Input{
				Series:    series,
				Sentiment: sentiment,
			})
			if err != nil {
				return false
			}

			if report.Composite < -1 || report.Composite > 1 {
				return false
			}
			if report.Confidence < 0 || report.Confidence > 1 {
				return false
			}
			if report.Completeness < 0 || report.Completeness > 1 {
				return false
			}
			switch report.Action {
			case analysis.ActionBuy, analysis.ActionHold, analysis.ActionSell:
			default:
				return false
			}

			// Composite must be the clamped sum of the weighted scores.
			var sum float64
			for _, s := range report.Scores {
				if s.Available {
					if s.Value < -1 || s.Value > 1 {
						return false
					}
					if math.Abs(s.Weighted-s.Value*s.Weight) > 1e-9 {
						return false
					}
					sum += s.Weighted
				} else if s.Weighted != 0 {
					return false
				}
			}
			if sum > 1 {
				sum = 1
			}
			if sum < -1 {
				sum = -1
			}
			return math.Abs(report.Composite-sum) < 1e-9
		},
		priceSeriesGen(),
		sentimentGen(),
	))

	properties.Property("action always agrees with the thresholds", prop.ForAll(
		func(series *models.PriceSeries) bool {
			cfg := config.DefaultAnalysisConfig()
			report, err := engine.Analyze(context.Background(), Input{Series: series})
			if err != nil {
				return false
			}
			switch {
			case report.Composite >= cfg.BuyThreshold:
				return report.Action == analysis.ActionBuy
			case report.Composite <= cfg.SellThreshold:
				return report.Action == analysis.ActionSell
			default:
				return report.Action == analysis.ActionHold
			}
		},
		priceSeriesGen(),
	))

	properties.Property("analysis is deterministic for the same input", prop.ForAll(
		func(series *models.PriceSeries) bool {
			first, err1 := engine.Analyze(context.Background(), Input{Series: series})
			second, err2 := engine.Analyze(context.Background(), Input{Series: series})
			if err1 != nil || err2 != nil {
				return false
			}
			return first.Action == second.Action &&
				first.Composite == second.Composite &&
				first.Confidence == second.Confidence
		},
		priceSeriesGen(),
	))

	properties.TestingRun(t)
}

func TestSentimentScoreMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a higher mean article score never scores lower", prop.ForAll(
		func(a, b float64) bool {
			lo, hi := math.Min(a, b), math.Max(a, b)
			dsLo := scoreSentiment(&models.SentimentSnapshot{Articles: 5, Score: lo})
			dsHi := scoreSentiment(&models.SentimentSnapshot{Articles: 5, Score: hi})
			return dsLo.value <= dsHi.value+1e-12
		},
		gen.Float64Range(-1, 1),
		gen.Float64Range(-1, 1),
	))

	properties.TestingRun(t)
}
