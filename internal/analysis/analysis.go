// Package analysis provides technical and fundamental analysis functionality
// including indicators, support/resistance levels, and signal scoring.
package analysis

import (
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// Indicator defines the interface for technical indicators.
type Indicator interface {
	Name() string
	Calculate(candles []models.Candle) ([]float64, error)
	Period() int
}

// MultiValueIndicator defines the interface for indicators that return multiple values.
type MultiValueIndicator interface {
	Name() string
	Calculate(candles []models.Candle) (map[string][]float64, error)
	Period() int
}

// Action is the discrete outcome of an analysis run.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// Dimension identifies one scoring dimension of the composite.
type Dimension string

const (
	DimensionTrend       Dimension = "trend"
	DimensionMomentum    Dimension = "momentum"
	DimensionVolume      Dimension = "volume"
	DimensionSentiment   Dimension = "sentiment"
	DimensionFundamental Dimension = "fundamental"
)

// SignalScore is one dimension's contribution to the composite.
// Value is in [-1, 1]; Weighted is Value multiplied by the dimension
// weight. Available is false when the dimension had no input data, in
// which case Value is 0 and the dimension reduces overall confidence.
type SignalScore struct {
	Dimension Dimension
	Value     float64
	Weight    float64
	Weighted  float64
	Available bool
	Label     string
	Detail    string
}

// Report is the terminal output of one analysis run. Created fresh each
// run, never mutated.
type Report struct {
	Symbol       string
	GeneratedAt  time.Time
	Action       Action
	Composite    float64 // [-1, 1]
	Confidence   float64 // [0, 1]
	Completeness float64 // fraction of dimension weight that had data
	Scores       []SignalScore
	Rationale    []string // ordered by absolute weighted contribution
	Strengths    []string
	Warnings     []string
	Levels       []Level // support/resistance, closest to price first
	Snapshot     IndicatorSnapshot
}

// IndicatorSnapshot carries the latest indicator readings used by the
// scorers, for rendering alongside the recommendation.
type IndicatorSnapshot struct {
	Close        float64
	RSI          float64
	MACD         float64
	MACDSignal   float64
	MACDHist     float64
	SMAFast      float64
	SMASlow      float64
	FastWindow   int
	SlowWindow   int
	BollUpper    float64
	BollMiddle   float64
	BollLower    float64
	VolumeRatio  float64
}

// Level represents a support or resistance level.
type Level struct {
	Price      float64
	Type       LevelType
	TouchCount int
	Source     string
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)
