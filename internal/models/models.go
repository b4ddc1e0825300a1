// Package models provides domain models for the trading terminal.
package models

import (
	"fmt"
	"time"
)

// Resolution represents the bar interval of a price series.
type Resolution string

const (
	Resolution1Min  Resolution = "1m"
	Resolution5Min  Resolution = "5m"
	Resolution15Min Resolution = "15m"
	Resolution30Min Resolution = "30m"
	Resolution60Min Resolution = "60m"
	ResolutionDaily Resolution = "1d"
)

// Valid reports whether r is a supported resolution.
func (r Resolution) Valid() bool {
	switch r {
	case Resolution1Min, Resolution5Min, Resolution15Min,
		Resolution30Min, Resolution60Min, ResolutionDaily:
		return true
	}
	return false
}

// MarketStatus represents the current market session state.
type MarketStatus string

const (
	MarketOpen       MarketStatus = "OPEN"
	MarketPreOpen    MarketStatus = "PRE_OPEN"
	MarketAfterHours MarketStatus = "AFTER_HOURS"
	MarketClosed     MarketStatus = "CLOSED"
)

// Candle represents OHLCV data for one bar.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// PriceSeries is an ordered OHLCV history for one symbol at one resolution.
// Timestamps are strictly increasing with no duplicates; calendar gaps
// (non-trading days) are allowed.
type PriceSeries struct {
	Symbol     string
	Resolution Resolution
	Candles    []Candle
}

// Len returns the number of candles in the series.
func (s *PriceSeries) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle. ok is false for an empty series.
func (s *PriceSeries) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Closes returns the close prices in series order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Validate checks the series ordering invariant.
func (s *PriceSeries) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("price series has no symbol")
	}
	for i := 1; i < len(s.Candles); i++ {
		prev, cur := s.Candles[i-1].Timestamp, s.Candles[i].Timestamp
		if !cur.After(prev) {
			return fmt.Errorf("price series %s: timestamps not strictly increasing at index %d (%s then %s)",
				s.Symbol, i, prev.Format(time.RFC3339), cur.Format(time.RFC3339))
		}
	}
	return nil
}

// Quote represents a point-in-time market quote.
type Quote struct {
	Symbol        string
	Price         float64
	Open          float64
	High          float64
	Low           float64
	PrevClose     float64
	Change        float64
	ChangePercent float64
	Volume        int64
	Timestamp     time.Time
}

// Fundamentals is a point-in-time snapshot of a company's fundamental
// fields. It is replaced wholesale on refresh; zero values mean the
// upstream did not report the field.
type Fundamentals struct {
	Symbol           string
	Name             string
	Sector           string
	MarketCap        float64
	PERatio          float64
	ForwardPE        float64
	PEGRatio         float64
	PriceToBook      float64
	EPS              float64
	EPSGrowth        float64 // year over year, percent
	RevenueGrowth    float64 // year over year, percent
	DividendYield    float64 // percent
	ROE              float64 // percent
	ProfitMargin     float64 // percent
	GrossMargin      float64 // percent
	DebtToEquity     float64 // ratio, 1.0 = equal debt and equity
	FreeCashflow     float64
	TargetMeanPrice  float64
	AnalystCount     int
	ShortPercent     float64 // percent of float
	InstitutionalPct float64 // percent held by institutions
	AsOf             time.Time
}

// NewsItem is one article from the news and sentiment feed.
type NewsItem struct {
	Title          string
	Source         string
	URL            string
	PublishedAt    time.Time
	SentimentScore float64 // upstream scale, roughly [-1, 1]
	Relevance      float64 // [0, 1], relevance to the requested symbol
}

// SentimentSnapshot aggregates a news feed into a single sentiment reading.
// Score follows the upstream convention where +-0.35 marks the
// bullish/bearish boundary.
type SentimentSnapshot struct {
	Symbol   string
	Score    float64
	Articles int
	Bullish  int
	Bearish  int
	AsOf     time.Time
}

// SymbolMatch is one result from a symbol search.
type SymbolMatch struct {
	Symbol   string
	Name     string
	Type     string
	Region   string
	Currency string
	Score    float64
}

// Position is one portfolio holding. Adding shares to an existing
// position merges via weighted average cost and keeps the original
// purchase date.
type Position struct {
	Symbol       string
	Shares       float64
	AvgCost      float64
	PurchaseDate time.Time
	Notes        string
}

// CostBasis returns the total amount paid for the position.
func (p *Position) CostBasis() float64 {
	return p.Shares * p.AvgCost
}

// AnalysisRecord is one journaled recommendation.
type AnalysisRecord struct {
	ID         int64
	Symbol     string
	Action     string
	Composite  float64
	Confidence float64
	Rationale  []string
	CreatedAt  time.Time
}
