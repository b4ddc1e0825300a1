package indicators

import (
	"math"
	"sort"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// SupportResistance identifies horizontal support and resistance levels
// by clustering pivot highs and lows.
type SupportResistance struct {
	pivotStrength int     // bars required on each side to confirm a pivot
	tolerance     float64 // relative distance for merging nearby pivots
	minTouches    int     // pivots required before a level is reported
}

// NewSupportResistance creates a new support/resistance detector.
func NewSupportResistance(pivotStrength int, tolerance float64, minTouches int) *SupportResistance {
	return &SupportResistance{
		pivotStrength: pivotStrength,
		tolerance:     tolerance,
		minTouches:    minTouches,
	}
}

func (s *SupportResistance) Name() string {
	return "SupportResistance"
}

// Period returns the minimum number of candles needed to confirm a single pivot.
func (s *SupportResistance) Period() int {
	return s.pivotStrength*2 + 1
}

type pivot struct {
	index int
	price float64
}

// Calculate detects pivot highs and lows, merges those within tolerance
// into levels, and returns levels with at least minTouches pivots,
// ordered by distance from the last close with the nearest first.
func (s *SupportResistance) Calculate(candles []models.Candle) ([]analysis.Level, error) {
	if s.pivotStrength < 1 || s.minTouches < 1 || s.tolerance <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.Period() {
		return nil, ErrInsufficientData
	}

	highs, lows := s.findPivots(candles)

	var levels []analysis.Level
	for _, c := range s.cluster(highs) {
		if c.touches >= s.minTouches {
			levels = append(levels, analysis.Level{
				Price:      c.price,
				Type:       analysis.LevelResistance,
				TouchCount: c.touches,
				Source:     "pivot",
			})
		}
	}
	for _, c := range s.cluster(lows) {
		if c.touches >= s.minTouches {
			levels = append(levels, analysis.Level{
				Price:      c.price,
				Type:       analysis.LevelSupport,
				TouchCount: c.touches,
				Source:     "pivot",
			})
		}
	}

	current := candles[len(candles)-1].Close
	sort.SliceStable(levels, func(i, j int) bool {
		return math.Abs(levels[i].Price-current) < math.Abs(levels[j].Price-current)
	})

	return levels, nil
}

// findPivots scans for bars whose high (low) strictly exceeds the highs
// (lows) of pivotStrength bars on each side.
func (s *SupportResistance) findPivots(candles []models.Candle) (highs, lows []pivot) {
	n := len(candles)
	for i := s.pivotStrength; i < n-s.pivotStrength; i++ {
		isHigh, isLow := true, true
		for j := 1; j <= s.pivotStrength; j++ {
			if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
				isHigh = false
			}
			if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, pivot{index: i, price: candles[i].High})
		}
		if isLow {
			lows = append(lows, pivot{index: i, price: candles[i].Low})
		}
	}
	return highs, lows
}

type levelCluster struct {
	price   float64
	touches int
}

// cluster merges price-sorted pivots whose prices fall within tolerance
// of the running cluster average.
func (s *SupportResistance) cluster(pivots []pivot) []levelCluster {
	if len(pivots) == 0 {
		return nil
	}

	sorted := make([]pivot, len(pivots))
	copy(sorted, pivots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].price < sorted[j].price })

	var clusters []levelCluster
	cur := levelCluster{price: sorted[0].price, touches: 1}
	for _, p := range sorted[1:] {
		if math.Abs(p.price-cur.price)/cur.price <= s.tolerance {
			cur.touches++
			cur.price += (p.price - cur.price) / float64(cur.touches)
		} else {
			clusters = append(clusters, cur)
			cur = levelCluster{price: p.price, touches: 1}
		}
	}
	return append(clusters, cur)
}
