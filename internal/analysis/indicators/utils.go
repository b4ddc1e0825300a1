package indicators

import (
	"math"

	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

var (
	// ErrInsufficientData is returned when there's not enough data for calculation.
	ErrInsufficientData = terrors.ErrInsufficientHistory
	// ErrInvalidPeriod is returned when the period is invalid.
	ErrInvalidPeriod = terrors.ErrInvalidPeriod
)

// undefined marks the leading positions of a result series where the
// indicator's lookback window exceeds the available history. NaN, not
// zero, so a reader can distinguish "no value" from a real zero.
var undefined = math.NaN()

// nanPrefix fills the first n positions of result with NaN.
func nanPrefix(result []float64, n int) {
	if n > len(result) {
		n = len(result)
	}
	for i := 0; i < n; i++ {
		result[i] = undefined
	}
}

// Defined reports whether an indicator value at a position is defined.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// LastDefined returns the last defined value of an indicator series.
// ok is false when every position is undefined.
func LastDefined(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

// LastTwoDefined returns the last two defined values of a series in
// order. ok is false when fewer than two positions are defined.
func LastTwoDefined(values []float64) (prev, last float64, ok bool) {
	found := 0
	for i := len(values) - 1; i >= 0 && found < 2; i-- {
		if !math.IsNaN(values[i]) {
			if found == 0 {
				last = values[i]
			} else {
				prev = values[i]
			}
			found++
		}
	}
	return prev, last, found == 2
}

// max returns the maximum of two float64 values.
func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// abs returns the absolute value of a float64.
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// sum calculates the sum of a slice of float64.
func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// stdDev calculates the population standard deviation of a slice of float64.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// trueRange calculates the true range for a candle.
func trueRange(current, previous models.Candle) float64 {
	highLow := current.High - current.Low
	highClose := abs(current.High - previous.Close)
	lowClose := abs(current.Low - previous.Close)
	return max(highLow, max(highClose, lowClose))
}

// closePrices extracts close prices from candles.
func closePrices(candles []models.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

// highest returns the highest value in a slice.
func highest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	h := values[0]
	for _, v := range values[1:] {
		if v > h {
			h = v
		}
	}
	return h
}

// lowest returns the lowest value in a slice.
func lowest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	l := values[0]
	for _, v := range values[1:] {
		if v < l {
			l = v
		}
	}
	return l
}

// wilderSmooth applies Wilder's smoothing: the first output is the SMA of
// the first period values, then each value moves 1/period of the way
// toward the new observation. Leading positions are NaN.
func wilderSmooth(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	result := make([]float64, len(values))
	nanPrefix(result, period-1)

	// First value is SMA
	result[period-1] = mean(values[:period])

	// Subsequent values use Wilder smoothing
	multiplier := 1.0 / float64(period)
	for i := period; i < len(values); i++ {
		result[i] = result[i-1] + multiplier*(values[i]-result[i-1])
	}

	return result
}
