package indicators

import (
	"fmt"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// VolumeSMA calculates the simple moving average of volume.
type VolumeSMA struct {
	period int
}

// NewVolumeSMA creates a new volume SMA indicator.
func NewVolumeSMA(period int) *VolumeSMA {
	return &VolumeSMA{period: period}
}

func (v *VolumeSMA) Name() string {
	return fmt.Sprintf("VolumeSMA_%d", v.period)
}

func (v *VolumeSMA) Period() int {
	return v.period
}

func (v *VolumeSMA) Calculate(candles []models.Candle) ([]float64, error) {
	if v.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < v.period {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	result := make([]float64, n)
	nanPrefix(result, v.period-1)

	var window float64
	for i := 0; i < n; i++ {
		window += float64(candles[i].Volume)
		if i >= v.period {
			window -= float64(candles[i-v.period].Volume)
		}
		if i >= v.period-1 {
			result[i] = window / float64(v.period)
		}
	}

	return result, nil
}

// RelativeVolume calculates volume as a ratio of its trailing average.
// A reading of 1.5 means the bar traded 50% above its recent average.
type RelativeVolume struct {
	period int
}

// NewRelativeVolume creates a new relative volume indicator.
func NewRelativeVolume(period int) *RelativeVolume {
	return &RelativeVolume{period: period}
}

func (r *RelativeVolume) Name() string {
	return fmt.Sprintf("RelativeVolume_%d", r.period)
}

func (r *RelativeVolume) Period() int {
	return r.period
}

func (r *RelativeVolume) Calculate(candles []models.Candle) ([]float64, error) {
	avg, err := NewVolumeSMA(r.period).Calculate(candles)
	if err != nil {
		return nil, err
	}

	result := make([]float64, len(candles))
	nanPrefix(result, r.period-1)
	for i := r.period - 1; i < len(candles); i++ {
		if avg[i] > 0 {
			result[i] = float64(candles[i].Volume) / avg[i]
		} else {
			result[i] = 1
		}
	}

	return result, nil
}

// OBV calculates On-Balance Volume.
type OBV struct{}

// NewOBV creates a new OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

func (o *OBV) Name() string {
	return "OBV"
}

func (o *OBV) Period() int {
	return 1
}

func (o *OBV) Calculate(candles []models.Candle) ([]float64, error) {
	if len(candles) == 0 {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	result := make([]float64, n)
	result[0] = float64(candles[0].Volume)

	for i := 1; i < n; i++ {
		if candles[i].Close > candles[i-1].Close {
			result[i] = result[i-1] + float64(candles[i].Volume)
		} else if candles[i].Close < candles[i-1].Close {
			result[i] = result[i-1] - float64(candles[i].Volume)
		} else {
			result[i] = result[i-1]
		}
	}

	return result, nil
}

// VWAP calculates Volume Weighted Average Price.
type VWAP struct{}

// NewVWAP creates a new VWAP indicator.
func NewVWAP() *VWAP {
	return &VWAP{}
}

func (v *VWAP) Name() string {
	return "VWAP"
}

func (v *VWAP) Period() int {
	return 1
}

func (v *VWAP) Calculate(candles []models.Candle) ([]float64, error) {
	if len(candles) == 0 {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	result := make([]float64, n)

	var cumulativeTPV float64 // Cumulative Typical Price * Volume
	var cumulativeVol float64 // Cumulative Volume

	for i := 0; i < n; i++ {
		tp := (candles[i].High + candles[i].Low + candles[i].Close) / 3
		cumulativeTPV += tp * float64(candles[i].Volume)
		cumulativeVol += float64(candles[i].Volume)

		if cumulativeVol != 0 {
			result[i] = cumulativeTPV / cumulativeVol
		}
	}

	return result, nil
}

// MFI calculates the Money Flow Index.
type MFI struct {
	period int
}

// NewMFI creates a new MFI indicator.
func NewMFI(period int) *MFI {
	return &MFI{period: period}
}

func (m *MFI) Name() string {
	return fmt.Sprintf("MFI_%d", m.period)
}

func (m *MFI) Period() int {
	return m.period + 1
}

func (m *MFI) Calculate(candles []models.Candle) ([]float64, error) {
	if m.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < m.period+1 {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	result := make([]float64, n)
	nanPrefix(result, m.period)

	// Raw money flow per bar
	rawMF := make([]float64, n)
	tp := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (candles[i].High + candles[i].Low + candles[i].Close) / 3
		rawMF[i] = tp[i] * float64(candles[i].Volume)
	}

	for i := m.period; i < n; i++ {
		var positiveMF, negativeMF float64
		for j := i - m.period + 1; j <= i; j++ {
			if tp[j] > tp[j-1] {
				positiveMF += rawMF[j]
			} else if tp[j] < tp[j-1] {
				negativeMF += rawMF[j]
			}
		}

		if negativeMF == 0 {
			result[i] = 100
		} else {
			mfRatio := positiveMF / negativeMF
			result[i] = 100 - (100 / (1 + mfRatio))
		}
	}

	return result, nil
}
