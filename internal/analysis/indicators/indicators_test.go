package indicators

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// candlesFromCloses builds a daily series where every bar opens and
// closes at the given price with a constant volume.
func candlesFromCloses(closes []float64) []models.Candle {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMAKnownValues(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3, 4, 5})
	values, err := NewSMA(3).Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(values) != 5 {
		t.Fatalf("expected 5 values, got %d", len(values))
	}
	if Defined(values[0]) || Defined(values[1]) {
		t.Errorf("expected NaN prefix, got %v %v", values[0], values[1])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(values[i+2], w) {
			t.Errorf("values[%d] = %v, want %v", i+2, values[i+2], w)
		}
	}
}

func TestSMAInsufficientData(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2})
	_, err := NewSMA(3).Calculate(candles)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSMAInvalidPeriod(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3})
	_, err := NewSMA(0).Calculate(candles)
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestEMAKnownValues(t *testing.T) {
	// Period 3: multiplier 0.5, seeded with the SMA of the first 3.
	values := CalculateEMA([]float64{1, 2, 3, 4, 5}, 3)
	if values == nil {
		t.Fatal("expected values")
	}
	if Defined(values[0]) || Defined(values[1]) {
		t.Errorf("expected NaN prefix, got %v %v", values[0], values[1])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(values[i+2], w) {
			t.Errorf("values[%d] = %v, want %v", i+2, values[i+2], w)
		}
	}
}

func TestRSIAllGainsReadsHundred(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	values, err := NewRSI(14).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	last, ok := LastDefined(values)
	if !ok {
		t.Fatal("expected a defined RSI value")
	}
	if last != 100 {
		t.Errorf("RSI on a loss-free series = %v, want exactly 100", last)
	}
}

func TestRSIAllLossesReadsZero(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	values, err := NewRSI(14).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	last, ok := LastDefined(values)
	if !ok {
		t.Fatal("expected a defined RSI value")
	}
	if !almostEqual(last, 0) {
		t.Errorf("RSI on a gain-free series = %v, want 0", last)
	}
}

func TestMACDHistogramIsLineMinusSignal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5)
	}
	values, err := NewMACD(12, 26, 9).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	macd, signal, hist := values["macd"], values["signal"], values["histogram"]
	if len(macd) != 60 || len(signal) != 60 || len(hist) != 60 {
		t.Fatalf("series lengths %d/%d/%d, want 60", len(macd), len(signal), len(hist))
	}
	defined := 0
	for i := range hist {
		if !Defined(hist[i]) {
			continue
		}
		defined++
		if !Defined(macd[i]) || !Defined(signal[i]) {
			t.Fatalf("histogram defined at %d but inputs are not", i)
		}
		if !almostEqual(hist[i], macd[i]-signal[i]) {
			t.Errorf("histogram[%d] = %v, want %v", i, hist[i], macd[i]-signal[i])
		}
	}
	if defined == 0 {
		t.Error("expected at least one defined histogram value")
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50
	}
	values, err := NewBollingerBands(20, 2.0).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	last := len(closes) - 1
	if !almostEqual(values["middle"][last], 50) ||
		!almostEqual(values["upper"][last], 50) ||
		!almostEqual(values["lower"][last], 50) {
		t.Errorf("flat series bands = %v/%v/%v, want all 50",
			values["lower"][last], values["middle"][last], values["upper"][last])
	}
	if !almostEqual(values["percent_b"][last], 0.5) {
		t.Errorf("flat series %%B = %v, want 0.5", values["percent_b"][last])
	}
}

func TestRelativeVolumeConstantVolume(t *testing.T) {
	candles := candlesFromCloses(make([]float64, 25))
	for i := range candles {
		candles[i].Close = 100
		candles[i].Volume = 5000
	}
	values, err := NewRelativeVolume(20).Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	last, ok := LastDefined(values)
	if !ok {
		t.Fatal("expected a defined value")
	}
	if !almostEqual(last, 1) {
		t.Errorf("constant volume ratio = %v, want 1", last)
	}
}

func TestRelativeVolumeSpike(t *testing.T) {
	candles := candlesFromCloses(make([]float64, 21))
	for i := range candles {
		candles[i].Close = 100
		candles[i].Volume = 1000
	}
	candles[20].Volume = 3000
	values, err := NewRelativeVolume(20).Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	last := values[20]
	// Average includes the spike bar: (19*1000 + 3000) / 20 = 1100
	if !almostEqual(last, 3000.0/1100.0) {
		t.Errorf("spike ratio = %v, want %v", last, 3000.0/1100.0)
	}
}

func TestOBVDirection(t *testing.T) {
	candles := candlesFromCloses([]float64{10, 11, 10, 10})
	for i := range candles {
		candles[i].Volume = 100
	}
	values, err := NewOBV().Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []float64{100, 200, 100, 100}
	for i, w := range want {
		if !almostEqual(values[i], w) {
			t.Errorf("OBV[%d] = %v, want %v", i, values[i], w)
		}
	}
}

func TestVWAPFlatSeries(t *testing.T) {
	candles := candlesFromCloses([]float64{40, 40, 40})
	values, err := NewVWAP().Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	for i, v := range values {
		if !almostEqual(v, 40) {
			t.Errorf("VWAP[%d] = %v, want 40", i, v)
		}
	}
}

func TestSupportResistanceFindsSpikes(t *testing.T) {
	candles := candlesFromCloses(make([]float64, 30))
	for i := range candles {
		candles[i].Open = 100
		candles[i].High = 100
		candles[i].Low = 100
		candles[i].Close = 100
	}
	// Two isolated pivot highs at the same price
	candles[5].High = 110
	candles[15].High = 110

	levels, err := NewSupportResistance(2, 0.005, 2).Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d: %+v", len(levels), levels)
	}
	lvl := levels[0]
	if lvl.Type != analysis.LevelResistance {
		t.Errorf("level type = %s, want resistance", lvl.Type)
	}
	if !almostEqual(lvl.Price, 110) {
		t.Errorf("level price = %v, want 110", lvl.Price)
	}
	if lvl.TouchCount != 2 {
		t.Errorf("touch count = %d, want 2", lvl.TouchCount)
	}
}

func TestSupportResistanceOrdersByDistance(t *testing.T) {
	candles := candlesFromCloses(make([]float64, 40))
	for i := range candles {
		candles[i].Open = 100
		candles[i].High = 100
		candles[i].Low = 100
		candles[i].Close = 100
	}
	// A far resistance band and a near support band
	candles[5].High = 130
	candles[15].High = 130
	candles[10].Low = 95
	candles[25].Low = 95

	levels, err := NewSupportResistance(2, 0.005, 2).Calculate(candles)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %+v", len(levels), levels)
	}
	if levels[0].Type != analysis.LevelSupport {
		t.Errorf("nearest level = %s at %v, want the support at 95", levels[0].Type, levels[0].Price)
	}
}

func TestLibraryCalculateAll(t *testing.T) {
	lib := NewLibrary(4)
	lib.Register(NewSMA(3))
	lib.Register(NewSMA(50)) // longer than the series, must land in Errors
	lib.RegisterMulti(NewMACD(3, 6, 3))

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	res, err := lib.CalculateAll(context.Background(), candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}

	if res.Series("SMA_3") == nil {
		t.Error("expected SMA_3 series")
	}
	if res.MultiSeries("MACD_3_6_3", "histogram") == nil {
		t.Error("expected MACD histogram series")
	}
	if !errors.Is(res.Err("SMA_50"), ErrInsufficientData) {
		t.Errorf("SMA_50 error = %v, want ErrInsufficientData", res.Err("SMA_50"))
	}
	if res.Series("SMA_50") != nil {
		t.Error("failed indicator must not publish values")
	}
}

func TestLibraryCalculateAllCancelled(t *testing.T) {
	lib := NewLibrary(2)
	lib.Register(NewSMA(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lib.CalculateAll(ctx, candlesFromCloses([]float64{1, 2, 3, 4}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLastTwoDefined(t *testing.T) {
	nan := math.NaN()
	prev, last, ok := LastTwoDefined([]float64{nan, 1, nan, 2, 3})
	if !ok || prev != 2 || last != 3 {
		t.Errorf("got (%v, %v, %v), want (2, 3, true)", prev, last, ok)
	}
	if _, _, ok := LastTwoDefined([]float64{nan, 5}); ok {
		t.Error("one defined value must not report ok")
	}
}
