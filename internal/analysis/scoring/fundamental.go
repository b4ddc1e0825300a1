package scoring

import (
	"fmt"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// scoreFundamentals grades a fundamentals snapshot against its sector
// benchmark. Each reported metric earns 0-100 points on a band ladder;
// the dimension value is the mean of the earned points mapped onto
// [-1, 1], with 50 points as the neutral midline. A snapshot with no
// scoreable metric leaves the dimension unavailable.
func scoreFundamentals(f *models.Fundamentals) dimScore {
	if f == nil {
		return dimScore{}
	}
	bench := BenchmarkFor(f.Sector)
	points := fundamentalPoints(f, bench)
	if len(points) == 0 {
		return dimScore{}
	}

	var total float64
	for _, p := range points {
		total += p
	}
	meanPts := total / float64(len(points))
	v := clamp((meanPts-50)/50, -1, 1)

	var label string
	switch {
	case v >= 0.4:
		label = "strong fundamentals"
	case v >= 0.1:
		label = "solid fundamentals"
	case v <= -0.4:
		label = "poor fundamentals"
	case v <= -0.1:
		label = "weak fundamentals"
	default:
		label = "mixed fundamentals"
	}

	sector := f.Sector
	if _, known := sectorBenchmarks[sector]; !known {
		sector = "default"
	}
	return dimScore{
		value:     v,
		label:     label,
		detail:    fmt.Sprintf("%d metrics vs %s sector bands", len(points), sector),
		available: true,
	}
}

// HasScoreableMetrics reports whether the snapshot carries at least one
// metric the fundamental scorer can grade.
func HasScoreableMetrics(f *models.Fundamentals) bool {
	if f == nil {
		return false
	}
	return len(fundamentalPoints(f, BenchmarkFor(f.Sector))) > 0
}

// fundamentalPoints runs each reported metric through its band ladder.
// Zero values mean the upstream did not report the field and are
// skipped, except for growth and margin figures where a negative
// reading is itself a signal.
func fundamentalPoints(f *models.Fundamentals, bench SectorBenchmark) []float64 {
	var points []float64

	if pe := f.PERatio; pe > 0 {
		switch {
		case pe < bench.PEGood:
			points = append(points, 80)
		case pe < bench.PEAvg:
			points = append(points, 60)
		case pe < bench.PEBad:
			points = append(points, 40)
		default:
			points = append(points, 20)
		}
	}
	if pb := f.PriceToBook; pb > 0 {
		switch {
		case pb < bench.PBAvg*0.7:
			points = append(points, 80)
		case pb < bench.PBAvg:
			points = append(points, 60)
		case pb < bench.PBAvg*1.5:
			points = append(points, 40)
		default:
			points = append(points, 20)
		}
	}
	if peg := f.PEGRatio; peg > 0 {
		switch {
		case peg < 1:
			points = append(points, 90)
		case peg < 1.5:
			points = append(points, 70)
		case peg < 2:
			points = append(points, 50)
		default:
			points = append(points, 30)
		}
	}
	if f.ForwardPE > 0 && f.PERatio > 0 {
		switch {
		case f.ForwardPE < f.PERatio*0.9:
			points = append(points, 70)
		case f.ForwardPE < f.PERatio:
			points = append(points, 60)
		default:
			points = append(points, 40)
		}
	}
	if roe := f.ROE; roe != 0 {
		switch {
		case roe > bench.ROEAvg*1.3:
			points = append(points, 90)
		case roe > bench.ROEAvg:
			points = append(points, 70)
		case roe > bench.ROEAvg*0.7:
			points = append(points, 50)
		default:
			points = append(points, 30)
		}
	}
	if de := f.DebtToEquity; de > 0 {
		switch {
		case de < bench.DebtEquityOK*0.5:
			points = append(points, 90)
		case de < bench.DebtEquityOK:
			points = append(points, 70)
		case de < bench.DebtEquityOK*1.5:
			points = append(points, 40)
		default:
			points = append(points, 20)
		}
	}
	if m := f.ProfitMargin; m != 0 {
		switch {
		case m > bench.MarginAvg*1.3:
			points = append(points, 90)
		case m > bench.MarginAvg:
			points = append(points, 70)
		case m > bench.MarginAvg*0.7:
			points = append(points, 50)
		default:
			points = append(points, 30)
		}
	}
	if f.FreeCashflow != 0 {
		if f.FreeCashflow > 0 {
			points = append(points, 70)
		} else {
			points = append(points, 20)
		}
	}
	if g := f.RevenueGrowth; g != 0 {
		switch {
		case g > bench.GrowthAvg*2:
			points = append(points, 95)
		case g > bench.GrowthAvg*1.3:
			points = append(points, 80)
		case g > bench.GrowthAvg:
			points = append(points, 65)
		case g > 0:
			points = append(points, 45)
		default:
			points = append(points, 20)
		}
	}
	if eg := f.EPSGrowth; eg != 0 {
		switch {
		case eg > 25:
			points = append(points, 90)
		case eg > 15:
			points = append(points, 75)
		case eg > 5:
			points = append(points, 55)
		case eg > 0:
			points = append(points, 40)
		default:
			points = append(points, 25)
		}
	}
	if gm := f.GrossMargin; gm != 0 {
		switch {
		case gm > 50:
			points = append(points, 85)
		case gm > 30:
			points = append(points, 70)
		case gm > 20:
			points = append(points, 50)
		default:
			points = append(points, 30)
		}
	}
	if dy := f.DividendYield; dy > 0 {
		switch {
		case dy > 4:
			points = append(points, 70)
		case dy > 2:
			points = append(points, 60)
		default:
			points = append(points, 55)
		}
	}

	return points
}

// fundamentalNotes extracts the headline strengths and red flags for
// the report lists.
func fundamentalNotes(f *models.Fundamentals) (strengths, warnings []string) {
	if f == nil {
		return nil, nil
	}
	bench := BenchmarkFor(f.Sector)

	if f.PERatio > 0 && f.PERatio < bench.PEGood {
		strengths = append(strengths, fmt.Sprintf("P/E %.1f under the sector average %.0f", f.PERatio, bench.PEAvg))
	} else if f.PERatio > bench.PEBad {
		warnings = append(warnings, fmt.Sprintf("P/E %.1f rich for the sector (average %.0f)", f.PERatio, bench.PEAvg))
	}
	if f.RevenueGrowth > bench.GrowthAvg*1.5 {
		strengths = append(strengths, fmt.Sprintf("revenue growing %.1f%% vs sector %.0f%%", f.RevenueGrowth, bench.GrowthAvg))
	} else if f.RevenueGrowth < -5 {
		warnings = append(warnings, fmt.Sprintf("revenue declining %.1f%%", f.RevenueGrowth))
	}
	if f.ROE > bench.ROEAvg*1.3 {
		strengths = append(strengths, fmt.Sprintf("ROE %.1f%% well above sector %.0f%%", f.ROE, bench.ROEAvg))
	}
	if f.ProfitMargin > bench.MarginAvg*1.3 {
		strengths = append(strengths, fmt.Sprintf("margins %.1f%% vs sector %.0f%%", f.ProfitMargin, bench.MarginAvg))
	}
	if f.PEGRatio > 0 && f.PEGRatio < 1 {
		strengths = append(strengths, fmt.Sprintf("PEG %.2f, growth at a reasonable price", f.PEGRatio))
	}
	if f.DebtToEquity > bench.DebtEquityOK*2 {
		warnings = append(warnings, fmt.Sprintf("debt/equity %.1f against a sector comfort level of %.1f", f.DebtToEquity, bench.DebtEquityOK))
	}
	if f.FreeCashflow < 0 {
		warnings = append(warnings, "negative free cash flow")
	}
	if f.ShortPercent > 15 {
		warnings = append(warnings, fmt.Sprintf("short interest %.1f%% of float", f.ShortPercent))
	}
	return strengths, warnings
}
