package scoring

// SectorBenchmark holds the typical valuation and quality bands for one
// sector. Fundamental metrics are scored against these bands rather than
// absolute cutoffs, so a bank's leverage and a software company's P/E are
// each judged against their own peer group.
type SectorBenchmark struct {
	PEAvg        float64
	PEGood       float64
	PEBad        float64
	PBAvg        float64
	ROEAvg       float64 // percent
	MarginAvg    float64 // percent
	GrowthAvg    float64 // percent, revenue growth
	DebtEquityOK float64
}

var sectorBenchmarks = map[string]SectorBenchmark{
	"Technology": {
		PEAvg: 35, PEGood: 25, PEBad: 60,
		PBAvg: 8, ROEAvg: 20, MarginAvg: 25,
		GrowthAvg: 15, DebtEquityOK: 1.5,
	},
	"Software": {
		PEAvg: 45, PEGood: 30, PEBad: 80,
		PBAvg: 15, ROEAvg: 25, MarginAvg: 30,
		GrowthAvg: 25, DebtEquityOK: 1.0,
	},
	// Banks run on leverage, so the acceptable debt band is much wider.
	"Finance": {
		PEAvg: 12, PEGood: 10, PEBad: 18,
		PBAvg: 1.2, ROEAvg: 12, MarginAvg: 35,
		GrowthAvg: 8, DebtEquityOK: 3.0,
	},
	"Consumer Cyclical": {
		PEAvg: 20, PEGood: 15, PEBad: 30,
		PBAvg: 4, ROEAvg: 18, MarginAvg: 10,
		GrowthAvg: 10, DebtEquityOK: 1.2,
	},
	"Healthcare": {
		PEAvg: 22, PEGood: 18, PEBad: 35,
		PBAvg: 5, ROEAvg: 15, MarginAvg: 18,
		GrowthAvg: 12, DebtEquityOK: 0.8,
	},
	"Energy": {
		PEAvg: 15, PEGood: 10, PEBad: 25,
		PBAvg: 1.5, ROEAvg: 10, MarginAvg: 8,
		GrowthAvg: 5, DebtEquityOK: 1.0,
	},
	"Industrials": {
		PEAvg: 18, PEGood: 15, PEBad: 25,
		PBAvg: 3, ROEAvg: 14, MarginAvg: 12,
		GrowthAvg: 8, DebtEquityOK: 1.0,
	},
	"Consumer Defensive": {
		PEAvg: 22, PEGood: 18, PEBad: 30,
		PBAvg: 4, ROEAvg: 16, MarginAvg: 8,
		GrowthAvg: 5, DebtEquityOK: 0.8,
	},
	"Communication Services": {
		PEAvg: 25, PEGood: 18, PEBad: 40,
		PBAvg: 3, ROEAvg: 15, MarginAvg: 20,
		GrowthAvg: 12, DebtEquityOK: 1.2,
	},
	"Utilities": {
		PEAvg: 18, PEGood: 15, PEBad: 25,
		PBAvg: 1.8, ROEAvg: 10, MarginAvg: 12,
		GrowthAvg: 3, DebtEquityOK: 1.5,
	},
	"Real Estate": {
		PEAvg: 30, PEGood: 20, PEBad: 50,
		PBAvg: 2, ROEAvg: 8, MarginAvg: 15,
		GrowthAvg: 5, DebtEquityOK: 2.0,
	},
	"Basic Materials": {
		PEAvg: 16, PEGood: 12, PEBad: 25,
		PBAvg: 2, ROEAvg: 12, MarginAvg: 10,
		GrowthAvg: 6, DebtEquityOK: 0.8,
	},
}

// defaultBenchmark is used for unknown or unreported sectors.
var defaultBenchmark = SectorBenchmark{
	PEAvg: 25, PEGood: 18, PEBad: 40,
	PBAvg: 4, ROEAvg: 15, MarginAvg: 15,
	GrowthAvg: 10, DebtEquityOK: 1.0,
}

// BenchmarkFor returns the benchmark bands for a sector, falling back
// to the cross-sector default when the sector is not in the table.
func BenchmarkFor(sector string) SectorBenchmark {
	if b, ok := sectorBenchmarks[sector]; ok {
		return b
	}
	return defaultBenchmark
}
