package scoring

import (
	"context"
	"sort"
	"sync"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
)

// Fetch assembles the analysis input for one symbol. Backed by the
// market data provider in the CLI; tests supply their own.
type Fetch func(ctx context.Context, symbol string) (Input, error)

// BatchResult pairs one symbol with its analysis outcome. Report is nil
// when Err is set.
type BatchResult struct {
	Symbol string
	Report *analysis.Report
	Err    error
}

// AnalyzeMany runs the engine over several symbols concurrently and
// returns all results sorted by composite score, strongest first.
// Per-symbol failures are carried in their result rather than aborting
// the batch.
func (e *Engine) AnalyzeMany(ctx context.Context, symbols []string, fetch Fetch, concurrency int) []BatchResult {
	if len(symbols) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	work := make(chan string, len(symbols))
	out := make(chan BatchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range work {
				out <- e.analyzeOne(ctx, symbol, fetch)
			}
		}()
	}

	for _, s := range symbols {
		work <- s
	}
	close(work)
	wg.Wait()
	close(out)

	results := make([]BatchResult, 0, len(symbols))
	for r := range out {
		results = append(results, r)
	}

	// Failed symbols sink to the end; the rest rank by composite.
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i].Report, results[j].Report
		if ri == nil || rj == nil {
			return ri != nil
		}
		return ri.Composite > rj.Composite
	})
	return results
}

func (e *Engine) analyzeOne(ctx context.Context, symbol string, fetch Fetch) BatchResult {
	if err := ctx.Err(); err != nil {
		return BatchResult{Symbol: symbol, Err: err}
	}
	in, err := fetch(ctx, symbol)
	if err != nil {
		return BatchResult{Symbol: symbol, Err: err}
	}
	report, err := e.Analyze(ctx, in)
	if err != nil {
		return BatchResult{Symbol: symbol, Err: err}
	}
	return BatchResult{Symbol: symbol, Report: report}
}
