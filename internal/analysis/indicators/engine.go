// Package indicators provides technical indicator calculations over
// candle series, with parallel computation of registered indicator sets.
package indicators

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// Result holds the output of one Library run. Values and Multi are
// keyed by indicator name. Indicators that failed are recorded in
// Errors under the same name instead of being dropped, so callers can
// tell a short history from a missing registration.
type Result struct {
	Values map[string][]float64
	Multi  map[string]map[string][]float64
	Errors map[string]error
}

// Series returns the named single-value series, or nil when the
// indicator is absent or failed.
func (r *Result) Series(name string) []float64 {
	return r.Values[name]
}

// MultiSeries returns one component series of a multi-value indicator.
func (r *Result) MultiSeries(name, key string) []float64 {
	if m, ok := r.Multi[name]; ok {
		return m[key]
	}
	return nil
}

// Err returns the error recorded for the named indicator, if any.
func (r *Result) Err(name string) error {
	return r.Errors[name]
}

// Library is a registry of technical indicators computed in parallel
// by a bounded worker pool.
type Library struct {
	workers int
	single  map[string]analysis.Indicator
	multi   map[string]analysis.MultiValueIndicator
	mu      sync.RWMutex
}

// NewLibrary creates an indicator library with the given worker count.
func NewLibrary(workers int) *Library {
	if workers <= 0 {
		workers = 4
	}
	return &Library{
		workers: workers,
		single:  make(map[string]analysis.Indicator),
		multi:   make(map[string]analysis.MultiValueIndicator),
	}
}

// Register adds a single-value indicator. Registering the same name
// again replaces the earlier instance.
func (l *Library) Register(ind analysis.Indicator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.single[ind.Name()] = ind
}

// RegisterMulti adds a multi-value indicator.
func (l *Library) RegisterMulti(ind analysis.MultiValueIndicator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.multi[ind.Name()] = ind
}

// CalculateAll computes every registered indicator over candles using
// the worker pool. Per-indicator failures land in Result.Errors rather
// than aborting the run; the only returned error is context
// cancellation.
func (l *Library) CalculateAll(ctx context.Context, candles []models.Candle) (*Result, error) {
	res := &Result{
		Values: make(map[string][]float64),
		Multi:  make(map[string]map[string][]float64),
		Errors: make(map[string]error),
	}
	var mu sync.Mutex

	l.mu.RLock()
	jobs := make([]func(), 0, len(l.single)+len(l.multi))
	for name, ind := range l.single {
		jobs = append(jobs, func() {
			values, err := ind.Calculate(candles)
			mu.Lock()
			if err != nil {
				res.Errors[name] = err
			} else {
				res.Values[name] = values
			}
			mu.Unlock()
		})
	}
	for name, ind := range l.multi {
		jobs = append(jobs, func() {
			values, err := ind.Calculate(candles)
			mu.Lock()
			if err != nil {
				res.Errors[name] = err
			} else {
				res.Multi[name] = values
			}
			mu.Unlock()
		})
	}
	l.mu.RUnlock()

	work := make(chan func(), len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range work {
				select {
				case <-ctx.Done():
					return
				default:
					job()
				}
			}
		}()
	}

	for _, job := range jobs {
		work <- job
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Calculate computes a single registered indicator by name.
func (l *Library) Calculate(ctx context.Context, name string, candles []models.Candle) ([]float64, error) {
	l.mu.RLock()
	ind, ok := l.single[name]
	l.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("indicator %s not registered", name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return ind.Calculate(candles)
	}
}

// CalculateMulti computes a single registered multi-value indicator by name.
func (l *Library) CalculateMulti(ctx context.Context, name string, candles []models.Candle) (map[string][]float64, error) {
	l.mu.RLock()
	ind, ok := l.multi[name]
	l.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("indicator %s not registered", name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return ind.Calculate(candles)
	}
}

// Names returns the sorted names of all registered indicators.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.single)+len(l.multi))
	for name := range l.single {
		names = append(names, name)
	}
	for name := range l.multi {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
