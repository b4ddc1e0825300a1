// Package portfolio manages persisted holdings and their valuation.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/provider"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/store"
)

// Manager applies portfolio operations on top of the store, pricing
// positions through the provider.
type Manager struct {
	store    store.Store
	provider provider.Provider
}

// NewManager creates a portfolio manager.
func NewManager(st store.Store, p provider.Provider) *Manager {
	return &Manager{store: st, provider: p}
}

// Add records a purchase. Adding to an existing position merges via
// weighted average cost and keeps the original purchase date; a zero
// date means now.
func (m *Manager) Add(ctx context.Context, symbol string, shares, price float64, date time.Time, notes string) (*models.Position, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if shares <= 0 {
		return nil, fmt.Errorf("shares must be positive, got %g", shares)
	}
	if price < 0 {
		return nil, fmt.Errorf("price must be non-negative, got %g", price)
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var pos *models.Position
	existing, err := m.store.GetPosition(ctx, symbol)
	switch {
	case err == nil:
		total := existing.Shares + shares
		existing.AvgCost = (existing.Shares*existing.AvgCost + shares*price) / total
		existing.Shares = total
		if notes != "" {
			existing.Notes = notes
		}
		pos = existing
	case errors.Is(err, terrors.ErrPositionNotFound):
		pos = &models.Position{
			Symbol:       symbol,
			Shares:       shares,
			AvgCost:      price,
			PurchaseDate: date,
			Notes:        notes,
		}
	default:
		return nil, err
	}

	if err := m.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Remove records a sale. Selling fewer shares than held reduces the
// position at an unchanged average cost; selling all held shares, or
// more, closes it. shares <= 0 also closes the position. The returned
// position is nil when the position was closed.
func (m *Manager) Remove(ctx context.Context, symbol string, shares float64) (*models.Position, error) {
	symbol = normalizeSymbol(symbol)
	pos, err := m.store.GetPosition(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if shares <= 0 || shares >= pos.Shares {
		if err := m.store.DeletePosition(ctx, symbol); err != nil {
			return nil, err
		}
		return nil, nil
	}

	pos.Shares -= shares
	if err := m.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// List returns all positions.
func (m *Manager) List(ctx context.Context) ([]models.Position, error) {
	return m.store.ListPositions(ctx)
}

// PositionView is a position priced at the current quote.
type PositionView struct {
	models.Position
	CurrentPrice float64
	MarketValue  float64
	GainLoss     float64
	GainLossPct  float64
	// Stale is set when no quote was available and the position is
	// valued at cost.
	Stale bool
}

// Summary is the portfolio valued at current quotes.
type Summary struct {
	Positions    []PositionView
	TotalCost    float64
	TotalValue   float64
	TotalGain    float64
	TotalGainPct float64
	TopGainers   []PositionView
	TopLosers    []PositionView
	AsOf         time.Time
}

// Summary prices every position through the provider. A position whose
// quote fails is valued at cost and marked stale rather than failing
// the whole summary.
func (m *Manager) Summary(ctx context.Context) (*Summary, error) {
	positions, err := m.store.ListPositions(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{AsOf: time.Now().UTC()}
	for _, pos := range positions {
		view := PositionView{Position: pos, CurrentPrice: pos.AvgCost, Stale: true}
		if quote, err := m.provider.GetQuote(ctx, pos.Symbol); err == nil && quote.Price > 0 {
			view.CurrentPrice = quote.Price
			view.Stale = false
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		view.MarketValue = view.CurrentPrice * pos.Shares
		view.GainLoss = view.MarketValue - pos.CostBasis()
		if basis := pos.CostBasis(); basis > 0 {
			view.GainLossPct = view.GainLoss / basis * 100
		}

		summary.Positions = append(summary.Positions, view)
		summary.TotalCost += pos.CostBasis()
		summary.TotalValue += view.MarketValue
	}

	summary.TotalGain = summary.TotalValue - summary.TotalCost
	if summary.TotalCost > 0 {
		summary.TotalGainPct = summary.TotalGain / summary.TotalCost * 100
	}

	ranked := make([]PositionView, len(summary.Positions))
	copy(ranked, summary.Positions)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].GainLossPct > ranked[j].GainLossPct })
	for _, v := range ranked {
		if v.GainLossPct > 0 && len(summary.TopGainers) < 3 {
			summary.TopGainers = append(summary.TopGainers, v)
		}
	}
	for i := len(ranked) - 1; i >= 0; i-- {
		if ranked[i].GainLossPct < 0 && len(summary.TopLosers) < 3 {
			summary.TopLosers = append(summary.TopLosers, ranked[i])
		}
	}

	return summary, nil
}

// Allocation returns each position's share of total market value, in
// percent.
func (m *Manager) Allocation(ctx context.Context) (map[string]float64, error) {
	summary, err := m.Summary(ctx)
	if err != nil {
		return nil, err
	}
	allocation := make(map[string]float64, len(summary.Positions))
	if summary.TotalValue <= 0 {
		return allocation, nil
	}
	for _, view := range summary.Positions {
		allocation[view.Symbol] = view.MarketValue / summary.TotalValue * 100
	}
	return allocation, nil
}

// csvPosition is the CSV row shape for exports.
type csvPosition struct {
	Symbol       string  `csv:"symbol"`
	Shares       float64 `csv:"shares"`
	AvgCost      float64 `csv:"avg_cost"`
	PurchaseDate string  `csv:"purchase_date"`
	Notes        string  `csv:"notes"`
}

// ExportCSV writes all positions as CSV.
func (m *Manager) ExportCSV(ctx context.Context, w io.Writer) error {
	positions, err := m.store.ListPositions(ctx)
	if err != nil {
		return err
	}

	rows := make([]csvPosition, 0, len(positions))
	for _, pos := range positions {
		rows = append(rows, csvPosition{
			Symbol:       pos.Symbol,
			Shares:       pos.Shares,
			AvgCost:      pos.AvgCost,
			PurchaseDate: pos.PurchaseDate.Format("2006-01-02"),
			Notes:        pos.Notes,
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
