package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/portfolio"
)

// addPortfolioCommands adds portfolio management commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio management",
		Long:  "Track positions, performance and allocation of your portfolio.",
	}

	cmd.AddCommand(newPortfolioAddCmd(app))
	cmd.AddCommand(newPortfolioRemoveCmd(app))
	cmd.AddCommand(newPortfolioListCmd(app))
	cmd.AddCommand(newPortfolioSummaryCmd(app))
	cmd.AddCommand(newPortfolioAllocationCmd(app))
	cmd.AddCommand(newPortfolioExportCmd(app))

	rootCmd.AddCommand(cmd)
}

func requirePortfolio(app *App) (*portfolio.Manager, error) {
	if app.Portfolio == nil {
		if app.Store == nil {
			return nil, errNoStore
		}
		return nil, errNoProvider
	}
	return app.Portfolio, nil
}

func newPortfolioAddCmd(app *App) *cobra.Command {
	var (
		dateStr string
		notes   string
	)

	cmd := &cobra.Command{
		Use:   "add SYMBOL SHARES PRICE",
		Short: "Add shares to a position",
		Long: `Add records a purchase. Adding to an existing position merges via
weighted average cost and keeps the original purchase date.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			mgr, err := requirePortfolio(app)
			if err != nil {
				return err
			}

			symbol := strings.ToUpper(args[0])
			shares, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid share count %q: %w", args[1], err)
			}
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[2], err)
			}

			date := time.Now()
			if dateStr != "" {
				date, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", dateStr, err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pos, err := mgr.Add(ctx, symbol, shares, price, date, notes)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(pos)
			}
			output.Success("✓ Added %s %s @ %s", FormatShares(shares), symbol, FormatUSD(price))
			output.Printf("  Position: %s shares, average cost %s\n",
				FormatShares(pos.Shares), FormatUSD(pos.AvgCost))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "purchase date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form note for the position")

	return cmd
}

func newPortfolioRemoveCmd(app *App) *cobra.Command {
	var shares float64

	cmd := &cobra.Command{
		Use:   "remove SYMBOL",
		Short: "Sell shares or close a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			mgr, err := requirePortfolio(app)
			if err != nil {
				return err
			}

			symbol := strings.ToUpper(args[0])

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pos, err := mgr.Remove(ctx, symbol, shares)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if pos == nil {
					return output.JSON(map[string]string{"symbol": symbol, "status": "closed"})
				}
				return output.JSON(pos)
			}
			if pos == nil {
				output.Success("✓ Closed position in %s", symbol)
			} else {
				output.Success("✓ Sold %s %s", FormatShares(shares), symbol)
				output.Printf("  Remaining: %s shares, average cost %s\n",
					FormatShares(pos.Shares), FormatUSD(pos.AvgCost))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&shares, "shares", 0, "shares to sell (0 or omitted closes the position)")

	return cmd
}

func newPortfolioListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List portfolio positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			mgr, err := requirePortfolio(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			positions, err := mgr.List(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Info("Portfolio is empty. Use 'terminal portfolio add' to record a purchase.")
				return nil
			}

			output.Println()
			table := NewTable(output, "Symbol", "Shares", "Avg Cost", "Cost Basis", "Purchased", "Notes")
			for _, p := range positions {
				table.AddRow(
					output.BoldText(p.Symbol),
					FormatShares(p.Shares),
					FormatUSD(p.AvgCost),
					FormatUSD(p.CostBasis()),
					FormatDate(p.PurchaseDate),
					TruncateString(p.Notes, 30),
				)
			}
			table.Render()
			output.Println()
			return nil
		},
	}
}

func newPortfolioSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show portfolio performance with live prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			mgr, err := requirePortfolio(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			summary, err := mgr.Summary(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}

			if len(summary.Positions) == 0 {
				output.Info("Portfolio is empty.")
				return nil
			}

			output.Println()
			table := NewTable(output, "Symbol", "Shares", "Avg Cost", "Price", "Value", "Gain", "Gain %")
			for _, v := range summary.Positions {
				symbol := output.BoldText(v.Symbol)
				if v.Stale {
					symbol += output.DimText(" *")
				}
				table.AddRow(
					symbol,
					FormatShares(v.Shares),
					FormatUSD(v.AvgCost),
					FormatUSD(v.CurrentPrice),
					FormatUSD(v.MarketValue),
					output.SignedUSD(v.GainLoss),
					output.SignedPercent(v.GainLossPct),
				)
			}
			table.Render()
			output.Println()

			output.Printf("Total Cost:  %s\n", FormatUSD(summary.TotalCost))
			output.Printf("Total Value: %s\n", FormatUSD(summary.TotalValue))
			output.Printf("Total Gain:  %s (%s)\n",
				output.SignedUSD(summary.TotalGain), output.SignedPercent(summary.TotalGainPct))
			output.Println()

			if len(summary.TopGainers) > 0 {
				best := summary.TopGainers[0]
				output.Printf("Best:  %s %s\n", best.Symbol, output.SignedPercent(best.GainLossPct))
			}
			if len(summary.TopLosers) > 0 {
				worst := summary.TopLosers[0]
				output.Printf("Worst: %s %s\n", worst.Symbol, output.SignedPercent(worst.GainLossPct))
			}

			hasStale := false
			for _, v := range summary.Positions {
				if v.Stale {
					hasStale = true
					break
				}
			}
			if hasStale {
				output.Dim("* quote unavailable, valued at cost")
			}
			output.Println()
			return nil
		},
	}
}

func newPortfolioAllocationCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "allocation",
		Short: "Show portfolio allocation by position",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			mgr, err := requirePortfolio(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			alloc, err := mgr.Allocation(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(alloc)
			}

			if len(alloc) == 0 {
				output.Info("Portfolio is empty.")
				return nil
			}

			output.Println()
			table := NewTable(output, "Symbol", "Allocation")
			for _, symbol := range sortedKeys(alloc) {
				pct := alloc[symbol]
				bar := strings.Repeat("█", int(pct/2))
				table.AddRow(output.BoldText(symbol), fmt.Sprintf("%5.1f%% %s", pct, output.Cyan(bar)))
			}
			table.Render()
			output.Println()
			return nil
		},
	}
}

func newPortfolioExportCmd(app *App) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export positions as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			mgr, err := requirePortfolio(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if path == "" || path == "-" {
				return mgr.ExportCSV(ctx, cmd.OutOrStdout())
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer f.Close()

			if err := mgr.ExportCSV(ctx, f); err != nil {
				return err
			}
			output.Success("✓ Exported portfolio to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", "output file (default stdout)")

	return cmd
}

// FormatShares formats a fractional share count, trimming trailing
// zeros.
func FormatShares(shares float64) string {
	s := strconv.FormatFloat(shares, 'f', -1, 64)
	return s
}

// sortedKeys returns the map keys ordered by descending value.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return m[keys[i]] > m[keys[j]] })
	return keys
}
