package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/provider"
	"github.com/batman-haker/Professional-Trading-Terminal/pkg/utils"
)

// addMarketDataCommands adds market data commands.
func addMarketDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newFundamentalsCmd(app))
	rootCmd.AddCommand(newNewsCmd(app))
	rootCmd.AddCommand(newSearchCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Get current quotes for one or more symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			p, err := requireProvider(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var quotes []*models.Quote
			for _, arg := range args {
				symbol := strings.ToUpper(arg)
				quote, err := p.GetQuote(ctx, symbol)
				if err != nil {
					return fmt.Errorf("fetching quote for %s: %w", symbol, err)
				}
				quotes = append(quotes, quote)
			}

			if output.IsJSON() {
				if len(quotes) == 1 {
					return output.JSON(quotes[0])
				}
				return output.JSON(quotes)
			}

			output.Println()
			output.Printf("Market: %s\n\n", output.MarketStatus(utils.GetMarketStatus()))
			table := NewTable(output, "Symbol", "Price", "Change", "Change %", "Open", "High", "Low", "Volume")
			for _, q := range quotes {
				table.AddRow(
					output.BoldText(q.Symbol),
					FormatUSD(q.Price),
					output.SignedUSD(q.Change),
					output.SignedPercent(q.ChangePercent),
					FormatUSD(q.Open),
					FormatUSD(q.High),
					FormatUSD(q.Low),
					FormatVolume(q.Volume),
				)
			}
			table.Render()
			output.Println()
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var (
		dataRange  string
		resolution string
		tail       int
	)

	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Get historical price data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			p, err := requireProvider(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			series, err := p.GetHistory(ctx, provider.HistoryRequest{
				Symbol:     symbol,
				Resolution: models.Resolution(resolution),
				Range:      dataRange,
			})
			if err != nil {
				return fmt.Errorf("fetching history for %s: %w", symbol, err)
			}

			if output.IsJSON() {
				return output.JSON(series)
			}

			candles := series.Candles
			if tail > 0 && len(candles) > tail {
				candles = candles[len(candles)-tail:]
			}

			output.Println()
			output.Bold("%s  %s bars, range %s (%d of %d shown)",
				series.Symbol, series.Resolution, dataRange, len(candles), series.Len())
			output.Println()
			table := NewTable(output, "Date", "Open", "High", "Low", "Close", "Volume")
			for _, c := range candles {
				table.AddRow(
					FormatDate(c.Timestamp),
					FormatUSD(c.Open),
					FormatUSD(c.High),
					FormatUSD(c.Low),
					FormatUSD(c.Close),
					FormatVolume(c.Volume),
				)
			}
			table.Render()
			output.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRange, "range", "3mo", "history range (1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max)")
	cmd.Flags().StringVar(&resolution, "resolution", "1d", "bar interval (1m 5m 15m 30m 60m 1d)")
	cmd.Flags().IntVar(&tail, "tail", 20, "show only the most recent N bars (0 for all)")

	return cmd
}

func newFundamentalsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "fundamentals SYMBOL",
		Short: "Get company fundamentals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			p, err := requireProvider(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			f, err := p.GetFundamentals(ctx, symbol)
			if err != nil {
				return fmt.Errorf("fetching fundamentals for %s: %w", symbol, err)
			}

			if output.IsJSON() {
				return output.JSON(f)
			}

			output.Println()
			name := f.Name
			if name == "" {
				name = f.Symbol
			}
			output.Bold("%s (%s)", name, f.Symbol)
			if f.Sector != "" {
				output.Dim("Sector: %s", f.Sector)
			}
			output.Println()

			output.Bold("Valuation")
			output.Printf("  Market Cap:      %s\n", FormatCompact(f.MarketCap))
			output.Printf("  P/E:             %s (forward %s)\n", FormatRatio(f.PERatio), FormatRatio(f.ForwardPE))
			output.Printf("  PEG:             %s\n", FormatRatio(f.PEGRatio))
			output.Printf("  Price/Book:      %s\n", FormatRatio(f.PriceToBook))
			output.Println()

			output.Bold("Earnings & Growth")
			output.Printf("  EPS:             %s\n", FormatRatio(f.EPS))
			output.Printf("  EPS Growth:      %s\n", FormatPercent(f.EPSGrowth))
			output.Printf("  Revenue Growth:  %s\n", FormatPercent(f.RevenueGrowth))
			output.Printf("  Profit Margin:   %.1f%%\n", f.ProfitMargin)
			output.Printf("  ROE:             %.1f%%\n", f.ROE)
			output.Println()

			output.Bold("Balance & Ownership")
			output.Printf("  Debt/Equity:     %s\n", FormatRatio(f.DebtToEquity))
			output.Printf("  Dividend Yield:  %.2f%%\n", f.DividendYield)
			output.Printf("  Short %% Float:   %.1f%%\n", f.ShortPercent)
			output.Printf("  Institutional:   %.1f%%\n", f.InstitutionalPct)
			if f.AnalystCount > 0 {
				output.Printf("  Analyst Target:  %s (%d analysts)\n", FormatUSD(f.TargetMeanPrice), f.AnalystCount)
			}
			output.Println()
			return nil
		},
	}
}

func newNewsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "news SYMBOL",
		Short: "Get recent news with sentiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			p, err := requireProvider(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			items, err := p.GetNewsSentiment(ctx, symbol, limit)
			if err != nil {
				return fmt.Errorf("fetching news for %s: %w", symbol, err)
			}

			if output.IsJSON() {
				return output.JSON(items)
			}

			if len(items) == 0 {
				output.Info("No recent news for %s", symbol)
				return nil
			}

			output.Println()
			output.Bold("News for %s", symbol)
			output.Println()
			for _, item := range items {
				score := FormatScore(item.SentimentScore)
				switch {
				case item.SentimentScore >= 0.15:
					score = output.Green(score)
				case item.SentimentScore <= -0.15:
					score = output.Red(score)
				default:
					score = output.DimText(score)
				}
				output.Printf("%s  %s\n", score, TruncateString(item.Title, 90))
				output.Dim("        %s · %s", item.Source, FormatTime(item.PublishedAt))
			}
			output.Println()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum articles to show")

	return cmd
}

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search for symbols by name or ticker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			query := strings.Join(args, " ")

			p, err := requireProvider(app)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			matches, err := p.SearchSymbols(ctx, query)
			if err != nil {
				return fmt.Errorf("searching %q: %w", query, err)
			}

			if output.IsJSON() {
				return output.JSON(matches)
			}

			if len(matches) == 0 {
				output.Info("No matches for %q", query)
				return nil
			}

			output.Println()
			table := NewTable(output, "Symbol", "Name", "Type", "Region", "Currency")
			for _, m := range matches {
				table.AddRow(
					output.BoldText(m.Symbol),
					TruncateString(m.Name, 40),
					m.Type,
					m.Region,
					m.Currency,
				)
			}
			table.Render()
			output.Println()
			return nil
		},
	}
}
