package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis/scoring"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/logging"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/provider"
	"github.com/batman-haker/Professional-Trading-Terminal/pkg/utils"
)

// addAnalysisCommands adds the analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		dataRange     string
		resolution    string
		fundamentals  bool
		noSentiment   bool
		recordJournal bool
	)

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze a stock and produce a recommendation",
		Long: `Analyze fetches price history, fundamentals and news sentiment for a
symbol, computes technical indicators, and scores the stock across
trend, momentum, volume, sentiment and fundamental dimensions to
produce a BUY, HOLD or SELL recommendation with confidence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			if _, err := requireProvider(app); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			logger := logging.WithSymbol(app.Logger, symbol)
			input, warnings, err := fetchAnalysisInput(ctx, app, symbol, fetchOptions{
				Range:               dataRange,
				Resolution:          models.Resolution(resolution),
				RequireFundamentals: fundamentals,
				SkipSentiment:       noSentiment,
			})
			if err != nil {
				return err
			}

			report, err := app.Engine.Analyze(ctx, input)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", symbol, err)
			}
			logging.LogRecommendation(logger, symbol, string(report.Action), report.Composite, report.Confidence)

			if recordJournal {
				if st, err := requireStore(app); err == nil {
					rec := &models.AnalysisRecord{
						Symbol:     symbol,
						Action:     string(report.Action),
						Composite:  report.Composite,
						Confidence: report.Confidence,
						Rationale:  report.Rationale,
					}
					if err := st.SaveAnalysis(ctx, rec); err != nil {
						logger.Warn().Err(err).Msg("Failed to record analysis in journal")
					}
				} else {
					logger.Warn().Msg("Journal unavailable, analysis not recorded")
				}
			}

			if output.IsJSON() {
				return output.JSON(report)
			}
			for _, w := range warnings {
				output.Warning("⚠  %s", w)
			}
			displayReport(output, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRange, "range", "1y", "history range (1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max)")
	cmd.Flags().StringVar(&resolution, "resolution", "1d", "bar interval (1m 5m 15m 30m 60m 1d)")
	cmd.Flags().BoolVar(&fundamentals, "fundamentals", false, "fail when fundamentals are unavailable instead of scoring without them")
	cmd.Flags().BoolVar(&noSentiment, "no-sentiment", false, "skip the news sentiment dimension")
	cmd.Flags().BoolVar(&recordJournal, "record", false, "record the recommendation in the journal")

	return cmd
}

func newScanCmd(app *App) *cobra.Command {
	var (
		dataRange   string
		resolution  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "scan SYMBOL [SYMBOL...]",
		Short: "Analyze several stocks and rank them by score",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if _, err := requireProvider(app); err != nil {
				return err
			}

			symbols := make([]string, len(args))
			for i, a := range args {
				symbols[i] = strings.ToUpper(a)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			fetch := func(ctx context.Context, symbol string) (scoring.Input, error) {
				input, _, err := fetchAnalysisInput(ctx, app, symbol, fetchOptions{
					Range:      dataRange,
					Resolution: models.Resolution(resolution),
				})
				return input, err
			}

			results := app.Engine.AnalyzeMany(ctx, symbols, fetch, concurrency)

			if output.IsJSON() {
				return output.JSON(results)
			}
			displayScanResults(output, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRange, "range", "1y", "history range (1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max)")
	cmd.Flags().StringVar(&resolution, "resolution", "1d", "bar interval (1m 5m 15m 30m 60m 1d)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "symbols analyzed in parallel")

	return cmd
}

// fetchOptions controls which inputs fetchAnalysisInput assembles.
type fetchOptions struct {
	Range               string
	Resolution          models.Resolution
	RequireFundamentals bool
	SkipSentiment       bool
}

// fetchAnalysisInput gathers price history, fundamentals and news
// sentiment for one symbol. History is mandatory; the other inputs are
// best effort and their absence is reported as warnings so the engine
// can degrade confidence instead of failing.
func fetchAnalysisInput(ctx context.Context, app *App, symbol string, opts fetchOptions) (scoring.Input, []string, error) {
	var warnings []string

	series, err := app.Provider.GetHistory(ctx, provider.HistoryRequest{
		Symbol:     symbol,
		Resolution: opts.Resolution,
		Range:      opts.Range,
	})
	if err != nil {
		return scoring.Input{}, nil, fmt.Errorf("fetching history for %s: %w", symbol, err)
	}

	input := scoring.Input{
		Series:              series,
		RequireFundamentals: opts.RequireFundamentals,
	}

	funds, err := app.Provider.GetFundamentals(ctx, symbol)
	if err != nil {
		if opts.RequireFundamentals {
			return scoring.Input{}, nil, fmt.Errorf("fetching fundamentals for %s: %w", symbol, err)
		}
		warnings = append(warnings, fmt.Sprintf("fundamentals unavailable: %v", err))
	} else {
		input.Fundamentals = funds
	}

	if !opts.SkipSentiment {
		news, err := app.Provider.GetNewsSentiment(ctx, symbol, 50)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("news sentiment unavailable: %v", err))
		} else {
			input.Sentiment = scoring.BuildSentimentSnapshot(symbol, news)
		}
	}

	return input, warnings, nil
}

func displayReport(output *Output, report *analysis.Report) {
	output.Println()
	output.Bold("═══ %s ═══", report.Symbol)
	output.Printf("Market: %s    Generated: %s\n",
		output.MarketStatus(utils.GetMarketStatus()), FormatTime(report.GeneratedAt))
	output.Println()

	output.Printf("Recommendation: %s\n", output.Action(report.Action))
	output.Printf("Composite:      %s\n", FormatScore(report.Composite))
	output.Printf("Confidence:     %.0f%%\n", report.Confidence*100)
	if report.Completeness < 1 {
		output.Dim("Data coverage:  %.0f%% of dimension weight had data", report.Completeness*100)
	}
	output.Println()

	output.Bold("Dimension Scores")
	table := NewTable(output, "Dimension", "Score", "Weight", "Weighted", "Signal")
	for _, s := range report.Scores {
		score, weighted := "-", "-"
		if s.Available {
			score = FormatScore(s.Value)
			weighted = FormatScore(s.Weighted)
		}
		table.AddRow(string(s.Dimension), score, fmt.Sprintf("%.2f", s.Weight), weighted, s.Label)
	}
	table.Render()
	output.Println()

	if len(report.Rationale) > 0 {
		output.Bold("Rationale")
		for _, line := range report.Rationale {
			output.Printf("  • %s\n", line)
		}
		output.Println()
	}

	if len(report.Strengths) > 0 {
		output.Bold("Strengths")
		for _, line := range report.Strengths {
			output.Printf("  %s %s\n", output.Green("+"), line)
		}
		output.Println()
	}
	if len(report.Warnings) > 0 {
		output.Bold("Warnings")
		for _, line := range report.Warnings {
			output.Printf("  %s %s\n", output.Yellow("!"), line)
		}
		output.Println()
	}

	displaySnapshot(output, report.Snapshot)

	if len(report.Levels) > 0 {
		output.Bold("Key Levels")
		table := NewTable(output, "Type", "Price", "Touches", "Source")
		for _, lvl := range report.Levels {
			name := string(lvl.Type)
			if lvl.Type == analysis.LevelSupport {
				name = output.Green(name)
			} else {
				name = output.Red(name)
			}
			table.AddRow(name, FormatUSD(lvl.Price), fmt.Sprintf("%d", lvl.TouchCount), lvl.Source)
		}
		table.Render()
		output.Println()
	}
}

func displaySnapshot(output *Output, snap analysis.IndicatorSnapshot) {
	output.Bold("Indicators")
	output.Printf("  Close:       %s\n", FormatUSD(snap.Close))
	output.Printf("  RSI:         %.1f\n", snap.RSI)
	output.Printf("  MACD:        %.3f (signal %.3f, hist %.3f)\n", snap.MACD, snap.MACDSignal, snap.MACDHist)
	output.Printf("  SMA %d/%d:  %s / %s\n", snap.FastWindow, snap.SlowWindow,
		FormatUSD(snap.SMAFast), FormatUSD(snap.SMASlow))
	output.Printf("  Bollinger:   %s / %s / %s\n",
		FormatUSD(snap.BollLower), FormatUSD(snap.BollMiddle), FormatUSD(snap.BollUpper))
	output.Printf("  Rel Volume:  %.2fx\n", snap.VolumeRatio)
	output.Println()
}

func displayScanResults(output *Output, results []scoring.BatchResult) {
	output.Println()
	table := NewTable(output, "Symbol", "Action", "Composite", "Confidence", "Top Signal")
	for _, r := range results {
		if r.Err != nil {
			table.AddRow(r.Symbol, output.Red("ERROR"), "-", "-", TruncateString(r.Err.Error(), 60))
			continue
		}
		top := ""
		if len(r.Report.Rationale) > 0 {
			top = TruncateString(r.Report.Rationale[0], 60)
		}
		table.AddRow(
			r.Symbol,
			output.Action(r.Report.Action),
			FormatScore(r.Report.Composite),
			fmt.Sprintf("%.0f%%", r.Report.Confidence*100),
			top,
		)
	}
	table.Render()
	output.Println()
}
