package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/store"
)

// addJournalCommands adds the analysis journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	var (
		symbol string
		action string
		since  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show past recommendations",
		Long: `Journal lists recommendations recorded with 'analyze --record',
most recent first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := requireStore(app)
			if err != nil {
				return err
			}

			filter := store.AnalysisFilter{
				Symbol: strings.ToUpper(symbol),
				Action: strings.ToUpper(action),
				Limit:  limit,
			}
			if since != "" {
				start, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", since, err)
				}
				filter.StartDate = start
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			records, err := st.GetAnalyses(ctx, filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}

			if len(records) == 0 {
				output.Info("No journal entries. Use 'terminal analyze SYMBOL --record' to add one.")
				return nil
			}

			output.Println()
			table := NewTable(output, "Date", "Symbol", "Action", "Composite", "Confidence", "Top Signal")
			for _, rec := range records {
				top := ""
				if len(rec.Rationale) > 0 {
					top = TruncateString(rec.Rationale[0], 55)
				}
				table.AddRow(
					FormatDate(rec.CreatedAt),
					output.BoldText(rec.Symbol),
					output.Action(analysis.Action(rec.Action)),
					FormatScore(rec.Composite),
					fmt.Sprintf("%.0f%%", rec.Confidence*100),
					top,
				)
			}
			table.Render()
			output.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&action, "action", "", "filter by action (BUY, HOLD, SELL)")
	cmd.Flags().StringVar(&since, "since", "", "only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")

	rootCmd.AddCommand(cmd)
}
