package cli

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/analysis/scoring"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/config"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/logging"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/portfolio"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/provider"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/store"
)

var (
	errNoProvider = errors.New("data provider not configured (check provider settings and credentials)")
	errNoStore    = errors.New("local store unavailable (check store.path in config)")
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Provider  provider.Provider
	Engine    *scoring.Engine
	Store     store.Store
	Portfolio *portfolio.Manager
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Engine: scoring.NewEngine(cfg.Analysis),
	}

	// Initialize the data provider with a caching layer
	base, err := provider.New(cfg.Provider, cfg.Credentials)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize data provider, market data commands unavailable")
	} else {
		switch p := base.(type) {
		case *provider.YahooProvider:
			base = p.WithLogger(logger)
		case *provider.AlphaVantageProvider:
			base = p.WithLogger(logger)
		}
		app.Provider = provider.Cached(base, provider.NewMemoryCache(), cfg.Cache.TTL()).WithLogger(logger)
		logger.Debug().Str("provider", base.Name()).Msg("Data provider initialized")
	}

	// Initialize SQLite store
	dataStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, portfolio and journal unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
	}

	if app.Store != nil && app.Provider != nil {
		app.Portfolio = portfolio.NewManager(app.Store, app.Provider)
	}

	rootCmd := &cobra.Command{
		Use:   "terminal",
		Short: "Trading Terminal - stock analysis and recommendation CLI",
		Long: `Trading Terminal is a stock market analysis CLI for US equities.

It fetches market data from Yahoo Finance or Alpha Vantage, computes
technical indicators, and scores stocks across trend, momentum, volume,
sentiment and fundamental dimensions to produce BUY, HOLD or SELL
recommendations. It also tracks a local portfolio and keeps a journal
of past recommendations.

Use 'terminal help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trading-terminal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	// Add all command groups
	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addMarketDataCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Trading Terminal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write template configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			configDir, _ := cmd.Flags().GetString("config")
			written, err := config.Init(configDir)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"written": written})
			}
			if len(written) == 0 {
				output.Info("Configuration files already exist, nothing written")
				return nil
			}
			for _, path := range written {
				output.Success("Created %s", path)
			}
			output.Dim("Edit credentials.toml to add your Alpha Vantage API key.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Provider Configuration")
	output.Printf("  Primary:         %s\n", cfg.Provider.Primary)
	output.Printf("  Timeout:         %ds\n", cfg.Provider.TimeoutSeconds)
	output.Printf("  Max Retries:     %d\n", cfg.Provider.MaxRetries)
	output.Printf("  Cache TTL:       %ds\n", cfg.Cache.TTLSeconds)
	output.Println()

	output.Bold("Analysis Configuration")
	w := cfg.Analysis.Weights
	output.Printf("  Weights:         trend %.2f / momentum %.2f / volume %.2f / sentiment %.2f / fundamental %.2f\n",
		w.Trend, w.Momentum, w.Volume, w.Sentiment, w.Fundamental)
	output.Printf("  Buy Threshold:   %+.2f\n", cfg.Analysis.BuyThreshold)
	output.Printf("  Sell Threshold:  %+.2f\n", cfg.Analysis.SellThreshold)
	output.Printf("  Strict Trend:    %v\n", cfg.Analysis.StrictTrend)
	ind := cfg.Analysis.Indicators
	output.Printf("  Trend SMAs:      %d/%d\n", ind.TrendFast, ind.TrendSlow)
	output.Printf("  RSI Period:      %d\n", ind.RSIPeriod)
	output.Printf("  MACD:            %d/%d/%d\n", ind.MACDFast, ind.MACDSlow, ind.MACDSignal)
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:            %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)

	return nil
}

// requireProvider returns the app's provider or an error when data
// provider initialization failed at startup.
func requireProvider(app *App) (provider.Provider, error) {
	if app.Provider == nil {
		return nil, errNoProvider
	}
	return app.Provider, nil
}

// requireStore returns the app's store or an error when the store
// failed to open at startup.
func requireStore(app *App) (store.Store, error) {
	if app.Store == nil {
		return nil, errNoStore
	}
	return app.Store, nil
}
