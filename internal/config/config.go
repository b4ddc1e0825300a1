// Package config provides configuration management for the trading terminal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Provider    ProviderConfig `mapstructure:"provider"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Analysis    AnalysisConfig `mapstructure:"analysis"`
	Store       StoreConfig    `mapstructure:"store"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	UI          UIConfig       `mapstructure:"ui"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// ProviderConfig holds upstream data provider configuration.
type ProviderConfig struct {
	Primary        string             `mapstructure:"primary"` // "yahoo", "alphavantage"
	TimeoutSeconds int                `mapstructure:"timeout_seconds"`
	MaxRetries     int                `mapstructure:"max_retries"`
	RetryBackoffMS int                `mapstructure:"retry_backoff_ms"`
	Yahoo          YahooConfig        `mapstructure:"yahoo"`
	AlphaVantage   AlphaVantageConfig `mapstructure:"alphavantage"`
}

// YahooConfig holds Yahoo backend configuration.
type YahooConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// AlphaVantageConfig holds AlphaVantage backend configuration.
type AlphaVantageConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Timeout returns the per-request upstream timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the initial retry backoff interval.
func (p ProviderConfig) RetryBackoff() time.Duration {
	return time.Duration(p.RetryBackoffMS) * time.Millisecond
}

// CacheConfig holds the provider cache configuration.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// TTL returns the cache entry time-to-live.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// AnalysisConfig holds the analysis engine's weights, thresholds and
// indicator parameters. These are deliberate policy knobs, not internals;
// the engine reads them instead of embedding literals.
type AnalysisConfig struct {
	Weights       WeightConfig    `mapstructure:"weights"`
	BuyThreshold  float64         `mapstructure:"buy_threshold"`  // composite >= this => BUY
	SellThreshold float64         `mapstructure:"sell_threshold"` // composite <= this => SELL
	StrictTrend   bool            `mapstructure:"strict_trend"`   // fail instead of shortening trend windows
	Indicators    IndicatorConfig `mapstructure:"indicators"`
}

// WeightConfig holds the per-dimension weights of the composite score.
type WeightConfig struct {
	Trend       float64 `mapstructure:"trend"`
	Momentum    float64 `mapstructure:"momentum"`
	Volume      float64 `mapstructure:"volume"`
	Sentiment   float64 `mapstructure:"sentiment"`
	Fundamental float64 `mapstructure:"fundamental"`
}

// Total returns the sum of all dimension weights.
func (w WeightConfig) Total() float64 {
	return w.Trend + w.Momentum + w.Volume + w.Sentiment + w.Fundamental
}

// IndicatorConfig holds indicator window parameters.
type IndicatorConfig struct {
	RSIPeriod       int     `mapstructure:"rsi_period"`
	MACDFast        int     `mapstructure:"macd_fast"`
	MACDSlow        int     `mapstructure:"macd_slow"`
	MACDSignal      int     `mapstructure:"macd_signal"`
	BollingerWindow int     `mapstructure:"bollinger_window"`
	BollingerK      float64 `mapstructure:"bollinger_k"`
	VolumeWindow    int     `mapstructure:"volume_window"`
	TrendFast       int     `mapstructure:"trend_fast"`
	TrendSlow       int     `mapstructure:"trend_slow"`
	LevelTolerance  float64 `mapstructure:"level_tolerance"` // cluster width as fraction of price
	LevelStrength   int     `mapstructure:"level_strength"`  // pivot neighbor count
	LevelMinTouches int     `mapstructure:"level_min_touches"`
}

// DefaultAnalysisConfig returns the shipped analysis defaults, for
// callers constructing an engine without going through Load.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Weights: WeightConfig{
			Trend:       0.35,
			Momentum:    0.25,
			Volume:      0.15,
			Sentiment:   0.10,
			Fundamental: 0.15,
		},
		BuyThreshold:  0.30,
		SellThreshold: -0.30,
		Indicators: IndicatorConfig{
			RSIPeriod:       14,
			MACDFast:        12,
			MACDSlow:        26,
			MACDSignal:      9,
			BollingerWindow: 20,
			BollingerK:      2.0,
			VolumeWindow:    20,
			TrendFast:       50,
			TrendSlow:       200,
			LevelTolerance:  0.005,
			LevelStrength:   3,
			LevelMinTouches: 2,
		},
	}
}

// StoreConfig holds the local store configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds output formatting configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	AlphaVantage AlphaVantageCredentials `mapstructure:"alphavantage"`
}

// AlphaVantageCredentials holds the AlphaVantage API key.
type AlphaVantageCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trading-terminal"
	}
	return filepath.Join(home, ".config", "trading-terminal")
}

// Default returns the shipped defaults without reading any files.
// Environment overrides still apply.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	// Load main config
	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.primary", "yahoo")
	v.SetDefault("provider.timeout_seconds", 10)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.retry_backoff_ms", 500)
	v.SetDefault("provider.yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.alphavantage.base_url", "https://www.alphavantage.co")

	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("analysis.buy_threshold", 0.30)
	v.SetDefault("analysis.sell_threshold", -0.30)
	v.SetDefault("analysis.strict_trend", false)
	v.SetDefault("analysis.weights.trend", 0.35)
	v.SetDefault("analysis.weights.momentum", 0.25)
	v.SetDefault("analysis.weights.volume", 0.15)
	v.SetDefault("analysis.weights.sentiment", 0.10)
	v.SetDefault("analysis.weights.fundamental", 0.15)
	v.SetDefault("analysis.indicators.rsi_period", 14)
	v.SetDefault("analysis.indicators.macd_fast", 12)
	v.SetDefault("analysis.indicators.macd_slow", 26)
	v.SetDefault("analysis.indicators.macd_signal", 9)
	v.SetDefault("analysis.indicators.bollinger_window", 20)
	v.SetDefault("analysis.indicators.bollinger_k", 2.0)
	v.SetDefault("analysis.indicators.volume_window", 20)
	v.SetDefault("analysis.indicators.trend_fast", 50)
	v.SetDefault("analysis.indicators.trend_slow", 200)
	v.SetDefault("analysis.indicators.level_tolerance", 0.005)
	v.SetDefault("analysis.indicators.level_strength", 3)
	v.SetDefault("analysis.indicators.level_min_touches", 2)

	v.SetDefault("store.path", filepath.Join(DefaultConfigDir(), "terminal.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(DefaultConfigDir(), "logs", "terminal.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Credentials.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("TERMINAL_DATA_PROVIDER"); v != "" {
		cfg.Provider.Primary = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Provider.Primary {
	case "yahoo", "alphavantage", "mock":
	default:
		return fmt.Errorf("invalid provider: %s (must be 'yahoo', 'alphavantage' or 'mock')", c.Provider.Primary)
	}
	if c.Provider.TimeoutSeconds <= 0 {
		return fmt.Errorf("provider timeout_seconds must be positive")
	}
	if c.Provider.MaxRetries < 0 {
		return fmt.Errorf("provider max_retries must be non-negative")
	}

	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl_seconds must be positive")
	}

	w := c.Analysis.Weights
	for name, weight := range map[string]float64{
		"trend":       w.Trend,
		"momentum":    w.Momentum,
		"volume":      w.Volume,
		"sentiment":   w.Sentiment,
		"fundamental": w.Fundamental,
	} {
		if weight < 0 {
			return fmt.Errorf("analysis weight %s must be non-negative", name)
		}
	}
	if w.Total() <= 0 {
		return fmt.Errorf("analysis weights must sum to a positive value")
	}

	if c.Analysis.BuyThreshold <= 0 || c.Analysis.BuyThreshold > 1 {
		return fmt.Errorf("buy_threshold must be in (0, 1]")
	}
	if c.Analysis.SellThreshold >= 0 || c.Analysis.SellThreshold < -1 {
		return fmt.Errorf("sell_threshold must be in [-1, 0)")
	}

	ind := c.Analysis.Indicators
	if ind.RSIPeriod < 2 {
		return fmt.Errorf("rsi_period must be at least 2")
	}
	if ind.MACDFast <= 0 || ind.MACDSlow <= ind.MACDFast || ind.MACDSignal <= 0 {
		return fmt.Errorf("macd periods must satisfy 0 < fast < slow and signal > 0")
	}
	if ind.BollingerWindow < 2 || ind.BollingerK <= 0 {
		return fmt.Errorf("bollinger_window must be at least 2 and bollinger_k positive")
	}
	if ind.VolumeWindow < 1 {
		return fmt.Errorf("volume_window must be positive")
	}
	if ind.TrendFast <= 0 || ind.TrendSlow <= ind.TrendFast {
		return fmt.Errorf("trend windows must satisfy 0 < fast < slow")
	}
	if ind.LevelTolerance <= 0 || ind.LevelTolerance >= 0.1 {
		return fmt.Errorf("level_tolerance must be in (0, 0.1)")
	}

	return nil
}
