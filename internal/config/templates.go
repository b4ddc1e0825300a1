package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trading Terminal Configuration

[provider]
# Primary data provider: "yahoo" or "alphavantage"
primary = "yahoo"
# Per-request upstream timeout in seconds
timeout_seconds = 10
# Retry attempts for transient upstream failures
max_retries = 3
# Initial retry backoff in milliseconds (doubles per attempt)
retry_backoff_ms = 500

[provider.yahoo]
base_url = "https://query1.finance.yahoo.com"

[provider.alphavantage]
base_url = "https://www.alphavantage.co"

[cache]
# Provider response cache time-to-live in seconds
ttl_seconds = 300

[analysis]
# Composite score at or above this triggers BUY
buy_threshold = 0.30
# Composite score at or below this triggers SELL
sell_threshold = -0.30
# When true, short history fails instead of shortening the trend windows
strict_trend = false

[analysis.weights]
trend = 0.35
momentum = 0.25
volume = 0.15
sentiment = 0.10
fundamental = 0.15

[analysis.indicators]
rsi_period = 14
macd_fast = 12
macd_slow = 26
macd_signal = 9
bollinger_window = 20
bollinger_k = 2.0
volume_window = 20
trend_fast = 50
trend_slow = 200
# Support/resistance cluster width as a fraction of price (0.005 = 0.5%)
level_tolerance = 0.005
level_strength = 3
level_min_touches = 2

[store]
# SQLite database for portfolio positions and the analysis journal
# path = "~/.config/trading-terminal/terminal.db"

[logging]
level = "info"
console = true
file = true
max_size = 100
max_backups = 7
max_age = 30

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"
`

const credentialsTemplate = `# Trading Terminal Credentials
# WARNING: Keep this file secure! Do not commit to version control.
# The ALPHAVANTAGE_API_KEY environment variable overrides this file.

[alphavantage]
api_key = ""
`

// Init writes template config and credentials files into configDir,
// skipping any file that already exists. It returns the paths written.
func Init(configDir string) ([]string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	var written []string
	for _, f := range []struct {
		name     string
		contents string
		perm     os.FileMode
	}{
		{"config.toml", configTemplate, 0644},
		{"credentials.toml", credentialsTemplate, 0600},
	} {
		path := filepath.Join(configDir, f.name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(f.contents), f.perm); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return fmt.Errorf("credentials file not found, created template at %s", path)
}
