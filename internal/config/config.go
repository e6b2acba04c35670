// Package config loads the backtester configuration from a YAML file with
// environment variable overrides for credentials.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the backtester CLI.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// DatabaseConfig holds the historical bar store connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BacktestConfig holds the default run parameters.
type BacktestConfig struct {
	Symbol         string  `yaml:"symbol"`
	Interval       string  `yaml:"interval"`
	Start          string  `yaml:"start"` // RFC3339 or YYYY-MM-DD
	End            string  `yaml:"end"`
	Limit          int     `yaml:"limit"`
	InitialCapital float64 `yaml:"initial_capital"`
	RiskPerTrade   float64 `yaml:"risk_per_trade"`
	PeriodsPerYear int     `yaml:"periods_per_year"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Progress       bool    `yaml:"progress"`
	TradesCSV      string  `yaml:"trades_csv"`
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.RiskPerTrade <= 0 {
		cfg.Backtest.RiskPerTrade = 0.01
	}
	return cfg, nil
}
