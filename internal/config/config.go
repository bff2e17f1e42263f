package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MARKETDASH_DATA_PROVIDER.
const EnvPrefix = "MARKETDASH"

// Providers are the accepted data_source.provider values.
var Providers = []string{"yahoo", "alpaca", "mock"}

// Config holds all application configuration.
//
// Environment keys are derived from field names under EnvPrefix and the
// section tag, e.g. MARKETDASH_CACHE_FALLBACK_SYMBOL. Leaf fields carry no
// explicit envconfig name so unprefixed variables are never consulted.
type Config struct {
	DataSource struct {
		Provider     string `yaml:"provider" toml:"provider" split_words:"true"`
		AlpacaKey    string `yaml:"alpaca_key" toml:"alpaca_key" split_words:"true"`
		AlpacaSecret string `yaml:"alpaca_secret" toml:"alpaca_secret" split_words:"true"`
		Proxy        string `yaml:"proxy" toml:"proxy" split_words:"true"`
	} `yaml:"data_source" toml:"data_source" envconfig:"DATA"`
	Cache struct {
		Capacity       int    `yaml:"capacity" toml:"capacity" split_words:"true"`
		FallbackSymbol string `yaml:"fallback_symbol" toml:"fallback_symbol" split_words:"true"`
	} `yaml:"cache" toml:"cache" envconfig:"CACHE"`
	Indicators struct {
		Periods          int     `yaml:"periods" toml:"periods" split_words:"true"`
		Std              float64 `yaml:"std" toml:"std" split_words:"true"`
		StochasticWindow int     `yaml:"stochastic_window" toml:"stochastic_window" split_words:"true"`
	} `yaml:"indicators" toml:"indicators" envconfig:"INDICATOR"`
	TableSymbols []string `yaml:"table_symbols" toml:"table_symbols" split_words:"true"`
	Watchlist    []string `yaml:"watchlist" toml:"watchlist" split_words:"true"`
	Schedule     struct {
		RefreshCron string `yaml:"refresh_cron" toml:"refresh_cron" split_words:"true"`
		TableCron   string `yaml:"table_cron" toml:"table_cron" split_words:"true"`
		RunOnStart  bool   `yaml:"run_on_start" toml:"run_on_start" split_words:"true"`
	} `yaml:"schedule" toml:"schedule" envconfig:"SCHEDULE"`
	Database struct {
		Path string `yaml:"path" toml:"path" split_words:"true"`
	} `yaml:"database" toml:"database" envconfig:"DB"`
	Log struct {
		Level  string `yaml:"level" toml:"level" split_words:"true"`
		Format string `yaml:"format" toml:"format" split_words:"true"`
	} `yaml:"log" toml:"log" envconfig:"LOG"`
	Metrics struct {
		Namespace string `yaml:"namespace" toml:"namespace" split_words:"true"`
		Addr      string `yaml:"addr" toml:"addr" split_words:"true"`
	} `yaml:"metrics" toml:"metrics" envconfig:"METRICS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource.Provider = "yahoo"
	cfg.Cache.Capacity = 32
	cfg.Cache.FallbackSymbol = "AAPL"
	cfg.Indicators.Periods = 10
	cfg.Indicators.Std = 5
	cfg.Indicators.StochasticWindow = 5
	cfg.TableSymbols = []string{"AAPL", "GOOGL", "YHOO", "TSLA", "COKE"}
	cfg.Watchlist = []string{"AAPL"}
	cfg.Schedule.RefreshCron = "0 */15 * * * 1-5"
	cfg.Schedule.TableCron = "0 0 * * * 1-5"
	cfg.Database.Path = "data/marketdash.db"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Metrics.Namespace = "marketdash"
	return cfg
}

// Load builds the configuration in layers: defaults, then the config file
// (YAML, or TOML for a .toml extension; a missing file is skipped), then
// dotenv files (".env" when none are given; missing ones are skipped), then
// MARKETDASH_* environment variables.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "alpaca":
		if c.DataSource.AlpacaKey == "" || c.DataSource.AlpacaSecret == "" {
			return fmt.Errorf("data_source.alpaca_key and alpaca_secret are required for provider alpaca")
		}
	default:
		return fmt.Errorf("data_source.provider must be one of %s, got %q", strings.Join(Providers, ", "), c.DataSource.Provider)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if strings.TrimSpace(c.Cache.FallbackSymbol) == "" {
		return fmt.Errorf("cache.fallback_symbol is required")
	}
	if c.Indicators.Periods < 2 {
		return fmt.Errorf("indicators.periods must be >= 2")
	}
	if c.Indicators.Std <= 0 || math.IsInf(c.Indicators.Std, 0) || math.IsNaN(c.Indicators.Std) {
		return fmt.Errorf("indicators.std must be a positive finite number")
	}
	if c.Indicators.StochasticWindow < 1 {
		return fmt.Errorf("indicators.stochastic_window must be positive")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	if _, err := parser.Parse(c.Schedule.TableCron); err != nil {
		return fmt.Errorf("schedule.table_cron: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
