// Package config loads backtest-lab configuration from YAML with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config errors
var (
	ErrInvalidBalance     = errors.New("initial_balance must be positive")
	ErrInvalidVolatility  = errors.New("volatility must not be negative")
	ErrInvalidMaxDuration = errors.New("max_duration_days must be positive")
	ErrInvalidRateLimit   = errors.New("rate_limit must not be negative")
	ErrUnknownOracleKind  = errors.New("unknown oracle kind")
	ErrUnknownBackend     = errors.New("unknown archive backend")
)

// Oracle kinds
const (
	OracleHeuristic = "heuristic"
	OracleRandom    = "random"
	OracleHTTP      = "http"
)

// Archive backends
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQL    = "sql"   // postgres manifests + clickhouse points
	BackendLocal  = "local" // sqlite manifests + parquet points
)

// Config is the top-level configuration.
type Config struct {
	Backtest Backtest `yaml:"backtest"`
	Oracle   Oracle   `yaml:"oracle"`
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	Logging  Logging  `yaml:"logging"`
}

// Backtest holds price path and account parameters.
type Backtest struct {
	InitialBalance  float64            `yaml:"initial_balance"`
	Seed            uint64             `yaml:"seed"`
	StrategySeed    uint64             `yaml:"strategy_seed"`
	Drift           float64            `yaml:"drift"`
	Volatility      float64            `yaml:"volatility"`
	FallbackPrice   float64            `yaml:"fallback_price"`
	MaxDurationDays int                `yaml:"max_duration_days"`
	StartPrices     map[string]float64 `yaml:"start_prices"` // merged over the built-in table
}

// Oracle configures the signal oracle used by the "AI Oracle" strategy.
type Oracle struct {
	Kind          string        `yaml:"kind"`
	URL           string        `yaml:"url"`
	Timeout       time.Duration `yaml:"timeout"`
	Window        int           `yaml:"window"`
	MinConfidence float64       `yaml:"min_confidence"`
	BuyThreshold  float64       `yaml:"buy_threshold"`
	SellThreshold float64       `yaml:"sell_threshold"`
	Seed          uint64        `yaml:"seed"`
	MaxRetries    int           `yaml:"max_retries"`
}

// Server holds the HTTP listener configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst       int           `yaml:"rate_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Storage selects where generated price paths are archived.
type Storage struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	SQLitePath    string `yaml:"sqlite_path"`
	ParquetDir    string `yaml:"parquet_dir"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backtest: Backtest{
			InitialBalance:  10000,
			Seed:            42,
			StrategySeed:    42,
			Drift:           0.0002,
			Volatility:      0.02,
			FallbackPrice:   100,
			MaxDurationDays: 3650,
		},
		Oracle: Oracle{
			Kind:          OracleHeuristic,
			Timeout:       2 * time.Second,
			Window:        60,
			MinConfidence: 0.5,
			BuyThreshold:  0.02,
			SellThreshold: 0.02,
			Seed:          42,
		},
		Server: Server{
			Addr:            ":8080",
			RateLimit:       100,
			RateBurst:       200,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: Storage{
			Backend:    BackendNone,
			SQLitePath: "data/paths.db",
			ParquetDir: "data/paths",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides overrides fields from well-known environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BACKTEST_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BACKTEST_SEED: %w", err)
		}
		cfg.Backtest.Seed = seed
	}
	if v := os.Getenv("BACKTEST_INITIAL_BALANCE"); v != "" {
		balance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BACKTEST_INITIAL_BALANCE: %w", err)
		}
		cfg.Backtest.InitialBalance = balance
	}

	if v := os.Getenv("ORACLE_KIND"); v != "" {
		cfg.Oracle.Kind = v
	}
	if v := os.Getenv("ORACLE_URL"); v != "" {
		cfg.Oracle.URL = v
	}

	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("PARQUET_DIR"); v != "" {
		cfg.Storage.ParquetDir = v
	}

	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Backtest.InitialBalance <= 0 {
		return ErrInvalidBalance
	}
	if c.Backtest.Volatility < 0 {
		return ErrInvalidVolatility
	}
	if c.Backtest.MaxDurationDays <= 0 {
		return ErrInvalidMaxDuration
	}

	if c.Server.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	switch strings.ToLower(c.Oracle.Kind) {
	case OracleHeuristic, OracleRandom, OracleHTTP:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOracleKind, c.Oracle.Kind)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case BackendNone, BackendMemory, BackendSQL, BackendLocal:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}

	return nil
}

// LoadEnvFile loads environment variables from a dotenv file if it exists.
// Variables already set in the environment are not overridden.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}
