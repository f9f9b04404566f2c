// Package app wires configuration into the runner, archive and oracle
// shared by the command-line tools and the server.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"backtest-lab/internal/archive"
	"backtest-lab/internal/backtest"
	"backtest-lab/internal/config"
	"backtest-lab/internal/logging"
	"backtest-lab/internal/oracle"
	"backtest-lab/internal/pricepath"
	"backtest-lab/internal/strategy"
)

// App holds the wired components.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Generator *pricepath.Generator
	Archive   *archive.Archive // nil when archiving is disabled
	Runner    *backtest.Runner
}

// Build validates cfg and wires the components. The returned cleanup func
// releases storage connections and is never nil.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, func(), error) {
	noop := func() {}

	if err := cfg.Validate(); err != nil {
		return nil, noop, fmt.Errorf("invalid config: %w", err)
	}

	gen := pricepath.NewGenerator(GeneratorOptions(cfg.Backtest))

	storageCfg := cfg.Storage
	storageCfg.Backend = strings.ToLower(storageCfg.Backend)
	arch, cleanup, err := archive.Open(ctx, storageCfg, gen)
	if err != nil {
		return nil, noop, fmt.Errorf("open archive: %w", err)
	}

	opts := backtest.RunnerOptions{
		Generator:       gen,
		OracleFactory:   OracleFactory(cfg.Oracle, logging.Component(logger, "oracle")),
		StrategyOptions: StrategyOptions(cfg),
		InitialBalance:  cfg.Backtest.InitialBalance,
		MaxDurationDays: cfg.Backtest.MaxDurationDays,
		Logger:          logging.Component(logger, "backtest"),
	}
	// A nil *Archive must not become a non-nil interface.
	if arch != nil {
		opts.Archive = arch
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Generator: gen,
		Archive:   arch,
		Runner:    backtest.NewRunner(opts),
	}, cleanup, nil
}

// GeneratorOptions maps backtest config to generation parameters.
func GeneratorOptions(b config.Backtest) pricepath.Options {
	return pricepath.Options{
		Seed:          b.Seed,
		Drift:         b.Drift,
		Volatility:    b.Volatility,
		FallbackPrice: b.FallbackPrice,
		StartPrices:   b.StartPrices,
	}
}

// StrategyOptions maps config to strategy construction options.
func StrategyOptions(cfg *config.Config) strategy.Options {
	return strategy.Options{
		Seed:          cfg.Backtest.StrategySeed,
		OracleWindow:  cfg.Oracle.Window,
		MinConfidence: cfg.Oracle.MinConfidence,
		BuyThreshold:  cfg.Oracle.BuyThreshold,
		SellThreshold: cfg.Oracle.SellThreshold,
	}
}

// OracleFactory builds a fresh oracle of the configured kind for each run.
func OracleFactory(o config.Oracle, logger zerolog.Logger) backtest.OracleFactory {
	return func(symbol string) (oracle.Oracle, error) {
		return oracle.New(o.Kind, oracle.Options{
			URL:        o.URL,
			Symbol:     symbol,
			Seed:       o.Seed,
			Timeout:    o.Timeout,
			MaxRetries: o.MaxRetries,
			Logger:     logger,
		})
	}
}

// NewLogger builds the application logger for a binary writing to w.
func NewLogger(l config.Logging, service string, w io.Writer) zerolog.Logger {
	return logging.New(logging.Options{Level: l.Level, Format: l.Format, Writer: w, Service: service})
}
