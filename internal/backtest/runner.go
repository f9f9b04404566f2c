// Package backtest runs strategies against synthetic price paths.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/idhash"
	"backtest-lab/internal/metrics"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/oracle"
	"backtest-lab/internal/pricepath"
	"backtest-lab/internal/strategy"
)

// Input errors. Both wrap ErrInvalidInput.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidDuration = fmt.Errorf("%w: duration must be a positive whole number of days", ErrInvalidInput)
	ErrInvalidSymbol   = fmt.Errorf("%w: symbol must be 1-20 characters of A-Z, 0-9, '.', '_' or '-'", ErrInvalidInput)
)

// Runner defaults
const (
	DefaultInitialBalance  = 10000.0
	DefaultMaxDurationDays = 3650
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,20}$`)

// PathArchive stores generated price paths. Implemented by archive.Archive.
type PathArchive interface {
	// Save archives a path and returns its path ID.
	Save(ctx context.Context, symbol string, durationDays int, points []domain.PricePoint) (string, error)
}

// OracleFactory builds the oracle for one "AI Oracle" run.
type OracleFactory func(symbol string) (oracle.Oracle, error)

// Request names one backtest run.
type Request struct {
	Symbol       string
	Strategy     string
	DurationDays int
}

// Runner validates requests, generates the price path and runs the engine.
// A Runner is safe for concurrent use: every run builds its own strategy,
// account and random source.
type Runner struct {
	generator       *pricepath.Generator
	archive         PathArchive
	oracleFactory   OracleFactory
	strategyOpts    strategy.Options
	initialBalance  float64
	maxDurationDays int
	logger          zerolog.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Generator       *pricepath.Generator // nil → default generation parameters
	Archive         PathArchive          // optional
	OracleFactory   OracleFactory        // optional, nil → heuristic oracle
	StrategyOptions strategy.Options     // seed and oracle thresholds
	InitialBalance  float64
	MaxDurationDays int
	Logger          zerolog.Logger
}

// NewRunner creates a backtest runner.
func NewRunner(opts RunnerOptions) *Runner {
	gen := opts.Generator
	if gen == nil {
		gen = pricepath.NewGenerator(pricepath.DefaultOptions())
	}
	balance := opts.InitialBalance
	if balance <= 0 {
		balance = DefaultInitialBalance
	}
	maxDays := opts.MaxDurationDays
	if maxDays <= 0 {
		maxDays = DefaultMaxDurationDays
	}

	return &Runner{
		generator:       gen,
		archive:         opts.Archive,
		oracleFactory:   opts.OracleFactory,
		strategyOpts:    opts.StrategyOptions,
		initialBalance:  balance,
		maxDurationDays: maxDays,
		logger:          opts.Logger,
	}
}

// RunOption customizes a single Run call.
type RunOption func(*runConfig)

type runConfig struct {
	observer TradeObserver
}

// WithTradeObserver streams each trade of the run to fn as it is recorded.
func WithTradeObserver(fn TradeObserver) RunOption {
	return func(c *runConfig) {
		c.observer = fn
	}
}

// ParseDuration converts raw duration input to a number of days.
// Non-numeric or non-positive input returns ErrInvalidDuration.
func ParseDuration(raw string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	return days, nil
}

// Validate checks a request and returns it with the symbol upper-cased.
func (r *Runner) Validate(req Request) (Request, error) {
	symbol := strings.TrimSpace(req.Symbol)
	if !symbolPattern.MatchString(symbol) {
		return req, fmt.Errorf("%w: %q", ErrInvalidSymbol, req.Symbol)
	}
	if req.DurationDays <= 0 || req.DurationDays > r.maxDurationDays {
		return req, fmt.Errorf("%w: %d (max %d)", ErrInvalidDuration, req.DurationDays, r.maxDurationDays)
	}
	req.Symbol = strings.ToUpper(symbol)
	return req, nil
}

// Run executes one backtest.
// Steps:
//  1. Validate symbol and duration (InputError before any work)
//  2. Generate the price path
//  3. Archive the path if an archive is configured (failures only logged)
//  4. Build the strategy by name, unknown names hold
//  5. Run the engine
//  6. Compute metrics and assemble the result
func (r *Runner) Run(ctx context.Context, req Request, opts ...RunOption) (*domain.BacktestResult, error) {
	// 1. Validate
	req, err := r.Validate(req)
	if err != nil {
		return nil, err
	}

	var rc runConfig
	for _, opt := range opts {
		opt(&rc)
	}

	started := time.Now()
	log := r.logger.With().
		Str("run_id", idhash.NewRunID()).
		Str("symbol", req.Symbol).
		Str("strategy", req.Strategy).
		Int("duration_days", req.DurationDays).
		Logger()

	// 2. Generate
	points := r.generator.Generate(req.Symbol, req.DurationDays)
	observability.RecordPathGenerated(len(points))

	// 3. Archive
	if r.archive != nil {
		pathID, err := r.archive.Save(ctx, req.Symbol, req.DurationDays, points)
		if err != nil {
			log.Warn().Err(err).Msg("archive price path")
		} else {
			log = log.With().Str("path_id", pathID).Logger()
		}
	}

	// 4. Strategy
	strat := r.buildStrategy(req, log)

	// 5-6. Engine and metrics
	result, outcome, err := simulate(ctx, req.Symbol, strat, r.initialBalance, points, rc.observer)
	if err != nil {
		observability.RecordRun(strat.Name(), "error", time.Since(started).Seconds())
		return nil, fmt.Errorf("backtest symbol=%s strategy=%q duration=%dd: %w",
			req.Symbol, req.Strategy, req.DurationDays, err)
	}

	if outcome.Degenerate {
		observability.RecordDegenerateRun()
		log.Warn().Int("points", len(points)).Msg("price series too short to trade")
	}

	observability.RecordRun(strat.Name(), "ok", time.Since(started).Seconds())
	log.Info().
		Int("trades", result.TradeCount).
		Float64("final_balance", result.FinalBalance).
		Float64("roi", result.ROI).
		Dur("elapsed", time.Since(started)).
		Msg("backtest complete")

	return result, nil
}

// RunAll runs every recognized strategy on the same path.
// Results are returned in strategy.Names order.
func (r *Runner) RunAll(ctx context.Context, symbol string, durationDays int) ([]*domain.BacktestResult, error) {
	names := strategy.Names()
	results := make([]*domain.BacktestResult, 0, len(names))
	for _, name := range names {
		res, err := r.Run(ctx, Request{Symbol: symbol, Strategy: name, DurationDays: durationDays})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// buildStrategy resolves the strategy for a run. The oracle is built per run
// so its symbol and random state never leak between runs.
func (r *Runner) buildStrategy(req Request, log zerolog.Logger) strategy.Strategy {
	opts := r.strategyOpts
	if name, _ := strategy.Canonical(req.Strategy); name == strategy.NameAIOracle && r.oracleFactory != nil {
		o, err := r.oracleFactory(req.Symbol)
		if err != nil {
			log.Warn().Err(err).Msg("build oracle, using heuristic")
		} else {
			opts.Oracle = o
		}
	}
	return strategy.FromName(req.Strategy, opts)
}

// Simulate runs strat over points and computes the result.
// It performs no validation, generation or archiving.
func Simulate(ctx context.Context, symbol string, strat strategy.Strategy, initialBalance float64, points []domain.PricePoint) (*domain.BacktestResult, error) {
	result, _, err := simulate(ctx, symbol, strat, initialBalance, points, nil)
	return result, err
}

func simulate(
	ctx context.Context,
	symbol string,
	strat strategy.Strategy,
	initialBalance float64,
	points []domain.PricePoint,
	observer TradeObserver,
) (*domain.BacktestResult, *Outcome, error) {
	outcome, err := NewEngine(strat, initialBalance).WithTradeObserver(observer).Run(ctx, points)
	if err != nil {
		return nil, nil, err
	}

	summary := metrics.Compute(initialBalance, outcome.FinalBalance, outcome.Trades)
	result := domain.NewBacktestResult(
		symbol, strat.Name(),
		initialBalance, outcome.FinalBalance,
		summary.ROI, summary.WinRate, summary.MaxDrawdown, summary.SharpeRatio,
		outcome.Trades,
	)
	return result, outcome, nil
}
