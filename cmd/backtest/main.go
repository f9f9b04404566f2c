// Command backtest runs one strategy (or all of them with --compare) over a
// synthetic price path and prints the result.
//
// Usage:
//
//	backtest [flags] [SYMBOL STRATEGY DAYS]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"backtest-lab/internal/app"
	"backtest-lab/internal/backtest"
	"backtest-lab/internal/config"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/reporting"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitInput = 2
)

// Output formats
const (
	formatJSON     = "json"
	formatCSV      = "csv"
	formatMarkdown = "markdown"
	formatText     = "text"
)

func main() {
	config.LoadEnvFile(".env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds parsed command-line input.
type options struct {
	configPath string
	archive    string
	format     string
	compare    bool
	request    backtest.Request
}

// parseArgs parses flags and the optional positional SYMBOL STRATEGY DAYS.
// Positional arguments override the corresponding flags.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	fs.SetOutput(stderr)

	symbol := fs.String("symbol", "", "Symbol to backtest, e.g. BTC")
	strategyName := fs.String("strategy", "Momentum", "Strategy: Momentum, Mean Reversion, AI Driven, AI Oracle")
	duration := fs.String("duration", "30", "Duration in days")
	format := fs.String("format", formatJSON, "Output format: json, csv, markdown, text")
	compare := fs.Bool("compare", false, "Run every strategy on the same path and rank them")
	configPath := fs.String("config", os.Getenv("BACKTEST_CONFIG"), "Path to YAML config")
	archiveBackend := fs.String("archive", "", "Archive backend override: none, memory, sql, local")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	switch len(rest) {
	case 0:
	case 3:
		*symbol, *strategyName, *duration = rest[0], rest[1], rest[2]
	default:
		return nil, fmt.Errorf("%w: expected SYMBOL STRATEGY DAYS, got %d arguments", backtest.ErrInvalidInput, len(rest))
	}

	if *symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", backtest.ErrInvalidInput)
	}

	days, err := backtest.ParseDuration(*duration)
	if err != nil {
		return nil, err
	}

	f := strings.ToLower(*format)
	switch f {
	case formatJSON, formatCSV, formatMarkdown, formatText:
	case "md":
		f = formatMarkdown
	default:
		return nil, fmt.Errorf("%w: unknown format %q", backtest.ErrInvalidInput, *format)
	}

	return &options{
		configPath: *configPath,
		archive:    *archiveBackend,
		format:     f,
		compare:    *compare,
		request: backtest.Request{
			Symbol:       *symbol,
			Strategy:     *strategyName,
			DurationDays: days,
		},
	}, nil
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "backtest: %v\n", err)
		return exitInput
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "backtest: %v\n", err)
		return exitError
	}
	if opts.archive != "" {
		cfg.Storage.Backend = opts.archive
	}

	logger := app.NewLogger(cfg.Logging, "backtest", stderr)

	a, cleanup, err := app.Build(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(stderr, "backtest: %v\n", err)
		return exitError
	}

	var results []*domain.BacktestResult
	if opts.compare {
		results, err = a.Runner.RunAll(ctx, opts.request.Symbol, opts.request.DurationDays)
	} else {
		var res *domain.BacktestResult
		res, err = a.Runner.Run(ctx, opts.request)
		results = []*domain.BacktestResult{res}
	}
	if err != nil {
		fmt.Fprintf(stderr, "backtest: %v\n", err)
		if errors.Is(err, backtest.ErrInvalidInput) {
			return exitInput
		}
		return exitError
	}

	if err := render(stdout, opts.format, results); err != nil {
		fmt.Fprintf(stderr, "backtest: %v\n", err)
		return exitError
	}
	return exitOK
}

// render writes results in the requested format.
func render(w io.Writer, format string, results []*domain.BacktestResult) error {
	switch format {
	case formatCSV:
		if len(results) == 1 {
			_, err := io.WriteString(w, reporting.RenderCSV(results[0].Trades()))
			return err
		}
		_, err := io.WriteString(w, reporting.RenderComparisonCSV(reporting.NewReport(results...)))
		return err

	case formatMarkdown:
		_, err := io.WriteString(w, reporting.RenderMarkdown(reporting.NewReport(results...)))
		return err

	case formatText:
		for _, r := range results {
			printResult(w, r)
		}
		return nil

	default:
		var (
			out []byte
			err error
		)
		if len(results) == 1 {
			out, err = reporting.RenderJSON(results[0])
		} else {
			out, err = reporting.RenderJSONAll(results)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
}

// printResult outputs a human-readable result.
func printResult(w io.Writer, r *domain.BacktestResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Backtest Result ===")
	fmt.Fprintf(w, "Symbol:             %s\n", r.Symbol)
	fmt.Fprintf(w, "Strategy:           %s\n", r.Strategy)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Balance:")
	fmt.Fprintf(w, "  Initial:          %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "  Final:            %.2f\n", r.FinalBalance)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Metrics:")
	fmt.Fprintf(w, "  ROI:              %.2f%%\n", r.ROI)
	fmt.Fprintf(w, "  Trades:           %d\n", r.TradeCount)
	fmt.Fprintf(w, "  Win Rate:         %.2f%%\n", r.WinRate)
	fmt.Fprintf(w, "  Max Drawdown:     %.2f%%\n", r.MaxDrawdown)
	fmt.Fprintf(w, "  Sharpe Ratio:     %.4f\n", r.SharpeRatio)
}
