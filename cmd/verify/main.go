// Command verify regenerates archived price paths and checks them against
// the stored points. It exits 1 when any path diverges.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"backtest-lab/internal/app"
	"backtest-lab/internal/config"
	"backtest-lab/internal/verification"
)

// Exit codes
const (
	exitOK       = 0
	exitDiverged = 1
	exitUsage    = 2
)

func main() {
	config.LoadEnvFile(".env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", os.Getenv("BACKTEST_CONFIG"), "Path to YAML config")
	archiveBackend := fs.String("archive", "", "Archive backend override: memory, sql, local")
	pathID := fs.String("path-id", "", "Verify a single path instead of the whole archive")
	outputJSON := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return exitUsage
	}
	if *archiveBackend != "" {
		cfg.Storage.Backend = *archiveBackend
	}

	logger := app.NewLogger(cfg.Logging, "verify", stderr)

	a, cleanup, err := app.Build(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return exitUsage
	}
	if a.Archive == nil {
		fmt.Fprintln(stderr, "verify: no archive configured (set --archive or storage.backend)")
		return exitUsage
	}

	verifier := verification.NewPathVerifier(a.Archive)

	var report *verification.VerificationReport
	if *pathID != "" {
		result, err := verifier.VerifyPath(ctx, *pathID)
		if err != nil {
			fmt.Fprintf(stderr, "verify: %v\n", err)
			return exitDiverged
		}
		report = singleReport(result)
	} else {
		report, err = verifier.VerifyAll(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "verify: %v\n", err)
			return exitDiverged
		}
	}

	logger.Info().
		Int("total", report.TotalPaths).
		Int("matched", report.MatchedPaths).
		Int("divergent", report.DivergentPaths).
		Msg("verification complete")

	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Fprintln(stdout, string(output))
	} else {
		printReport(stdout, report)
	}

	if report.DivergentPaths > 0 {
		return exitDiverged
	}
	return exitOK
}

func singleReport(r *verification.VerificationResult) *verification.VerificationReport {
	report := &verification.VerificationReport{
		TotalPaths: 1,
		Results:    []verification.VerificationResult{*r},
	}
	if r.Match {
		report.MatchedPaths = 1
	} else {
		report.DivergentPaths = 1
	}
	return report
}

// printReport outputs a human-readable summary.
func printReport(w io.Writer, report *verification.VerificationReport) {
	fmt.Fprintf(w, "\n=== Verification Summary ===\n")
	fmt.Fprintf(w, "Total Paths:       %d\n", report.TotalPaths)
	fmt.Fprintf(w, "Matched:           %d\n", report.MatchedPaths)
	fmt.Fprintf(w, "Divergent:         %d\n", report.DivergentPaths)

	for _, r := range report.Results {
		if r.Match {
			continue
		}
		fmt.Fprintf(w, "\n%s (%s): %d divergent points\n", r.PathID, r.Symbol, r.DivergentPoints)
		for _, d := range r.Divergences {
			fmt.Fprintf(w, "  %-16s expected=%v actual=%v\n", d.Field, d.Expected, d.Actual)
		}
	}
}
