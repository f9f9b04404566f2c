// Package main provides the HTTP server exposing backtests, the prediction
// endpoint, a streaming websocket, health, status and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"backtest-lab/internal/api"
	"backtest-lab/internal/app"
	"backtest-lab/internal/config"
	"backtest-lab/internal/logging"
	"backtest-lab/internal/oracle"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("BACKTEST_CONFIG"), "Path to YAML config")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	archiveBackend := flag.String("archive", "", "Archive backend override: none, memory, sql, local")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := bootLogger()
		l.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *archiveBackend != "" {
		cfg.Storage.Backend = *archiveBackend
	}

	// Setup logger
	logger := app.NewLogger(cfg.Logging, "server", os.Stderr)
	srvLog := logging.Component(logger, "server")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		srvLog.Fatal().Err(err).Msg("build components")
	}
	defer cleanup()

	// The /predict endpoint serves the configured oracle, except when that
	// oracle is this server's own endpoint.
	predictor, err := predictorFor(cfg.Oracle, logging.Component(logger, "oracle"))
	if err != nil {
		srvLog.Fatal().Err(err).Msg("build predictor")
	}

	backend := cfg.Storage.Backend
	server := api.New(api.Options{
		Runner:         a.Runner,
		Predictor:      predictor,
		ArchiveBackend: backend,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		MockSeed:       cfg.Oracle.Seed,
		Logger:         logging.Component(logger, "api"),
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Closed once in-flight requests have drained
	shutdownDone := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		srvLog.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		go func() {
			sig := <-sigCh
			srvLog.Warn().Str("signal", sig.String()).Msg("second signal, forcing immediate shutdown")
			os.Exit(1)
		}()

		shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			srvLog.Error().Err(err).Dur("timeout", cfg.Server.ShutdownTimeout).Msg("graceful shutdown timed out")
		}
		close(shutdownDone)
	}()

	srvLog.Info().
		Str("addr", cfg.Server.Addr).
		Str("archive", backend).
		Str("oracle", cfg.Oracle.Kind).
		Msg("starting HTTP server")

	err = httpServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		srvLog.Fatal().Err(err).Msg("HTTP server error")
	}
	<-shutdownDone

	srvLog.Info().Msg("shutdown complete")
}

// predictorFor returns the oracle backing /predict. An http oracle would
// call back into this server, so it is served by the heuristic instead.
func predictorFor(o config.Oracle, logger zerolog.Logger) (oracle.Oracle, error) {
	if strings.EqualFold(o.Kind, config.OracleHTTP) {
		return oracle.NewHeuristicOracle(), nil
	}
	return oracle.New(o.Kind, oracle.Options{Seed: o.Seed, Logger: logger})
}

// bootLogger is used before configuration is available.
func bootLogger() zerolog.Logger {
	return logging.New(logging.Options{Service: "server"})
}
