package archive

import (
	"context"
	"fmt"

	"backtest-lab/internal/config"
	"backtest-lab/internal/pricepath"
	chstore "backtest-lab/internal/storage/clickhouse"
	"backtest-lab/internal/storage/memory"
	"backtest-lab/internal/storage/migrations"
	"backtest-lab/internal/storage/parquet"
	pgstore "backtest-lab/internal/storage/postgres"
	"backtest-lab/internal/storage/sqlite"
)

// Open connects the configured archive backend and applies migrations.
// The "none" backend returns a nil Archive. The returned cleanup func is
// never nil.
func Open(ctx context.Context, cfg config.Storage, generator *pricepath.Generator) (*Archive, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, noop, nil

	case config.BackendMemory:
		return New(memory.NewPathManifestStore(), memory.NewPathPointStore(), generator, cfg.Backend), noop, nil

	case config.BackendSQL:
		// PostgreSQL (manifests)
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("postgres migrations: %w", err)
		}

		// ClickHouse (points)
		chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("clickhouse migrations: %w", err)
		}

		cleanup := func() {
			chConn.Close()
			pool.Close()
		}
		return New(pgstore.NewPathManifestStore(pool), chstore.NewPathPointStore(chConn), generator, cfg.Backend), cleanup, nil

	case config.BackendLocal:
		manifests, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		cleanup := func() {
			manifests.Close()
		}
		return New(manifests, parquet.NewPathPointStore(cfg.ParquetDir), generator, cfg.Backend), cleanup, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}
