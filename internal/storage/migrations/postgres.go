package migrations

import (
	"context"
	"fmt"
	"strings"

	"backtest-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the manifest schema. Each file is sent as a
// single batch, so files must be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	scripts, err := loadScripts(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if len(s.statements) == 0 {
			continue
		}
		if _, err := pool.Exec(ctx, strings.Join(s.statements, ";\n")); err != nil {
			return fmt.Errorf("apply migration %s: %w", s.name, err)
		}
	}
	return nil
}
