package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSQLiteMigrations applies the local manifest schema one statement at a time.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	scripts, err := loadScripts(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}
	for _, s := range scripts {
		for _, stmt := range s.statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", s.name, err)
			}
		}
	}
	return nil
}
