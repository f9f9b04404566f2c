// Package sqlite stores path manifests in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"backtest-lab/internal/domain"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/storage"
	"backtest-lab/internal/storage/migrations"
)

// PathManifestStore implements storage.PathManifestStore backed by SQLite.
type PathManifestStore struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time interface check.
var _ storage.PathManifestStore = (*PathManifestStore)(nil)

// Open opens (or creates) the database at dbPath and applies migrations.
func Open(ctx context.Context, dbPath string) (*PathManifestStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PathManifestStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *PathManifestStore) Close() error {
	return s.db.Close()
}

const manifestColumns = `
	path_id, symbol, duration_days, seed, drift, volatility, start_price,
	point_count, first_timestamp_ms, last_timestamp_ms, checksum, created_at_ms
`

// Insert adds a new manifest. Returns ErrDuplicateKey if path_id exists.
func (s *PathManifestStore) Insert(ctx context.Context, m *domain.PathManifest) (err error) {
	if m == nil || m.PathID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_manifest", start, err) }(time.Now())

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO path_manifests (`+manifestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.PathID,
		m.Symbol,
		m.DurationDays,
		int64(m.Seed),
		m.Drift,
		m.Volatility,
		m.StartPrice,
		m.PointCount,
		m.FirstTimestampMs,
		m.LastTimestampMs,
		m.Checksum,
		createdAt.UnixMilli(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert path manifest: %w", err)
	}
	return nil
}

// GetByID retrieves a manifest by path ID. Returns ErrNotFound if not exists.
func (s *PathManifestStore) GetByID(ctx context.Context, pathID string) (*domain.PathManifest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+manifestColumns+` FROM path_manifests WHERE path_id = ?`, pathID)

	m, err := scanManifest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get path manifest by id: %w", err)
	}
	return m, nil
}

// GetBySymbol retrieves all manifests for a symbol, ordered by last_timestamp_ms ASC.
func (s *PathManifestStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.PathManifest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+manifestColumns+`
		FROM path_manifests
		WHERE symbol = ?
		ORDER BY last_timestamp_ms ASC, path_id ASC
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("get path manifests by symbol: %w", err)
	}
	defer rows.Close()

	return scanManifests(rows)
}

// GetAll retrieves all manifests, ordered by (symbol, last_timestamp_ms) ASC.
func (s *PathManifestStore) GetAll(ctx context.Context) ([]*domain.PathManifest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+manifestColumns+`
		FROM path_manifests
		ORDER BY symbol ASC, last_timestamp_ms ASC, path_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get all path manifests: %w", err)
	}
	defer rows.Close()

	return scanManifests(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanManifest scans a single row into a PathManifest.
func scanManifest(row rowScanner) (*domain.PathManifest, error) {
	var m domain.PathManifest
	var seed, createdAtMs int64

	err := row.Scan(
		&m.PathID,
		&m.Symbol,
		&m.DurationDays,
		&seed,
		&m.Drift,
		&m.Volatility,
		&m.StartPrice,
		&m.PointCount,
		&m.FirstTimestampMs,
		&m.LastTimestampMs,
		&m.Checksum,
		&createdAtMs,
	)
	if err != nil {
		return nil, err
	}

	m.Seed = uint64(seed)
	m.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	return &m, nil
}

// scanManifests scans multiple rows into a slice of PathManifest.
func scanManifests(rows *sql.Rows) ([]*domain.PathManifest, error) {
	var manifests []*domain.PathManifest
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan path manifest: %w", err)
		}
		manifests = append(manifests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate path manifests: %w", err)
	}
	return manifests, nil
}

// isDuplicateKeyError checks if error is a primary key or unique violation.
// modernc.org/sqlite reports constraint failures in the error text.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("sqlite", operation, time.Since(start).Seconds(), err)
}
