package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// PathManifestStore implements storage.PathManifestStore using PostgreSQL.
type PathManifestStore struct {
	pool *Pool
}

// NewPathManifestStore creates a new PathManifestStore.
func NewPathManifestStore(pool *Pool) *PathManifestStore {
	return &PathManifestStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PathManifestStore = (*PathManifestStore)(nil)

const manifestColumns = `
	path_id, symbol, duration_days, seed, drift, volatility, start_price,
	point_count, first_timestamp_ms, last_timestamp_ms, checksum, created_at
`

// Insert adds a new manifest. Returns ErrDuplicateKey if path_id exists.
func (s *PathManifestStore) Insert(ctx context.Context, m *domain.PathManifest) (err error) {
	if m == nil || m.PathID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_manifest", start, err) }(time.Now())

	query := `
		INSERT INTO path_manifests (
			path_id, symbol, duration_days, seed, drift, volatility, start_price,
			point_count, first_timestamp_ms, last_timestamp_ms, checksum
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.pool.Exec(ctx, query,
		m.PathID,
		m.Symbol,
		m.DurationDays,
		int64(m.Seed), // BIGINT, bit-preserving
		m.Drift,
		m.Volatility,
		m.StartPrice,
		m.PointCount,
		m.FirstTimestampMs,
		m.LastTimestampMs,
		m.Checksum,
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
func (s *PathManifestStore) GetByID(ctx context.Context, pathID string) (m *domain.PathManifest, err error) {
	defer func(start time.Time) { observe("get_manifest", start, err) }(time.Now())

	query := `SELECT ` + manifestColumns + ` FROM path_manifests WHERE path_id = $1`

	m, err = scanManifest(s.pool.QueryRow(ctx, query, pathID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get path manifest by id: %w", err)
	}
	return m, nil
}

// GetBySymbol retrieves all manifests for a symbol, ordered by last_timestamp_ms ASC.
func (s *PathManifestStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.PathManifest, error) {
	query := `SELECT ` + manifestColumns + `
		FROM path_manifests
		WHERE symbol = $1
		ORDER BY last_timestamp_ms ASC, path_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get path manifests by symbol: %w", err)
	}
	defer rows.Close()

	return scanManifests(rows)
}

// GetAll retrieves all manifests, ordered by (symbol, last_timestamp_ms) ASC.
func (s *PathManifestStore) GetAll(ctx context.Context) ([]*domain.PathManifest, error) {
	query := `SELECT ` + manifestColumns + `
		FROM path_manifests
		ORDER BY symbol ASC, last_timestamp_ms ASC, path_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all path manifests: %w", err)
	}
	defer rows.Close()

	return scanManifests(rows)
}

// scanManifest scans a single row into a PathManifest.
func scanManifest(row pgx.Row) (*domain.PathManifest, error) {
	var m domain.PathManifest
	var seed int64

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
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Seed = uint64(seed)
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

// scanManifests scans multiple rows into a slice of PathManifest.
func scanManifests(rows pgx.Rows) ([]*domain.PathManifest, error) {
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
