// Package storage defines the append-only stores for archived price paths.
// A path is split the same way in every backend: one manifest row per path
// (relational store) and one row per bar (time series store).
package storage

import (
	"context"

	"backtest-lab/internal/domain"
)

// PathManifestStore provides access to path_manifests storage.
type PathManifestStore interface {
	// Insert adds a new manifest. Returns ErrDuplicateKey if path_id exists.
	Insert(ctx context.Context, m *domain.PathManifest) error

	// GetByID retrieves a manifest by path ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, pathID string) (*domain.PathManifest, error)

	// GetBySymbol retrieves all manifests for a symbol, ordered by last_timestamp_ms ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.PathManifest, error)

	// GetAll retrieves all manifests, ordered by (symbol, last_timestamp_ms) ASC.
	GetAll(ctx context.Context) ([]*domain.PathManifest, error)
}

// PathPointStore provides access to path_points storage.
type PathPointStore interface {
	// InsertBulk adds all points of a path. Fails entire batch on any duplicate (path_id, seq).
	InsertBulk(ctx context.Context, points []*domain.PathPoint) error

	// GetByPathID retrieves all points of a path, ordered by seq ASC.
	GetByPathID(ctx context.Context, pathID string) ([]*domain.PathPoint, error)
}
