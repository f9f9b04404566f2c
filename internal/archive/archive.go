// Package archive saves generated price paths so they can be reloaded and
// checked for reproducibility. Only the synthetic input path is archived,
// never backtest results.
package archive

import (
	"context"
	"errors"
	"fmt"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/idhash"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/pricepath"
	"backtest-lab/internal/storage"
)

// Archive errors
var (
	ErrEmptyPath      = errors.New("cannot archive an empty path")
	ErrPathNotFound   = errors.New("path not found")
	ErrIncompletePath = errors.New("archived path is incomplete")
)

// Archive writes a path as one manifest plus its points.
type Archive struct {
	manifests storage.PathManifestStore
	points    storage.PathPointStore
	generator *pricepath.Generator
	backend   string
}

// New creates an archive over the given stores. generator supplies the
// parameters recorded in each manifest and must be the one that produced
// the saved paths.
func New(manifests storage.PathManifestStore, points storage.PathPointStore, generator *pricepath.Generator, backend string) *Archive {
	return &Archive{
		manifests: manifests,
		points:    points,
		generator: generator,
		backend:   backend,
	}
}

// Backend returns the backend label used in metrics.
func (a *Archive) Backend() string {
	return a.backend
}

// Manifest builds the manifest describing a generated path.
func (a *Archive) Manifest(symbol string, durationDays int, points []domain.PricePoint) (*domain.PathManifest, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPath
	}

	opts := a.generator.Options()
	startPrice := a.generator.StartPrice(symbol)
	first := points[0].Timestamp.UnixMilli()
	last := points[len(points)-1].Timestamp.UnixMilli()

	return &domain.PathManifest{
		PathID:           idhash.ComputePathID(symbol, durationDays, opts.Seed, opts.Drift, opts.Volatility, startPrice, last),
		Symbol:           symbol,
		DurationDays:     durationDays,
		Seed:             opts.Seed,
		Drift:            opts.Drift,
		Volatility:       opts.Volatility,
		StartPrice:       startPrice,
		PointCount:       len(points),
		FirstTimestampMs: first,
		LastTimestampMs:  last,
		Checksum:         idhash.PriceChecksum(points),
	}, nil
}

// Save archives a path and returns its path ID.
// Points are written before the manifest, so a manifest is only visible once
// its points are stored. Saving a path that is already archived is a no-op.
func (a *Archive) Save(ctx context.Context, symbol string, durationDays int, points []domain.PricePoint) (pathID string, err error) {
	defer func() { observability.RecordArchiveWrite(a.backend, err) }()

	m, err := a.Manifest(symbol, durationDays, points)
	if err != nil {
		return "", err
	}

	_, err = a.manifests.GetByID(ctx, m.PathID)
	switch {
	case err == nil:
		return m.PathID, nil
	case !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("lookup manifest %s: %w", m.PathID, err)
	}

	rows := make([]*domain.PathPoint, len(points))
	for i, p := range points {
		rows[i] = &domain.PathPoint{
			PathID:      m.PathID,
			Seq:         i,
			TimestampMs: p.Timestamp.UnixMilli(),
			Close:       p.Close,
		}
	}

	if err := a.points.InsertBulk(ctx, rows); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return "", fmt.Errorf("insert points %s: %w", m.PathID, err)
		}
		// A previous save stored the points but not the manifest.
		stored, getErr := a.points.GetByPathID(ctx, m.PathID)
		if getErr != nil {
			return "", fmt.Errorf("reload points %s: %w", m.PathID, getErr)
		}
		if len(stored) != len(rows) {
			return "", fmt.Errorf("%w: %s has %d of %d points", ErrIncompletePath, m.PathID, len(stored), len(rows))
		}
	}

	if err := a.manifests.Insert(ctx, m); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return "", fmt.Errorf("insert manifest %s: %w", m.PathID, err)
	}

	return m.PathID, nil
}

// Load returns an archived manifest and its price series.
func (a *Archive) Load(ctx context.Context, pathID string) (*domain.PathManifest, []domain.PricePoint, error) {
	m, err := a.manifests.GetByID(ctx, pathID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrPathNotFound, pathID)
		}
		return nil, nil, fmt.Errorf("load manifest %s: %w", pathID, err)
	}

	rows, err := a.points.GetByPathID(ctx, pathID)
	if err != nil {
		return nil, nil, fmt.Errorf("load points %s: %w", pathID, err)
	}
	if len(rows) != m.PointCount {
		return m, nil, fmt.Errorf("%w: %s has %d of %d points", ErrIncompletePath, pathID, len(rows), m.PointCount)
	}

	return m, domain.ToPricePoints(rows), nil
}

// List returns archived manifests for symbol, or all manifests when symbol
// is empty.
func (a *Archive) List(ctx context.Context, symbol string) ([]*domain.PathManifest, error) {
	if symbol == "" {
		return a.manifests.GetAll(ctx)
	}
	return a.manifests.GetBySymbol(ctx, symbol)
}
