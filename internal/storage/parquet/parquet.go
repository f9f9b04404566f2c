// Package parquet stores path points as one Parquet file per path.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/storage"
)

// PointRecord is the Parquet schema for archived path points.
type PointRecord struct {
	PathID      string  `parquet:"path_id"`
	Seq         int32   `parquet:"seq"`
	TimestampMs int64   `parquet:"timestamp_ms,timestamp(millisecond)"` // Unix ms
	Close       float64 `parquet:"close"`
}

// PathPointStore implements storage.PathPointStore using Parquet files:
//
//	<DataDir>/<path_id>.parquet
//
// Appending to a path rewrites its file, sorted by seq.
type PathPointStore struct {
	DataDir string
	mu      sync.Mutex
}

// Compile-time interface check.
var _ storage.PathPointStore = (*PathPointStore)(nil)

// NewPathPointStore creates a new store rooted at dataDir.
func NewPathPointStore(dataDir string) *PathPointStore {
	return &PathPointStore{DataDir: dataDir}
}

// pathFile returns the file holding a path's points.
func (s *PathPointStore) pathFile(pathID string) string {
	return filepath.Join(s.DataDir, pathID+".parquet")
}

// validPathID rejects IDs that would escape DataDir.
func validPathID(pathID string) bool {
	return pathID != "" && pathID != "." && pathID != ".." &&
		!strings.ContainsAny(pathID, `/\`)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate (path_id, seq);
// no file is written unless every path in the batch is valid.
func (s *PathPointStore) InsertBulk(_ context.Context, points []*domain.PathPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_points", start, err) }(time.Now())

	grouped := make(map[string][]PointRecord)
	for _, p := range points {
		if p == nil || !validPathID(p.PathID) || p.Seq < 0 {
			return storage.ErrInvalidInput
		}
		grouped[p.PathID] = append(grouped[p.PathID], PointRecord{
			PathID:      p.PathID,
			Seq:         int32(p.Seq),
			TimestampMs: p.TimestampMs,
			Close:       p.Close,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: merge with existing files and check for duplicates
	merged := make(map[string][]PointRecord, len(grouped))
	for pathID, records := range grouped {
		existing, err := readParquetFile[PointRecord](s.pathFile(pathID))
		if err != nil {
			return err
		}

		seen := make(map[int32]struct{}, len(existing)+len(records))
		for _, r := range existing {
			seen[r.Seq] = struct{}{}
		}
		for _, r := range records {
			if _, exists := seen[r.Seq]; exists {
				return storage.ErrDuplicateKey
			}
			seen[r.Seq] = struct{}{}
		}

		all := append(existing, records...)
		sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
		merged[pathID] = all
	}

	// Second pass: write
	for pathID, records := range merged {
		if err := writeParquetFile(s.pathFile(pathID), records); err != nil {
			return err
		}
	}

	return nil
}

// GetByPathID retrieves all points of a path, ordered by seq ASC.
func (s *PathPointStore) GetByPathID(_ context.Context, pathID string) ([]*domain.PathPoint, error) {
	if !validPathID(pathID) {
		return nil, nil
	}

	s.mu.Lock()
	records, err := readParquetFile[PointRecord](s.pathFile(pathID))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	points := make([]*domain.PathPoint, len(records))
	for i, r := range records {
		points[i] = &domain.PathPoint{
			PathID:      r.PathID,
			Seq:         int(r.Seq),
			TimestampMs: r.TimestampMs,
			Close:       r.Close,
		}
	}
	return points, nil
}

// writeParquetFile writes records to a temp file and renames it into place.
func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, records); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing parquet file %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming parquet file %s: %w", path, err)
	}
	return nil
}

// readParquetFile reads all records from a Parquet file. A missing file
// yields no records.
func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	records, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("reading parquet file %s: %w", path, err)
	}
	return records, nil
}

func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("parquet", operation, time.Since(start).Seconds(), err)
}
