package clickhouse

import (
	"context"
	"fmt"
	"time"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// PathPointStore implements storage.PathPointStore using ClickHouse.
type PathPointStore struct {
	conn *Conn
}

// NewPathPointStore creates a new PathPointStore.
func NewPathPointStore(conn *Conn) *PathPointStore {
	return &PathPointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PathPointStore = (*PathPointStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (path_id, seq).
// MergeTree does not enforce uniqueness, so duplicates are checked before the
// batch is sent.
func (s *PathPointStore) InsertBulk(ctx context.Context, points []*domain.PathPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_points", start, err) }(time.Now())

	// Check for intra-batch duplicates, grouping seqs by path
	type key struct {
		pathID string
		seq    int
	}
	seen := make(map[key]struct{}, len(points))
	seqsByPath := make(map[string][]uint32)
	for _, p := range points {
		if p == nil || p.PathID == "" || p.Seq < 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.PathID, p.Seq}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		seqsByPath[p.PathID] = append(seqsByPath[p.PathID], uint32(p.Seq))
	}

	// Check for duplicates against existing DB rows
	for pathID, seqs := range seqsByPath {
		count, err := s.countExisting(ctx, pathID, seqs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if count > 0 {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO path_points (path_id, seq, timestamp_ms, close)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(p.PathID, uint32(p.Seq), uint64(p.TimestampMs), p.Close)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPathID retrieves all points of a path, ordered by seq ASC.
func (s *PathPointStore) GetByPathID(ctx context.Context, pathID string) (points []*domain.PathPoint, err error) {
	defer func(start time.Time) { observe("get_points", start, err) }(time.Now())

	query := `
		SELECT path_id, seq, timestamp_ms, close
		FROM path_points
		WHERE path_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, pathID)
	if err != nil {
		return nil, fmt.Errorf("query by path id: %w", err)
	}
	defer rows.Close()

	return scanPathPoints(rows)
}

// countExisting counts stored rows of pathID whose seq is in seqs.
func (s *PathPointStore) countExisting(ctx context.Context, pathID string, seqs []uint32) (uint64, error) {
	query := `
		SELECT count(*) FROM path_points
		WHERE path_id = ? AND seq IN (?)
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, pathID, seqs).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPathPoints scans multiple rows.
func scanPathPoints(rows chRows) ([]*domain.PathPoint, error) {
	var points []*domain.PathPoint

	for rows.Next() {
		var p domain.PathPoint
		var seq uint32
		var timestampMs uint64

		if err := rows.Scan(&p.PathID, &seq, &timestampMs, &p.Close); err != nil {
			return nil, fmt.Errorf("scan path point row: %w", err)
		}

		p.Seq = int(seq)
		p.TimestampMs = int64(timestampMs)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate path point rows: %w", err)
	}

	return points, nil
}
