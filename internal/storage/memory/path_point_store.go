package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// PathPointStore is an in-memory implementation of storage.PathPointStore.
type PathPointStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PathPoint // keyed by (path_id, seq)
}

// NewPathPointStore creates a new in-memory path point store.
func NewPathPointStore() *PathPointStore {
	return &PathPointStore{
		data: make(map[string]*domain.PathPoint),
	}
}

// pointKey generates a unique key for a path point.
func pointKey(pathID string, seq int) string {
	return fmt.Sprintf("%s|%d", pathID, seq)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *PathPointStore) InsertBulk(_ context.Context, points []*domain.PathPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.PathID == "" || p.Seq < 0 {
			return storage.ErrInvalidInput
		}
		key := pointKey(p.PathID, p.Seq)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		pointCopy := *p
		s.data[pointKey(p.PathID, p.Seq)] = &pointCopy
	}

	return nil
}

// GetByPathID retrieves all points of a path, ordered by seq ASC.
func (s *PathPointStore) GetByPathID(_ context.Context, pathID string) ([]*domain.PathPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PathPoint
	for _, p := range s.data {
		if p.PathID == pathID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}

var _ storage.PathPointStore = (*PathPointStore)(nil)
