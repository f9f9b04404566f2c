package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// PathManifestStore is an in-memory implementation of storage.PathManifestStore.
type PathManifestStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PathManifest // keyed by path_id
	now  func() time.Time
}

// NewPathManifestStore creates a new in-memory manifest store.
func NewPathManifestStore() *PathManifestStore {
	return &PathManifestStore{
		data: make(map[string]*domain.PathManifest),
		now:  time.Now,
	}
}

// Insert adds a new manifest. Returns ErrDuplicateKey if path_id exists.
func (s *PathManifestStore) Insert(_ context.Context, m *domain.PathManifest) error {
	if m == nil || m.PathID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.PathID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	manifestCopy := *m
	if manifestCopy.CreatedAt.IsZero() {
		manifestCopy.CreatedAt = s.now().UTC()
	}
	s.data[m.PathID] = &manifestCopy
	return nil
}

// GetByID retrieves a manifest by path ID. Returns ErrNotFound if not exists.
func (s *PathManifestStore) GetByID(_ context.Context, pathID string) (*domain.PathManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[pathID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	manifestCopy := *m
	return &manifestCopy, nil
}

// GetBySymbol retrieves all manifests for a symbol, ordered by last_timestamp_ms ASC.
func (s *PathManifestStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.PathManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PathManifest
	for _, m := range s.data {
		if m.Symbol == symbol {
			manifestCopy := *m
			result = append(result, &manifestCopy)
		}
	}

	sortManifests(result)
	return result, nil
}

// GetAll retrieves all manifests, ordered by (symbol, last_timestamp_ms) ASC.
func (s *PathManifestStore) GetAll(_ context.Context) ([]*domain.PathManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PathManifest, 0, len(s.data))
	for _, m := range s.data {
		manifestCopy := *m
		result = append(result, &manifestCopy)
	}

	sortManifests(result)
	return result, nil
}

// sortManifests orders by symbol, then last timestamp, then path_id for stability.
func sortManifests(ms []*domain.PathManifest) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Symbol != ms[j].Symbol {
			return ms[i].Symbol < ms[j].Symbol
		}
		if ms[i].LastTimestampMs != ms[j].LastTimestampMs {
			return ms[i].LastTimestampMs < ms[j].LastTimestampMs
		}
		return ms[i].PathID < ms[j].PathID
	})
}

// Verify interface compliance at compile time.
var _ storage.PathManifestStore = (*PathManifestStore)(nil)
