// Package storagetest holds behavioural tests shared by every storage backend.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// Manifest returns a manifest fixture.
func Manifest(pathID, symbol string, lastMs int64) *domain.PathManifest {
	return &domain.PathManifest{
		PathID:           pathID,
		Symbol:           symbol,
		DurationDays:     1,
		Seed:             42,
		Drift:            0.0002,
		Volatility:       0.02,
		StartPrice:       65000,
		PointCount:       24,
		FirstTimestampMs: lastMs - 23*3600_000,
		LastTimestampMs:  lastMs,
		Checksum:         "abc123",
	}
}

// Points returns n points for pathID, one hour apart.
func Points(pathID string, n int) []*domain.PathPoint {
	out := make([]*domain.PathPoint, n)
	for i := range out {
		out[i] = &domain.PathPoint{
			PathID:      pathID,
			Seq:         i,
			TimestampMs: 1704067200000 + int64(i)*3600_000,
			Close:       100 + float64(i)*0.123456789,
		}
	}
	return out
}

// TestManifestStore runs the PathManifestStore contract against a fresh store.
func TestManifestStore(t *testing.T, newStore func(t *testing.T) storage.PathManifestStore) {
	t.Run("InsertAndGet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		m := Manifest("path-1", "BTC", 1704153600000)
		require.NoError(t, store.Insert(ctx, m))

		got, err := store.GetByID(ctx, "path-1")
		require.NoError(t, err)
		assert.Equal(t, m.Symbol, got.Symbol)
		assert.Equal(t, m.Seed, got.Seed)
		assert.Equal(t, m.Drift, got.Drift)
		assert.Equal(t, m.Volatility, got.Volatility)
		assert.Equal(t, m.StartPrice, got.StartPrice)
		assert.Equal(t, m.PointCount, got.PointCount)
		assert.Equal(t, m.FirstTimestampMs, got.FirstTimestampMs)
		assert.Equal(t, m.LastTimestampMs, got.LastTimestampMs)
		assert.Equal(t, m.Checksum, got.Checksum)
		assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by storage")
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx, Manifest("path-1", "BTC", 1)))
		err := store.Insert(ctx, Manifest("path-1", "ETH", 2))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)

		_, err := store.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		store := newStore(t)

		assert.ErrorIs(t, store.Insert(context.Background(), nil), storage.ErrInvalidInput)
		assert.ErrorIs(t, store.Insert(context.Background(), Manifest("", "BTC", 1)), storage.ErrInvalidInput)
	})

	t.Run("Ordering", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for _, m := range []*domain.PathManifest{
			Manifest("p3", "ETH", 3000),
			Manifest("p1", "BTC", 2000),
			Manifest("p2", "BTC", 1000),
		} {
			require.NoError(t, store.Insert(ctx, m))
		}

		btc, err := store.GetBySymbol(ctx, "BTC")
		require.NoError(t, err)
		require.Len(t, btc, 2)
		assert.Equal(t, "p2", btc[0].PathID)
		assert.Equal(t, "p1", btc[1].PathID)

		none, err := store.GetBySymbol(ctx, "SOL")
		require.NoError(t, err)
		assert.Empty(t, none)

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		ids := make([]string, len(all))
		for i, m := range all {
			ids[i] = m.PathID
		}
		assert.Equal(t, []string{"p2", "p1", "p3"}, ids)
	})
}

// TestPointStore runs the PathPointStore contract against a fresh store.
func TestPointStore(t *testing.T, newStore func(t *testing.T) storage.PathPointStore) {
	t.Run("InsertAndGetOrdered", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		points := Points("path-1", 48)
		// Insert out of order
		shuffled := append([]*domain.PathPoint{}, points[24:]...)
		shuffled = append(shuffled, points[:24]...)
		require.NoError(t, store.InsertBulk(ctx, shuffled))
		require.NoError(t, store.InsertBulk(ctx, Points("path-2", 3)))

		got, err := store.GetByPathID(ctx, "path-1")
		require.NoError(t, err)
		require.Len(t, got, len(points))
		for i, p := range got {
			assert.Equal(t, i, p.Seq)
			assert.Equal(t, points[i].TimestampMs, p.TimestampMs, "seq %d", i)
			assert.Equal(t, points[i].Close, p.Close, "seq %d", i)
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.InsertBulk(context.Background(), nil))
	})

	t.Run("UnknownPath", func(t *testing.T) {
		store := newStore(t)

		got, err := store.GetByPathID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DuplicateFailsBatch", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.InsertBulk(ctx, Points("path-1", 2)))

		batch := Points("path-1", 4)[1:] // seq 1 already stored
		err := store.InsertBulk(ctx, batch)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		got, err := store.GetByPathID(ctx, "path-1")
		require.NoError(t, err)
		assert.Len(t, got, 2, "failed batch must not be partially applied")
	})

	t.Run("IntraBatchDuplicate", func(t *testing.T) {
		store := newStore(t)
		p := Points("path-1", 1)

		err := store.InsertBulk(context.Background(), []*domain.PathPoint{p[0], p[0]})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		store := newStore(t)

		err := store.InsertBulk(context.Background(), []*domain.PathPoint{{PathID: "", Seq: 0}})
		assert.ErrorIs(t, err, storage.ErrInvalidInput)
	})
}
