package parquet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
	"backtest-lab/internal/storage/storagetest"
)

func TestPathPointStore(t *testing.T) {
	storagetest.TestPointStore(t, func(t *testing.T) storage.PathPointStore {
		return NewPathPointStore(t.TempDir())
	})
}

func TestPathPointStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	store := NewPathPointStore(dir)

	require.NoError(t, store.InsertBulk(context.Background(), storagetest.Points("abc", 3)))

	_, err := os.Stat(filepath.Join(dir, "abc.parquet"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "abc.parquet.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestPathPointStore_RejectsEscapingIDs(t *testing.T) {
	store := NewPathPointStore(t.TempDir())

	for _, id := range []string{"../evil", "a/b", `a\b`, ".."} {
		err := store.InsertBulk(context.Background(), []*domain.PathPoint{{PathID: id, Seq: 0, Close: 1}})
		assert.ErrorIs(t, err, storage.ErrInvalidInput, id)
	}
}

func TestPathPointStore_AppendKeepsOrder(t *testing.T) {
	store := NewPathPointStore(t.TempDir())
	ctx := context.Background()
	points := storagetest.Points("p", 6)

	require.NoError(t, store.InsertBulk(ctx, points[3:]))
	require.NoError(t, store.InsertBulk(ctx, points[:3]))

	got, err := store.GetByPathID(ctx, "p")
	require.NoError(t, err)
	require.Len(t, got, 6)
	for i, p := range got {
		assert.Equal(t, i, p.Seq)
		assert.Equal(t, points[i].TimestampMs, p.TimestampMs)
	}
}
