package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/archive"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/pricepath"
	"backtest-lab/internal/storage/memory"
)

var end = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

func newArchive(opts pricepath.Options) (*archive.Archive, *pricepath.Generator) {
	gen := pricepath.NewGenerator(opts)
	return archive.New(memory.NewPathManifestStore(), memory.NewPathPointStore(), gen, "memory"), gen
}

func TestPathVerifier_Match(t *testing.T) {
	ctx := context.Background()
	a, gen := newArchive(pricepath.DefaultOptions())

	pathID, err := a.Save(ctx, "BTC", 3, gen.GenerateAt("BTC", 3, end))
	require.NoError(t, err)

	result, err := NewPathVerifier(a).VerifyPath(ctx, pathID)
	require.NoError(t, err)
	assert.True(t, result.Match, "divergences: %+v", result.Divergences)
	assert.Empty(t, result.Divergences)
	assert.Equal(t, "BTC", result.Symbol)
	assert.Equal(t, result.StoredChecksum, result.ReplayedChecksum)
}

func TestPathVerifier_CustomParameters(t *testing.T) {
	ctx := context.Background()
	a, gen := newArchive(pricepath.Options{
		Seed:          7,
		Drift:         0.001,
		Volatility:    0.05,
		FallbackPrice: 3.5,
	})

	pathID, err := a.Save(ctx, "UNLISTED", 2, gen.GenerateAt("UNLISTED", 2, end))
	require.NoError(t, err)

	result, err := NewPathVerifier(a).VerifyPath(ctx, pathID)
	require.NoError(t, err)
	assert.True(t, result.Match, "divergences: %+v", result.Divergences)
}

func TestPathVerifier_TamperedPoint(t *testing.T) {
	ctx := context.Background()
	a, gen := newArchive(pricepath.DefaultOptions())

	points := gen.GenerateAt("ETH", 1, end)
	points[5].Close *= 1.01

	pathID, err := a.Save(ctx, "ETH", 1, points)
	require.NoError(t, err)

	result, err := NewPathVerifier(a).VerifyPath(ctx, pathID)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Equal(t, 1, result.DivergentPoints)
	assert.NotEqual(t, result.StoredChecksum, result.ReplayedChecksum)

	fields := make([]string, 0, len(result.Divergences))
	for _, d := range result.Divergences {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "Checksum")
	assert.Contains(t, fields, "Close[5]")
}

func TestPathVerifier_NotFound(t *testing.T) {
	a, _ := newArchive(pricepath.DefaultOptions())

	_, err := NewPathVerifier(a).VerifyPath(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestPathVerifier_VerifyAll(t *testing.T) {
	ctx := context.Background()
	a, gen := newArchive(pricepath.DefaultOptions())

	for _, symbol := range []string{"BTC", "SOL"} {
		_, err := a.Save(ctx, symbol, 1, gen.GenerateAt(symbol, 1, end))
		require.NoError(t, err)
	}
	tampered := gen.GenerateAt("ADA", 1, end)
	tampered[0].Close = 0.01
	_, err := a.Save(ctx, "ADA", 1, tampered)
	require.NoError(t, err)

	report, err := NewPathVerifier(a).VerifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalPaths)
	assert.Equal(t, 2, report.MatchedPaths)
	assert.Equal(t, 1, report.DivergentPaths)
	require.Len(t, report.Results, 3)

	// Results follow manifest ordering: symbol first.
	assert.Equal(t, "ADA", report.Results[0].Symbol)
	assert.False(t, report.Results[0].Match)
}

func TestPathVerifier_VerifyAllEmpty(t *testing.T) {
	a, _ := newArchive(pricepath.DefaultOptions())

	report, err := NewPathVerifier(a).VerifyAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.TotalPaths)
	assert.Empty(t, report.Results)
}

func TestComparePaths_CapsPointDivergences(t *testing.T) {
	gen := pricepath.NewGenerator(pricepath.DefaultOptions())
	replayed := gen.GenerateAt("BTC", 2, end)

	stored := make([]domain.PricePoint, len(replayed))
	copy(stored, replayed)
	for i := range stored {
		stored[i].Close += 1
	}

	a, _ := newArchive(pricepath.DefaultOptions())
	m, err := a.Manifest("BTC", 2, stored)
	require.NoError(t, err)

	divergences, divergentPoints := ComparePaths(m, stored, replayed)
	assert.Equal(t, len(stored), divergentPoints)
	// Checksum plus the capped point divergences.
	assert.Len(t, divergences, 1+maxPointDivergences)
}

func TestComparePaths_PointCount(t *testing.T) {
	gen := pricepath.NewGenerator(pricepath.DefaultOptions())
	replayed := gen.GenerateAt("BTC", 1, end)
	stored := replayed[:10]

	a, _ := newArchive(pricepath.DefaultOptions())
	m, err := a.Manifest("BTC", 1, replayed)
	require.NoError(t, err)

	divergences, divergentPoints := ComparePaths(m, stored, replayed)
	assert.Zero(t, divergentPoints)
	require.Len(t, divergences, 1)
	assert.Equal(t, "PointCount", divergences[0].Field)
}
