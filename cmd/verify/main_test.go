package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/app"
	"backtest-lab/internal/backtest"
	"backtest-lab/internal/config"
)

func writeLocalConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "backtest.yaml")
	content := "storage:\n" +
		"  backend: local\n" +
		"  sqlite_path: " + filepath.Join(dir, "paths.db") + "\n" +
		"  parquet_dir: " + filepath.Join(dir, "paths") + "\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_NoArchive(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--archive", "none"}, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "no archive configured")
}

func TestRun_EmptyArchiveMatches(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--config", writeLocalConfig(t)}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Total Paths:       0")
}

func TestRun_UnknownPath(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--config", writeLocalConfig(t), "--path-id", "missing"}, &stdout, &stderr)
	assert.Equal(t, exitDiverged, code)
	assert.Contains(t, stderr.String(), "path not found")
}

func TestRun_VerifiesArchivedPath(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "")
	ctx := context.Background()
	cfgPath := writeLocalConfig(t)

	// Archive one path through a normal run.
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	a, cleanup, err := app.Build(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	_, err = a.Runner.Run(ctx, backtest.Request{Symbol: "BTC", Strategy: "Momentum", DurationDays: 2})
	cleanup()
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--config", cfgPath}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Total Paths:       1")
	assert.Contains(t, stdout.String(), "Matched:           1")
}
