package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/config"
	"backtest-lab/internal/oracle"
)

func TestBuild_NoArchive(t *testing.T) {
	a, cleanup, err := Build(context.Background(), config.Default(), zerolog.Nop())
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, a.Archive)
	res, err := a.Runner.Run(context.Background(), backtest.Request{Symbol: "BTC", Strategy: "Momentum", DurationDays: 1})
	require.NoError(t, err)
	assert.Equal(t, 10000.0, res.InitialBalance)
}

func TestBuild_MemoryArchive(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "MEMORY"
	cfg.Backtest.InitialBalance = 500

	a, cleanup, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, a.Archive)

	res, err := a.Runner.Run(context.Background(), backtest.Request{Symbol: "ETH", Strategy: "AI Oracle", DurationDays: 2})
	require.NoError(t, err)
	assert.Equal(t, 500.0, res.InitialBalance)

	manifests, err := a.Archive.List(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Len(t, manifests, 1)
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backtest.InitialBalance = -1

	_, cleanup, err := Build(context.Background(), cfg, zerolog.Nop())
	assert.ErrorIs(t, err, config.ErrInvalidBalance)
	assert.NotNil(t, cleanup)
}

func TestOracleFactory(t *testing.T) {
	tests := []struct {
		kind    string
		url     string
		wantErr error
	}{
		{config.OracleHeuristic, "", nil},
		{config.OracleRandom, "", nil},
		{config.OracleHTTP, "http://localhost:5002", nil},
		{config.OracleHTTP, "", oracle.ErrMissingURL},
	}
	for _, tt := range tests {
		t.Run(tt.kind+tt.url, func(t *testing.T) {
			factory := OracleFactory(config.Oracle{Kind: tt.kind, URL: tt.url}, zerolog.Nop())
			o, err := factory("BTC")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, o)
		})
	}
}

func TestGeneratorOptions(t *testing.T) {
	b := config.Default().Backtest
	b.StartPrices = map[string]float64{"PEPE": 0.00001}

	opts := GeneratorOptions(b)
	assert.Equal(t, uint64(42), opts.Seed)
	assert.Equal(t, 0.02, opts.Volatility)
	assert.Equal(t, 0.00001, opts.StartPrices["PEPE"])
}
