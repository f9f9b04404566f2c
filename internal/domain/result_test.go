package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacktestResult_JSONKeys(t *testing.T) {
	ts := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	r := NewBacktestResult("BTC", "Momentum", 10000, 10500, 5, 100, 0, 0, []Trade{
		{Timestamp: ts, Side: SideBuy, Price: 100, Balance: 10000},
		{Timestamp: ts.Add(time.Hour), Side: SideSell, Price: 105, Balance: 10500},
	})

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"symbol", "strategy", "initial_balance", "final_balance", "roi",
		"trade_count", "win_rate", "max_drawdown", "sharpe_ratio", "history",
	} {
		assert.Contains(t, raw, key)
	}
	assert.Len(t, raw, 10)
	assert.EqualValues(t, 2, raw["trade_count"])

	history := raw["history"].([]any)
	first := history[0].(map[string]any)
	assert.Equal(t, "2024-03-01 13:00:00", first["date"])
	assert.Equal(t, "BUY", first["type"])
}

func TestBacktestResult_EmptyHistoryIsArray(t *testing.T) {
	r := NewBacktestResult("ETH", "Unknown", 10000, 10000, 0, 0, 0, 0, nil)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"history":[]`)
}

func TestBacktestResult_TradesReturnsCopy(t *testing.T) {
	trades := []Trade{{Side: SideBuy, Price: 1, Balance: 10}}
	r := NewBacktestResult("SOL", "Momentum", 10, 10, 0, 0, 0, 0, trades)

	trades[0].Price = 99
	got := r.Trades()
	assert.Equal(t, 1.0, got[0].Price)

	got[0].Price = 42
	assert.Equal(t, 1.0, r.Trades()[0].Price)
}

func TestBacktestResult_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	in := NewBacktestResult("ADA", "Mean Reversion", 10000, 9900, -1, 0, 1, 0, []Trade{
		{Timestamp: ts, Side: SideBuy, Price: 0.45, Balance: 10000},
	})

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out BacktestResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Symbol, out.Symbol)
	assert.Equal(t, in.TradeCount, out.TradeCount)
	assert.True(t, out.Trades()[0].Timestamp.Equal(ts))
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "BUY", SignalBuy.String())
	assert.Equal(t, "SELL", SignalSell.String())
	assert.Equal(t, "HOLD", SignalHold.String())
	assert.Equal(t, "LONG", PositionLong.String())
	assert.Equal(t, "FLAT", PositionFlat.String())
}
