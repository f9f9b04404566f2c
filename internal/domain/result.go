package domain

import "encoding/json"

// BacktestResult is the summary of one backtest run.
// It is assembled once at the end of a run. Trades returns a copy so callers
// cannot mutate the ledger.
type BacktestResult struct {
	Symbol         string
	Strategy       string
	InitialBalance float64
	FinalBalance   float64
	ROI            float64 // percent
	TradeCount     int     // len(ledger), BUYs and SELLs
	WinRate        float64 // percent of profitable round trips
	MaxDrawdown    float64 // percent
	SharpeRatio    float64 // annualized with sqrt(252)

	trades []Trade
}

// NewBacktestResult builds a result that owns a private copy of trades.
func NewBacktestResult(
	symbol, strategy string,
	initialBalance, finalBalance, roi, winRate, maxDrawdown, sharpe float64,
	trades []Trade,
) *BacktestResult {
	ledger := make([]Trade, len(trades))
	copy(ledger, trades)

	return &BacktestResult{
		Symbol:         symbol,
		Strategy:       strategy,
		InitialBalance: initialBalance,
		FinalBalance:   finalBalance,
		ROI:            roi,
		TradeCount:     len(ledger),
		WinRate:        winRate,
		MaxDrawdown:    maxDrawdown,
		SharpeRatio:    sharpe,
		trades:         ledger,
	}
}

// Trades returns a copy of the trade ledger in execution order.
func (r *BacktestResult) Trades() []Trade {
	out := make([]Trade, len(r.trades))
	copy(out, r.trades)
	return out
}

type resultJSON struct {
	Symbol         string  `json:"symbol"`
	Strategy       string  `json:"strategy"`
	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	ROI            float64 `json:"roi"`
	TradeCount     int     `json:"trade_count"`
	WinRate        float64 `json:"win_rate"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	History        []Trade `json:"history"`
}

// MarshalJSON encodes the result as a flat record with the ledger under "history".
func (r *BacktestResult) MarshalJSON() ([]byte, error) {
	history := r.trades
	if history == nil {
		history = []Trade{}
	}
	return json.Marshal(resultJSON{
		Symbol:         r.Symbol,
		Strategy:       r.Strategy,
		InitialBalance: r.InitialBalance,
		FinalBalance:   r.FinalBalance,
		ROI:            r.ROI,
		TradeCount:     r.TradeCount,
		WinRate:        r.WinRate,
		MaxDrawdown:    r.MaxDrawdown,
		SharpeRatio:    r.SharpeRatio,
		History:        history,
	})
}

// UnmarshalJSON decodes a record produced by MarshalJSON.
func (r *BacktestResult) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = *NewBacktestResult(raw.Symbol, raw.Strategy,
		raw.InitialBalance, raw.FinalBalance, raw.ROI,
		raw.WinRate, raw.MaxDrawdown, raw.SharpeRatio, raw.History)
	return nil
}
