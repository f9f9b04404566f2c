// Package reporting renders backtest results for the CLI: JSON, a CSV trade
// ledger, and a Markdown report with return distributions and a ranking.
package reporting

import (
	"time"

	"backtest-lab/internal/metrics"
)

// Report is the rendered view of one or more runs on the same path.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	StrategyCount int
	SymbolCount   int

	// One row per run, in input order
	Runs []RunRow

	// Runs ordered by ROI descending (only populated for comparisons)
	Ranking []RankRow
}

// RunRow summarizes one backtest run.
type RunRow struct {
	Symbol         string
	Strategy       string
	InitialBalance float64
	FinalBalance   float64
	ROI            float64
	TradeCount     int
	WinRate        float64
	MaxDrawdown    float64
	SharpeRatio    float64

	// Round-trip return distribution (fractions, not percent)
	Distribution metrics.Distribution

	// Ledger, date/type/price/balance
	Trades []TradeRow
}

// TradeRow is one ledger entry prepared for rendering.
type TradeRow struct {
	Date    string
	Type    string
	Price   float64
	Balance float64
}

// RankRow is one position in a strategy comparison.
type RankRow struct {
	Rank     int
	Strategy string
	Symbol   string
	ROI      float64
	Sharpe   float64
}
