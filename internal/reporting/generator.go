package reporting

import (
	"time"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/metrics"
)

// Generator builds reports from backtest results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report for results. Nil results are skipped.
// A ranking is included when more than one run is reported.
func (g *Generator) Generate(results []*domain.BacktestResult) *Report {
	runs := make([]*domain.BacktestResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			runs = append(runs, r)
		}
	}

	strategySet := make(map[string]struct{})
	symbolSet := make(map[string]struct{})
	rows := make([]RunRow, len(runs))
	for i, r := range runs {
		strategySet[r.Strategy] = struct{}{}
		symbolSet[r.Symbol] = struct{}{}
		rows[i] = buildRunRow(r)
	}

	var ranking []RankRow
	if len(runs) > 1 {
		ranking = buildRanking(runs)
	}

	return &Report{
		GeneratedAt:   g.now(),
		StrategyCount: len(strategySet),
		SymbolCount:   len(symbolSet),
		Runs:          rows,
		Ranking:       ranking,
	}
}

// NewReport builds a report with the wall clock.
func NewReport(results ...*domain.BacktestResult) *Report {
	return NewGenerator().Generate(results)
}

func buildRunRow(r *domain.BacktestResult) RunRow {
	trades := r.Trades()
	ledger := make([]TradeRow, len(trades))
	for i, t := range trades {
		ledger[i] = newTradeRow(t)
	}

	return RunRow{
		Symbol:         r.Symbol,
		Strategy:       r.Strategy,
		InitialBalance: r.InitialBalance,
		FinalBalance:   r.FinalBalance,
		ROI:            r.ROI,
		TradeCount:     r.TradeCount,
		WinRate:        r.WinRate,
		MaxDrawdown:    r.MaxDrawdown,
		SharpeRatio:    r.SharpeRatio,
		Distribution:   metrics.ComputeDistribution(metrics.RoundTripReturns(trades)),
		Trades:         ledger,
	}
}

func buildRanking(runs []*domain.BacktestResult) []RankRow {
	ranked := metrics.RankResults(runs)
	rows := make([]RankRow, len(ranked))
	for i, r := range ranked {
		rows[i] = RankRow{
			Rank:     i + 1,
			Strategy: r.Strategy,
			Symbol:   r.Symbol,
			ROI:      r.ROI,
			Sharpe:   r.SharpeRatio,
		}
	}
	return rows
}

func newTradeRow(t domain.Trade) TradeRow {
	return TradeRow{
		Date:    t.Timestamp.UTC().Format(domain.TradeDateLayout),
		Type:    string(t.Side),
		Price:   t.Price,
		Balance: t.Balance,
	}
}
