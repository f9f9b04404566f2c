package reporting

import (
	"fmt"
	"strings"
	"time"
)

// maxLedgerRows bounds the ledger printed per run.
const maxLedgerRows = 50

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategies: %d | Symbols: %d | Runs: %d\n\n", r.StrategyCount, r.SymbolCount, len(r.Runs)))

	// Summary
	sb.WriteString("## Summary\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| Symbol | Strategy | Initial | Final | ROI% | Trades | WinRate% | MaxDD% | Sharpe |\n")
		sb.WriteString("|--------|----------|---------|-------|------|--------|----------|--------|--------|\n")
		for _, run := range r.Runs {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %.2f | %.2f | %d | %.2f | %.2f | %.4f |\n",
				run.Symbol, escapeCell(run.Strategy),
				run.InitialBalance, run.FinalBalance, run.ROI,
				run.TradeCount, run.WinRate, run.MaxDrawdown, run.SharpeRatio))
		}
	} else {
		sb.WriteString("No runs.\n")
	}
	sb.WriteString("\n")

	// Ranking
	if len(r.Ranking) > 0 {
		sb.WriteString("## Ranking\n\n")
		sb.WriteString("| Rank | Strategy | Symbol | ROI% | Sharpe |\n")
		sb.WriteString("|------|----------|--------|------|--------|\n")
		for _, rank := range r.Ranking {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %.4f |\n",
				rank.Rank, escapeCell(rank.Strategy), rank.Symbol, rank.ROI, rank.Sharpe))
		}
		sb.WriteString("\n")
	}

	// Round-trip distribution
	sb.WriteString("## Round-Trip Returns\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| Strategy | Count | Wins | Losses | Mean | Median | P10 | P90 | Min | Max | Stddev | MaxLoss |\n")
		sb.WriteString("|----------|-------|------|--------|------|--------|-----|-----|-----|-----|--------|--------|\n")
		for _, run := range r.Runs {
			d := run.Distribution
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %d |\n",
				escapeCell(run.Strategy), d.Count, d.Wins, d.Losses,
				d.Mean, d.Median, d.P10, d.P90, d.Min, d.Max, d.Stddev, d.MaxConsecutiveLosses))
		}
	} else {
		sb.WriteString("No round trips.\n")
	}
	sb.WriteString("\n")

	// Ledgers
	for _, run := range r.Runs {
		sb.WriteString(fmt.Sprintf("## Trades: %s %s\n\n", run.Symbol, escapeCell(run.Strategy)))
		if len(run.Trades) == 0 {
			sb.WriteString("No trades.\n\n")
			continue
		}
		sb.WriteString("| Date | Type | Price | Balance |\n")
		sb.WriteString("|------|------|-------|---------|\n")
		for i, t := range run.Trades {
			if i == maxLedgerRows {
				sb.WriteString(fmt.Sprintf("\n... %d more trades\n", len(run.Trades)-maxLedgerRows))
				break
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %.6f | %.2f |\n", t.Date, t.Type, t.Price, t.Balance))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
