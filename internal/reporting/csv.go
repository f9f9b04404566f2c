package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"backtest-lab/internal/domain"
)

// RenderCSV renders a trade ledger as CSV string.
func RenderCSV(trades []domain.Trade) string {
	rows := make([][]string, 0, len(trades)+1)

	// Header
	rows = append(rows, []string{"date", "type", "price", "balance"})

	// Rows
	for _, t := range trades {
		tr := newTradeRow(t)
		rows = append(rows, []string{
			tr.Date,
			tr.Type,
			formatFloat(tr.Price),
			formatFloat(tr.Balance),
		})
	}

	return writeCSV(rows)
}

// RenderComparisonCSV renders one metrics row per run.
func RenderComparisonCSV(r *Report) string {
	rows := make([][]string, 0, len(r.Runs)+1)

	rows = append(rows, []string{
		"symbol", "strategy", "initial_balance", "final_balance", "roi",
		"trade_count", "win_rate", "max_drawdown", "sharpe_ratio",
		"round_trips", "return_median", "return_p10", "return_p90", "max_consecutive_losses",
	})

	for _, run := range r.Runs {
		d := run.Distribution
		rows = append(rows, []string{
			run.Symbol,
			run.Strategy,
			formatFloat(run.InitialBalance),
			formatFloat(run.FinalBalance),
			formatFloat(run.ROI),
			strconv.Itoa(run.TradeCount),
			formatFloat(run.WinRate),
			formatFloat(run.MaxDrawdown),
			formatFloat(run.SharpeRatio),
			strconv.Itoa(d.Count),
			formatFloat(d.Median),
			formatFloat(d.P10),
			formatFloat(d.P90),
			strconv.Itoa(d.MaxConsecutiveLosses),
		})
	}

	return writeCSV(rows)
}

// writeCSV quotes fields as needed; strategy names are free-form input.
func writeCSV(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// Writes to a bytes.Buffer cannot fail.
	_ = w.WriteAll(rows)
	return buf.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
