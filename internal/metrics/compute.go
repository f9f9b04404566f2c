// Package metrics computes performance statistics from a trade ledger.
// Every division is guarded: degenerate inputs yield 0, never NaN or Inf.
package metrics

import (
	"math"

	"backtest-lab/internal/domain"
)

// TradingDaysPerYear annualizes the round-trip Sharpe ratio.
// The factor is applied to per-round-trip returns, not daily returns; it is
// kept as a convention so results stay comparable across runs.
const TradingDaysPerYear = 252

// dispersionEpsilon is the relative stddev treated as zero dispersion.
const dispersionEpsilon = 1e-12

// Summary holds the performance metrics of one run.
type Summary struct {
	ROI         float64 // percent
	WinRate     float64 // percent of profitable round trips
	MaxDrawdown float64 // percent
	SharpeRatio float64
	RoundTrips  int
}

// Compute calculates all metrics for a finished run.
func Compute(initialBalance, finalBalance float64, trades []domain.Trade) Summary {
	returns := RoundTripReturns(trades)

	return Summary{
		ROI:         ROI(initialBalance, finalBalance),
		WinRate:     WinRate(returns),
		MaxDrawdown: MaxDrawdown(initialBalance, trades),
		SharpeRatio: SharpeRatio(returns),
		RoundTrips:  len(returns),
	}
}

// ROI returns (final - initial) / initial as a percentage.
func ROI(initialBalance, finalBalance float64) float64 {
	if initialBalance == 0 {
		return 0
	}
	return (finalBalance - initialBalance) / initialBalance * 100
}

// RoundTripReturns pairs every SELL with the most recent BUY price and
// returns (sell - open) / open per pair, in ledger order.
// An open position at the end of the ledger contributes nothing.
func RoundTripReturns(trades []domain.Trade) []float64 {
	var returns []float64
	openPrice := 0.0

	for _, t := range trades {
		switch t.Side {
		case domain.SideBuy:
			openPrice = t.Price
		case domain.SideSell:
			if openPrice == 0 {
				continue
			}
			returns = append(returns, (t.Price-openPrice)/openPrice)
		}
	}
	return returns
}

// WinRate returns the percentage of strictly positive round-trip returns.
func WinRate(returns []float64) float64 {
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return computeWinRate(wins, len(returns)) * 100
}

// MaxDrawdown walks the trade balances (or just the initial balance when
// there are no trades) and returns the largest fall from the running peak as
// a percentage. The peak starts at the initial balance.
func MaxDrawdown(initialBalance float64, trades []domain.Trade) float64 {
	balances := make([]float64, 0, len(trades))
	for _, t := range trades {
		balances = append(balances, t.Balance)
	}
	if len(balances) == 0 {
		balances = append(balances, initialBalance)
	}
	return computeMaxDrawdown(initialBalance, balances) * 100
}

// SharpeRatio returns mean / stddev * sqrt(252) over round-trip returns.
// Fewer than two returns or zero dispersion yield 0. Dispersion below
// rounding noise relative to the mean counts as zero.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)
	if stddev <= dispersionEpsilon*math.Max(1, math.Abs(mean)) {
		return 0
	}
	return mean / stddev * math.Sqrt(TradingDaysPerYear)
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates population standard deviation (n denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}

// computeMaxDrawdown returns the worst (peak - v) / peak as a fraction.
// balances must be in chronological order.
func computeMaxDrawdown(initial float64, balances []float64) float64 {
	peak := initial
	maxDrawdown := 0.0

	for _, v := range balances {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - v) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
