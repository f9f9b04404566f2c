package metrics

import (
	"sort"

	"backtest-lab/internal/domain"
)

// Distribution describes the spread of round-trip returns of one run.
// Returns are fractions (0.05 = +5%).
type Distribution struct {
	Count                int
	Wins                 int
	Losses               int
	Mean                 float64
	Median               float64
	P10                  float64
	P90                  float64
	Min                  float64
	Max                  float64
	Stddev               float64
	MaxConsecutiveLosses int
}

// ComputeDistribution summarizes round-trip returns, in ledger order.
func ComputeDistribution(returns []float64) Distribution {
	n := len(returns)
	if n == 0 {
		return Distribution{}
	}

	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}

	sorted := make([]float64, n)
	copy(sorted, returns)
	sort.Float64s(sorted)

	mean := computeMean(returns)

	return Distribution{
		Count:                n,
		Wins:                 wins,
		Losses:               n - wins,
		Mean:                 mean,
		Median:               computePercentile(sorted, 0.50),
		P10:                  computePercentile(sorted, 0.10),
		P90:                  computePercentile(sorted, 0.90),
		Min:                  sorted[0],
		Max:                  sorted[n-1],
		Stddev:               computeStddev(returns, mean),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(returns),
	}
}

// RankResults orders results by ROI descending, then strategy name ascending.
// The input slice is not modified.
func RankResults(results []*domain.BacktestResult) []*domain.BacktestResult {
	ranked := make([]*domain.BacktestResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ROI != ranked[j].ROI {
			return ranked[i].ROI > ranked[j].ROI
		}
		return ranked[i].Strategy < ranked[j].Strategy
	})
	return ranked
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxConsecutiveLosses finds longest streak of return <= 0.
func computeMaxConsecutiveLosses(returns []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, r := range returns {
		if r <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
