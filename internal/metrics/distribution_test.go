package metrics

import (
	"math"
	"testing"

	"backtest-lab/internal/domain"
)

func TestComputeDistribution_Empty(t *testing.T) {
	d := ComputeDistribution(nil)
	if d.Count != 0 || d.Mean != 0 || d.Max != 0 {
		t.Errorf("expected zero distribution, got %+v", d)
	}
}

func TestComputeDistribution(t *testing.T) {
	returns := []float64{0.05, -0.02, -0.01, 0.10, -0.03}

	d := ComputeDistribution(returns)

	if d.Count != 5 {
		t.Errorf("Count = %d, want 5", d.Count)
	}
	if d.Wins != 2 || d.Losses != 3 {
		t.Errorf("Wins/Losses = %d/%d, want 2/3", d.Wins, d.Losses)
	}
	if d.Min != -0.03 || d.Max != 0.10 {
		t.Errorf("Min/Max = %v/%v", d.Min, d.Max)
	}
	if math.Abs(d.Median-(-0.01)) > 1e-12 {
		t.Errorf("Median = %v, want -0.01", d.Median)
	}
	if d.MaxConsecutiveLosses != 2 {
		t.Errorf("MaxConsecutiveLosses = %d, want 2", d.MaxConsecutiveLosses)
	}
	if math.Abs(d.Mean-0.018) > 1e-12 {
		t.Errorf("Mean = %v, want 0.018", d.Mean)
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0.0, 1},
		{0.5, 3},
		{1.0, 5},
		{0.10, 1.4},
		{0.90, 4.6},
	}
	for _, tt := range tests {
		if got := computePercentile(sorted, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := computePercentile([]float64{7}, 0.9); got != 7 {
		t.Errorf("single value percentile = %v, want 7", got)
	}
}

func TestRankResults(t *testing.T) {
	a := domain.NewBacktestResult("BTC", "Momentum", 10000, 10100, 1, 0, 0, 0, nil)
	b := domain.NewBacktestResult("BTC", "AI Driven", 10000, 10500, 5, 0, 0, 0, nil)
	c := domain.NewBacktestResult("BTC", "Hold", 10000, 10100, 1, 0, 0, 0, nil)
	in := []*domain.BacktestResult{a, b, c}

	ranked := RankResults(in)

	want := []string{"AI Driven", "Hold", "Momentum"}
	for i, r := range ranked {
		if r.Strategy != want[i] {
			t.Errorf("rank %d = %s, want %s", i, r.Strategy, want[i])
		}
	}
	if in[0] != a {
		t.Error("input slice must not be reordered")
	}
}
