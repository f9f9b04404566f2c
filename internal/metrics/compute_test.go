package metrics

import (
	"math"
	"testing"

	"backtest-lab/internal/domain"
)

func buy(price, balance float64) domain.Trade {
	return domain.Trade{Side: domain.SideBuy, Price: price, Balance: balance}
}

func sell(price, balance float64) domain.Trade {
	return domain.Trade{Side: domain.SideSell, Price: price, Balance: balance}
}

func TestROI(t *testing.T) {
	tests := []struct {
		name           string
		initial, final float64
		want           float64
	}{
		{"gain", 10000, 11000, 10},
		{"loss", 10000, 9500, -5},
		{"flat", 10000, 10000, 0},
		{"zero initial", 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ROI(tt.initial, tt.final); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ROI = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundTripReturns(t *testing.T) {
	trades := []domain.Trade{
		buy(100, 10000),
		sell(110, 11000),
		buy(120, 11000),
		sell(108, 9900),
		buy(100, 9900), // open at end, no return
	}

	returns := RoundTripReturns(trades)

	if len(returns) != 2 {
		t.Fatalf("expected 2 round trips, got %d", len(returns))
	}
	if math.Abs(returns[0]-0.10) > 1e-12 {
		t.Errorf("returns[0] = %v, want 0.10", returns[0])
	}
	if math.Abs(returns[1]-(-0.10)) > 1e-12 {
		t.Errorf("returns[1] = %v, want -0.10", returns[1])
	}
}

func TestWinRate(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"no round trips", nil, 0},
		{"all wins", []float64{0.1, 0.2}, 100},
		{"half", []float64{0.1, -0.1}, 50},
		{"zero is not a win", []float64{0, 0.1, -0.2, 0.3}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WinRate(tt.returns)
			if got != tt.want {
				t.Errorf("WinRate = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("WinRate out of bounds: %v", got)
			}
		})
	}
}

func TestMaxDrawdown_NoTrades(t *testing.T) {
	if got := MaxDrawdown(10000, nil); got != 0 {
		t.Errorf("expected 0 drawdown with no trades, got %v", got)
	}
}

func TestMaxDrawdown_PeakStartsAtInitial(t *testing.T) {
	// First balance below initial already counts as drawdown.
	trades := []domain.Trade{buy(100, 10000), sell(90, 9000)}

	got := MaxDrawdown(10000, trades)
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("MaxDrawdown = %v, want 10", got)
	}
}

func TestMaxDrawdown_UsesRunningPeak(t *testing.T) {
	trades := []domain.Trade{
		buy(100, 10000),
		sell(120, 12000),
		buy(120, 12000),
		sell(90, 9000), // 25% below 12000
		buy(90, 9000),
		sell(100, 10000),
	}

	got := MaxDrawdown(10000, trades)
	if math.Abs(got-25) > 1e-9 {
		t.Errorf("MaxDrawdown = %v, want 25", got)
	}
}

func TestSharpeRatio(t *testing.T) {
	t.Run("fewer than two returns", func(t *testing.T) {
		if got := SharpeRatio([]float64{0.5}); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
		if got := SharpeRatio(nil); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("zero dispersion", func(t *testing.T) {
		if got := SharpeRatio([]float64{0.1, 0.1, 0.1}); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("population stddev", func(t *testing.T) {
		// mean = 0.05, population stddev = 0.05
		got := SharpeRatio([]float64{0.1, 0.0})
		want := 1.0 * math.Sqrt(252)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("SharpeRatio = %v, want %v", got, want)
		}
	})
}

func TestCompute_OpenPositionOnly(t *testing.T) {
	// A single BUY that is never closed.
	trades := []domain.Trade{buy(100, 10000)}

	s := Compute(10000, 10500, trades)

	if s.RoundTrips != 0 {
		t.Errorf("RoundTrips = %d, want 0", s.RoundTrips)
	}
	if s.WinRate != 0 {
		t.Errorf("WinRate = %v, want 0", s.WinRate)
	}
	if s.SharpeRatio != 0 {
		t.Errorf("SharpeRatio = %v, want 0", s.SharpeRatio)
	}
	if math.Abs(s.ROI-5) > 1e-9 {
		t.Errorf("ROI = %v, want 5", s.ROI)
	}
}

func TestCompute_IdenticalRoundTrips(t *testing.T) {
	// Three identical +10% round trips leave only rounding noise in the stddev.
	trades := []domain.Trade{
		buy(100, 10000), sell(110, 11000),
		buy(100, 11000), sell(110, 12100),
		buy(100, 12100), sell(110, 13310),
	}

	s := Compute(10000, 13310, trades)

	if s.RoundTrips != 3 {
		t.Fatalf("RoundTrips = %d, want 3", s.RoundTrips)
	}
	if s.SharpeRatio != 0 {
		t.Errorf("SharpeRatio = %v, want 0", s.SharpeRatio)
	}
	if s.WinRate != 100 {
		t.Errorf("WinRate = %v, want 100", s.WinRate)
	}
}

func TestComputeStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := computeStddev(values, computeMean(values))
	if math.Abs(got-2.0) > 1e-12 {
		t.Errorf("population stddev = %v, want 2", got)
	}
}
