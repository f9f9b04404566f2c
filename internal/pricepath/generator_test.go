package pricepath

import (
	"math"
	"sync"
	"testing"
	"time"
)

var fixedEnd = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedEnd }

func TestGenerate_LengthAndSpacing(t *testing.T) {
	g := NewGenerator(DefaultOptions()).WithClock(fixedClock)

	points := g.Generate("BTC", 2)

	if len(points) != 48 {
		t.Fatalf("expected 48 points, got %d", len(points))
	}
	if !points[len(points)-1].Timestamp.Equal(fixedEnd) {
		t.Errorf("last timestamp = %v, want %v", points[len(points)-1].Timestamp, fixedEnd)
	}
	for i := 1; i < len(points); i++ {
		if d := points[i].Timestamp.Sub(points[i-1].Timestamp); d != time.Hour {
			t.Fatalf("step %d spacing = %v, want 1h", i, d)
		}
		if points[i].Close <= 0 {
			t.Fatalf("non-positive close at %d: %v", i, points[i].Close)
		}
	}
}

func TestGenerate_NonPositiveDuration(t *testing.T) {
	g := NewGenerator(DefaultOptions())

	for _, days := range []int{0, -1, -30} {
		if got := g.Generate("BTC", days); len(got) != 0 {
			t.Errorf("days=%d: expected empty series, got %d points", days, len(got))
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := NewGenerator(DefaultOptions()).WithClock(fixedClock).Generate("ETH", 3)
	b := NewGenerator(DefaultOptions()).WithClock(fixedClock).Generate("ETH", 3)

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerate_SameWalkAcrossSymbols(t *testing.T) {
	// The random stream never depends on the symbol, only the anchor does.
	g := NewGenerator(DefaultOptions()).WithClock(fixedClock)
	btc := g.Generate("BTC", 1)
	eth := g.Generate("ETH", 1)

	for i := range btc {
		rb := btc[i].Close / 65000
		re := eth[i].Close / 3500
		if math.Abs(rb-re) > 1e-12 {
			t.Fatalf("relative path differs at %d: %v vs %v", i, rb, re)
		}
	}
}

func TestGenerate_SeedChangesPath(t *testing.T) {
	opts := DefaultOptions()
	a := NewGenerator(opts).WithClock(fixedClock).Generate("BTC", 1)
	opts.Seed = 7
	b := NewGenerator(opts).WithClock(fixedClock).Generate("BTC", 1)

	if a[0].Close == b[0].Close && a[10].Close == b[10].Close {
		t.Error("different seeds should produce different paths")
	}
}

func TestGenerate_FirstPointIncludesFirstReturn(t *testing.T) {
	opts := DefaultOptions()
	opts.Volatility = 0
	g := NewGenerator(opts).WithClock(fixedClock)

	points := g.Generate("SOL", 1)

	want := 145 * math.Exp(DefaultDrift)
	if math.Abs(points[0].Close-want) > 1e-9 {
		t.Errorf("first close = %v, want %v", points[0].Close, want)
	}
	wantLast := 145 * math.Exp(DefaultDrift*24)
	if math.Abs(points[23].Close-wantLast) > 1e-9 {
		t.Errorf("last close = %v, want %v", points[23].Close, wantLast)
	}
}

func TestStartPrice(t *testing.T) {
	opts := DefaultOptions()
	opts.StartPrices = map[string]float64{"pepe": 0.00001, "BTC": 70000}
	g := NewGenerator(opts)

	tests := []struct {
		symbol string
		want   float64
	}{
		{"BTC", 70000},
		{"eth", 3500},
		{"DOGE", 0.12},
		{"DOT", 7.50},
		{"PEPE", 0.00001},
		{"UNKNOWN", 100},
	}
	for _, tt := range tests {
		if got := g.StartPrice(tt.symbol); got != tt.want {
			t.Errorf("StartPrice(%s) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestGenerate_ConcurrentCallsAgree(t *testing.T) {
	g := NewGenerator(DefaultOptions()).WithClock(fixedClock)
	want := g.Generate("BTC", 5)

	var wg sync.WaitGroup
	errs := make(chan int, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := g.Generate("BTC", 5)
			for i := range got {
				if got[i] != want[i] {
					errs <- i
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for i := range errs {
		t.Errorf("concurrent generation diverged at point %d", i)
	}
}
