package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/pricepath"
	"backtest-lab/internal/strategy"
)

// scriptedStrategy replays a fixed signal per bar.
type scriptedStrategy struct {
	signals []domain.Signal
	calls   int
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) SignalFor(_ context.Context, _ []domain.PricePoint) domain.Signal {
	defer func() { s.calls++ }()
	if s.calls >= len(s.signals) {
		return domain.SignalHold
	}
	return s.signals[s.calls]
}

func series(prices ...float64) []domain.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{Timestamp: start.Add(time.Duration(i) * time.Hour), Close: p}
	}
	return out
}

func TestEngine_BuySellBalances(t *testing.T) {
	strat := &scriptedStrategy{signals: []domain.Signal{
		domain.SignalBuy,  // bar 1 @ 100
		domain.SignalBuy,  // ignored, already long
		domain.SignalSell, // bar 3 @ 120
		domain.SignalSell, // ignored, already flat
	}}
	out, err := NewEngine(strat, 1000).Run(context.Background(), series(90, 100, 110, 120, 80))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(out.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(out.Trades))
	}
	buy, sell := out.Trades[0], out.Trades[1]
	if buy.Side != domain.SideBuy || buy.Price != 100 || buy.Balance != 1000 {
		t.Errorf("unexpected BUY: %+v", buy)
	}
	if sell.Side != domain.SideSell || sell.Price != 120 || math.Abs(sell.Balance-1200) > 1e-9 {
		t.Errorf("unexpected SELL: %+v", sell)
	}
	if math.Abs(out.FinalBalance-1200) > 1e-9 {
		t.Errorf("FinalBalance = %v, want 1200", out.FinalBalance)
	}
	if out.Bars != 4 {
		t.Errorf("Bars = %d, want 4", out.Bars)
	}
}

func TestEngine_EntryPriceTracksPosition(t *testing.T) {
	strat := &scriptedStrategy{signals: []domain.Signal{
		domain.SignalBuy,  // bar 1 @ 100
		domain.SignalHold, // bar 2 @ 130
		domain.SignalSell, // bar 3 @ 120
	}}
	e := NewEngine(strat, 1000)

	var entries []float64
	e.onBar = func(_ int, acct Account) { entries = append(entries, acct.EntryPrice) }

	out, err := e.Run(context.Background(), series(90, 100, 130, 120))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []float64{100, 100, 0}
	if len(entries) != len(want) {
		t.Fatalf("saw %d bars, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("bar %d: EntryPrice = %v, want %v", i+1, entries[i], want[i])
		}
	}
	if out.Account.EntryPrice != 0 {
		t.Errorf("flat account kept EntryPrice %v", out.Account.EntryPrice)
	}
}

func TestEngine_FirstPointNeverTraded(t *testing.T) {
	strat := &scriptedStrategy{signals: []domain.Signal{domain.SignalBuy}}
	out, err := NewEngine(strat, 1000).Run(context.Background(), series(50, 100))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Trades) != 1 || out.Trades[0].Price != 100 {
		t.Errorf("expected single BUY at second bar, got %+v", out.Trades)
	}
}

func TestEngine_MarkToMarket(t *testing.T) {
	strat := &scriptedStrategy{signals: []domain.Signal{domain.SignalBuy}}
	out, err := NewEngine(strat, 1000).Run(context.Background(), series(100, 100, 150))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Account.State != domain.PositionLong {
		t.Errorf("expected open position, got %v", out.Account.State)
	}
	if out.Account.EntryPrice != 100 {
		t.Errorf("EntryPrice = %v, want 100", out.Account.EntryPrice)
	}
	if math.Abs(out.FinalBalance-1500) > 1e-9 {
		t.Errorf("FinalBalance = %v, want 1500", out.FinalBalance)
	}
}

func TestEngine_Degenerate(t *testing.T) {
	for _, points := range [][]domain.PricePoint{nil, series(100)} {
		strat := &scriptedStrategy{signals: []domain.Signal{domain.SignalBuy}}
		out, err := NewEngine(strat, 1000).Run(context.Background(), points)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !out.Degenerate || len(out.Trades) != 0 || out.FinalBalance != 1000 {
			t.Errorf("unexpected degenerate outcome: %+v", out)
		}
		if strat.calls != 0 {
			t.Errorf("strategy should not be consulted, got %d calls", strat.calls)
		}
	}
}

func TestEngine_ObserverSeesEveryTrade(t *testing.T) {
	var seen []domain.Trade
	strat := strategy.NewMomentum()
	out, err := NewEngine(strat, 1000).
		WithTradeObserver(func(tr domain.Trade) { seen = append(seen, tr) }).
		Run(context.Background(), series(100, 101, 99, 102, 98))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != len(out.Trades) {
		t.Fatalf("observer saw %d trades, ledger has %d", len(seen), len(out.Trades))
	}
	for i := range seen {
		if seen[i] != out.Trades[i] {
			t.Errorf("trade %d differs: %+v vs %+v", i, seen[i], out.Trades[i])
		}
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewEngine(strategy.NewMomentum(), 1000).Run(ctx, series(1, 2, 3)); err == nil {
		t.Error("expected context error")
	}
}

// Properties over generated paths for every strategy.

func TestEngine_PositionInvariant(t *testing.T) {
	gen := pricepath.NewGenerator(pricepath.DefaultOptions())
	points := gen.GenerateAt("BTC", 10, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	for _, name := range strategy.Names() {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(strategy.FromName(name, strategy.Options{Seed: 42}), 10000)
			e.onBar = func(i int, acct Account) {
				if (acct.Cash > 0) == (acct.PositionSize > 0) {
					t.Fatalf("bar %d: cash=%v position=%v", i, acct.Cash, acct.PositionSize)
				}
				if (acct.State == domain.PositionLong) != (acct.PositionSize > 0) {
					t.Fatalf("bar %d: state %v with position %v", i, acct.State, acct.PositionSize)
				}
				if (acct.EntryPrice > 0) != (acct.PositionSize > 0) {
					t.Fatalf("bar %d: entry price %v with position %v", i, acct.EntryPrice, acct.PositionSize)
				}
			}
			if _, err := e.Run(context.Background(), points); err != nil {
				t.Fatalf("Run: %v", err)
			}
		})
	}
}

func TestEngine_TradeAlternation(t *testing.T) {
	gen := pricepath.NewGenerator(pricepath.DefaultOptions())
	points := gen.GenerateAt("ETH", 30, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	for _, name := range strategy.Names() {
		t.Run(name, func(t *testing.T) {
			out, err := NewEngine(strategy.FromName(name, strategy.Options{Seed: 7}), 10000).
				Run(context.Background(), points)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			for i, tr := range out.Trades {
				want := domain.SideBuy
				if i%2 == 1 {
					want = domain.SideSell
				}
				if tr.Side != want {
					t.Fatalf("trade %d: side %s, want %s", i, tr.Side, want)
				}
				if i > 0 && !tr.Timestamp.After(out.Trades[i-1].Timestamp) {
					t.Fatalf("trade %d not after previous", i)
				}
			}
		})
	}
}
