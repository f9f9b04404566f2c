package backtest

import (
	"context"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/strategy"
)

// TradeObserver is called for every trade as it is recorded.
type TradeObserver func(domain.Trade)

// Account is the single long/flat account of a run.
// Outside of a trade exactly one of Cash and PositionSize is positive.
type Account struct {
	State        domain.PositionState
	Cash         float64
	PositionSize float64 // units of the asset held
	EntryPrice   float64 // close of the open position's BUY, 0 when flat
}

// Value marks the account to market at price.
func (a Account) Value(price float64) float64 {
	return a.Cash + a.PositionSize*price
}

// Outcome holds the raw output of one engine pass.
type Outcome struct {
	Trades       []domain.Trade
	FinalBalance float64
	Account      Account
	Bars         int  // bars evaluated by the strategy
	Degenerate   bool // fewer than two price points, nothing traded
}

// Engine replays a strategy bar by bar against a price series.
// An Engine holds no run state; every Run owns its account and ledger.
type Engine struct {
	strategy       strategy.Strategy
	initialBalance float64
	observer       TradeObserver
	onBar          func(i int, acct Account) // test hook
}

// NewEngine creates a new engine for a strategy and starting cash.
func NewEngine(s strategy.Strategy, initialBalance float64) *Engine {
	return &Engine{
		strategy:       s,
		initialBalance: initialBalance,
	}
}

// WithTradeObserver sets a callback invoked for each recorded trade.
func (e *Engine) WithTradeObserver(fn TradeObserver) *Engine {
	e.observer = fn
	return e
}

// Run executes the strategy over points, which must be in strictly increasing
// timestamp order.
// The first point only provides the previous close; decisions start at the
// second point. BUY while flat invests all cash at the bar close and records
// the cash before the trade. SELL while long liquidates at the bar close and
// records the cash after the trade. Every other signal is ignored.
// The final balance marks any open position to the last close.
func (e *Engine) Run(ctx context.Context, points []domain.PricePoint) (*Outcome, error) {
	acct := Account{State: domain.PositionFlat, Cash: e.initialBalance}
	out := &Outcome{Trades: []domain.Trade{}}

	if len(points) < 2 {
		out.Degenerate = true
		out.Account = acct
		out.FinalBalance = e.initialBalance
		return out, nil
	}

	for i := 1; i < len(points); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bar := points[i]
		signal := e.strategy.SignalFor(ctx, points[:i+1])
		out.Bars++

		if trade, ok := step(&acct, signal, bar); ok {
			out.Trades = append(out.Trades, trade)
			observability.RecordTrade(string(trade.Side))
			if e.observer != nil {
				e.observer(trade)
			}
		}

		if e.onBar != nil {
			e.onBar(i, acct)
		}
	}

	out.Account = acct
	out.FinalBalance = acct.Value(points[len(points)-1].Close)
	return out, nil
}

// step applies one signal to the account and returns the resulting trade, if any.
func step(acct *Account, signal domain.Signal, bar domain.PricePoint) (domain.Trade, bool) {
	switch {
	case signal == domain.SignalBuy && acct.State == domain.PositionFlat:
		if bar.Close <= 0 || acct.Cash <= 0 {
			return domain.Trade{}, false
		}
		trade := domain.Trade{
			Timestamp: bar.Timestamp,
			Side:      domain.SideBuy,
			Price:     bar.Close,
			Balance:   acct.Cash,
		}
		acct.PositionSize = acct.Cash / bar.Close
		acct.EntryPrice = bar.Close
		acct.Cash = 0
		acct.State = domain.PositionLong
		return trade, true

	case signal == domain.SignalSell && acct.State == domain.PositionLong:
		acct.Cash = acct.PositionSize * bar.Close
		acct.PositionSize = 0
		acct.EntryPrice = 0
		acct.State = domain.PositionFlat
		return domain.Trade{
			Timestamp: bar.Timestamp,
			Side:      domain.SideSell,
			Price:     bar.Close,
			Balance:   acct.Cash,
		}, true
	}

	return domain.Trade{}, false
}
