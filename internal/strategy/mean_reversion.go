package strategy

import (
	"context"

	"backtest-lab/internal/domain"
)

// DefaultReversionThreshold is the bar-to-bar move that triggers a trade.
const DefaultReversionThreshold = 0.01

// MeanReversion buys after a sharp drop and sells after a sharp spike.
type MeanReversion struct {
	Threshold float64 // fractional move, 0.01 = 1%
}

// NewMeanReversion creates a MeanReversion strategy with the default threshold.
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{Threshold: DefaultReversionThreshold}
}

// Name implements Strategy.
func (s *MeanReversion) Name() string { return NameMeanReversion }

// SignalFor implements Strategy.
// change = (cur - prev) / prev; BUY below -Threshold, SELL above +Threshold.
func (s *MeanReversion) SignalFor(_ context.Context, window []domain.PricePoint) domain.Signal {
	prev, cur, ok := lastTwo(window)
	if !ok || prev == 0 {
		return domain.SignalHold
	}

	change := (cur - prev) / prev
	switch {
	case change < -s.Threshold:
		return domain.SignalBuy
	case change > s.Threshold:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

var _ Strategy = (*MeanReversion)(nil)
