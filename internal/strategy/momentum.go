package strategy

import (
	"context"

	"backtest-lab/internal/domain"
)

// Momentum buys on any uptick and sells otherwise.
type Momentum struct{}

// NewMomentum creates a new Momentum strategy.
func NewMomentum() *Momentum {
	return &Momentum{}
}

// Name implements Strategy.
func (s *Momentum) Name() string { return NameMomentum }

// SignalFor implements Strategy. A flat bar counts as a down bar.
func (s *Momentum) SignalFor(_ context.Context, window []domain.PricePoint) domain.Signal {
	prev, cur, ok := lastTwo(window)
	if !ok {
		return domain.SignalHold
	}
	if cur > prev {
		return domain.SignalBuy
	}
	return domain.SignalSell
}

var _ Strategy = (*Momentum)(nil)
