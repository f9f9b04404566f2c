package strategy

import (
	"context"
	"math/rand/v2"

	"backtest-lab/internal/domain"
)

// AIDriven is a stochastic placeholder for a model-driven strategy.
// On each bar it trades with probability 40%, picking BUY or SELL evenly.
// It owns its random source and is not safe for concurrent use; build one
// per run.
type AIDriven struct {
	rng *rand.Rand
}

// NewAIDriven creates an AIDriven strategy seeded with seed.
func NewAIDriven(seed uint64) *AIDriven {
	return &AIDriven{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Name implements Strategy.
func (s *AIDriven) Name() string { return NameAIDriven }

// SignalFor implements Strategy.
func (s *AIDriven) SignalFor(_ context.Context, _ []domain.PricePoint) domain.Signal {
	if s.rng.Float64() <= 0.6 {
		return domain.SignalHold
	}
	if s.rng.Float64() > 0.5 {
		return domain.SignalBuy
	}
	return domain.SignalSell
}

var _ Strategy = (*AIDriven)(nil)
