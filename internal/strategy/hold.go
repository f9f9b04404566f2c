package strategy

import (
	"context"

	"backtest-lab/internal/domain"
)

// Hold never trades. It stands in for unrecognized strategy names.
type Hold struct {
	name string
}

// NewHold creates a Hold strategy reported under name.
func NewHold(name string) *Hold {
	return &Hold{name: name}
}

// Name implements Strategy.
func (s *Hold) Name() string { return s.name }

// SignalFor implements Strategy.
func (s *Hold) SignalFor(context.Context, []domain.PricePoint) domain.Signal {
	return domain.SignalHold
}

var _ Strategy = (*Hold)(nil)
