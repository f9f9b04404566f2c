// Package strategy turns a window of prices into per-bar trading signals.
package strategy

import (
	"context"

	"backtest-lab/internal/domain"
)

// Strategy produces a signal for the latest bar of a price window.
type Strategy interface {
	// SignalFor returns the signal for the last point of window.
	// window holds every point up to and including the current bar, oldest
	// first. Implementations must not modify it.
	SignalFor(ctx context.Context, window []domain.PricePoint) domain.Signal

	// Name returns the strategy label reported in results.
	Name() string
}

// lastTwo returns the previous and current close of window.
func lastTwo(window []domain.PricePoint) (prev, cur float64, ok bool) {
	if len(window) < 2 {
		return 0, 0, false
	}
	return window[len(window)-2].Close, window[len(window)-1].Close, true
}
