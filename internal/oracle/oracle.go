// Package oracle provides next-price predictors consulted by oracle-driven
// strategies. Oracles never mutate the caller's window.
package oracle

import (
	"context"
	"errors"
	"math"

	"backtest-lab/internal/domain"
)

// Oracle errors
var (
	ErrUnavailable       = errors.New("oracle unavailable")
	ErrEmptyWindow       = errors.New("empty price window")
	ErrInvalidPrediction = errors.New("invalid prediction")
)

// Prediction is a forecast of the next close.
type Prediction struct {
	Price      float64 // predicted next close
	Confidence float64 // [0, 1]
}

// Oracle predicts the next close from a window of past closes.
type Oracle interface {
	// PredictNext returns a prediction for the bar following window.
	// Implementations must not retain or modify window.
	PredictNext(ctx context.Context, window []float64) (Prediction, error)
}

// Validate checks that a prediction is usable.
func (p Prediction) Validate() error {
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
		return ErrInvalidPrediction
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return ErrInvalidPrediction
	}
	return nil
}

// Classify maps a predicted price against the last close to a signal:
// BUY above last*(1+buyThreshold), SELL below last*(1-sellThreshold),
// HOLD otherwise.
func Classify(predicted, last, buyThreshold, sellThreshold float64) domain.Signal {
	switch {
	case predicted > last*(1+buyThreshold):
		return domain.SignalBuy
	case predicted < last*(1-sellThreshold):
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// copyWindow returns a private copy of window.
func copyWindow(window []float64) []float64 {
	out := make([]float64, len(window))
	copy(out, window)
	return out
}
