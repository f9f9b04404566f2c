package oracle

import (
	"context"
	"math"
)

// HeuristicOracle extrapolates the mean log-return of the window one step.
// Confidence is the share of window returns whose sign agrees with that drift.
type HeuristicOracle struct{}

// NewHeuristicOracle creates a new HeuristicOracle.
func NewHeuristicOracle() *HeuristicOracle {
	return &HeuristicOracle{}
}

// PredictNext implements Oracle.
func (o *HeuristicOracle) PredictNext(_ context.Context, window []float64) (Prediction, error) {
	if len(window) == 0 {
		return Prediction{}, ErrEmptyWindow
	}
	last := window[len(window)-1]
	if len(window) == 1 {
		return Prediction{Price: last, Confidence: 0}, nil
	}

	var returns []float64
	for i := 1; i < len(window); i++ {
		if window[i-1] <= 0 || window[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(window[i]/window[i-1]))
	}
	if len(returns) == 0 {
		return Prediction{Price: last, Confidence: 0}, nil
	}

	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	drift := sum / float64(len(returns))

	agree := 0
	for _, r := range returns {
		if (drift > 0 && r > 0) || (drift < 0 && r < 0) {
			agree++
		}
	}

	return Prediction{
		Price:      last * math.Exp(drift),
		Confidence: float64(agree) / float64(len(returns)),
	}, nil
}

var _ Oracle = (*HeuristicOracle)(nil)
