package oracle

import (
	"context"
	"math/rand/v2"
	"sync"
)

// RandomOracle is a stub that perturbs the last close by up to ±3%.
// It owns its random source, so two oracles with the same seed agree.
type RandomOracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomOracle creates a RandomOracle seeded with seed.
func NewRandomOracle(seed uint64) *RandomOracle {
	return &RandomOracle{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// PredictNext implements Oracle.
func (o *RandomOracle) PredictNext(_ context.Context, window []float64) (Prediction, error) {
	if len(window) == 0 {
		return Prediction{}, ErrEmptyWindow
	}
	last := window[len(window)-1]

	o.mu.Lock()
	change := o.rng.Float64()*0.06 - 0.03
	confidence := o.rng.Float64()
	o.mu.Unlock()

	return Prediction{
		Price:      last * (1 + change),
		Confidence: confidence,
	}, nil
}

var _ Oracle = (*RandomOracle)(nil)
