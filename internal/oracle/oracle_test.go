package oracle

import (
	"context"
	"errors"
	"math"
	"testing"

	"backtest-lab/internal/domain"
)

func TestHeuristicOracle_Uptrend(t *testing.T) {
	o := NewHeuristicOracle()
	window := []float64{100, 101, 102, 103, 104}

	pred, err := o.PredictNext(context.Background(), window)
	if err != nil {
		t.Fatalf("PredictNext: %v", err)
	}
	if pred.Price <= 104 {
		t.Errorf("expected extrapolated price above 104, got %v", pred.Price)
	}
	if pred.Confidence != 1 {
		t.Errorf("expected confidence 1 for monotonic window, got %v", pred.Confidence)
	}
}

func TestHeuristicOracle_Mixed(t *testing.T) {
	o := NewHeuristicOracle()
	// returns: up, down, up, up
	window := []float64{100, 102, 101, 103, 105}

	pred, err := o.PredictNext(context.Background(), window)
	if err != nil {
		t.Fatalf("PredictNext: %v", err)
	}
	if math.Abs(pred.Confidence-0.75) > 1e-12 {
		t.Errorf("confidence = %v, want 0.75", pred.Confidence)
	}
	if err := pred.Validate(); err != nil {
		t.Errorf("prediction should be valid: %v", err)
	}
}

func TestHeuristicOracle_EdgeWindows(t *testing.T) {
	o := NewHeuristicOracle()

	if _, err := o.PredictNext(context.Background(), nil); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow, got %v", err)
	}

	pred, err := o.PredictNext(context.Background(), []float64{50})
	if err != nil {
		t.Fatalf("PredictNext: %v", err)
	}
	if pred.Price != 50 || pred.Confidence != 0 {
		t.Errorf("single point should predict last with zero confidence, got %+v", pred)
	}
}

func TestHeuristicOracle_DoesNotMutateWindow(t *testing.T) {
	o := NewHeuristicOracle()
	window := []float64{1, 2, 3}

	_, _ = o.PredictNext(context.Background(), window)

	if window[0] != 1 || window[1] != 2 || window[2] != 3 {
		t.Errorf("window mutated: %v", window)
	}
}

func TestRandomOracle_SeededAndBounded(t *testing.T) {
	a := NewRandomOracle(42)
	b := NewRandomOracle(42)
	window := []float64{100}

	for i := 0; i < 50; i++ {
		pa, err := a.PredictNext(context.Background(), window)
		if err != nil {
			t.Fatalf("PredictNext: %v", err)
		}
		pb, _ := b.PredictNext(context.Background(), window)
		if pa != pb {
			t.Fatalf("same seed diverged at %d: %+v vs %+v", i, pa, pb)
		}
		if pa.Price < 97 || pa.Price > 103 {
			t.Errorf("price out of ±3%% band: %v", pa.Price)
		}
		if err := pa.Validate(); err != nil {
			t.Errorf("invalid prediction: %+v", pa)
		}
	}
}

func TestPrediction_Validate(t *testing.T) {
	tests := []struct {
		name  string
		pred  Prediction
		valid bool
	}{
		{"ok", Prediction{Price: 1, Confidence: 0.5}, true},
		{"zero price", Prediction{Price: 0, Confidence: 0.5}, false},
		{"nan price", Prediction{Price: math.NaN(), Confidence: 0.5}, false},
		{"inf price", Prediction{Price: math.Inf(1), Confidence: 0.5}, false},
		{"confidence above one", Prediction{Price: 1, Confidence: 1.1}, false},
		{"negative confidence", Prediction{Price: 1, Confidence: -0.1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pred.Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidPrediction) {
				t.Errorf("expected ErrInvalidPrediction, got %v", err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		predicted float64
		want      domain.Signal
	}{
		{103, domain.SignalBuy},
		{101.9, domain.SignalHold},
		{100, domain.SignalHold},
		{98.1, domain.SignalHold},
		{97, domain.SignalSell},
	}
	for _, tt := range tests {
		if got := Classify(tt.predicted, 100, 0.02, 0.02); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.predicted, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New("heuristic", Options{}); err != nil {
		t.Errorf("heuristic: %v", err)
	}
	if _, err := New("RANDOM", Options{Seed: 1}); err != nil {
		t.Errorf("random: %v", err)
	}
	if _, err := New("http", Options{}); !errors.Is(err, ErrMissingURL) {
		t.Errorf("expected ErrMissingURL, got %v", err)
	}
	o, err := New("http", Options{URL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	if _, ok := o.(*Fallback); !ok {
		t.Errorf("http oracle should be wrapped in Fallback, got %T", o)
	}
	if _, err := New("lstm", Options{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}
