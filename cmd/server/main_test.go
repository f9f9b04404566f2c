package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"backtest-lab/internal/config"
	"backtest-lab/internal/oracle"
)

func TestPredictorFor(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{config.OracleHeuristic, "*oracle.HeuristicOracle"},
		{config.OracleRandom, "*oracle.RandomOracle"},
		{config.OracleHTTP, "*oracle.HeuristicOracle"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			o, err := predictorFor(config.Oracle{Kind: tt.kind, URL: "http://localhost:8080"}, zerolog.Nop())
			if err != nil {
				t.Fatalf("predictorFor: %v", err)
			}
			if got := typeName(o); got != tt.want {
				t.Errorf("predictor = %s, want %s", got, tt.want)
			}
			if _, err := o.PredictNext(context.Background(), []float64{1, 2, 3}); err != nil {
				t.Errorf("PredictNext: %v", err)
			}
		})
	}
}

func TestBootLogger(t *testing.T) {
	// Usable before any configuration is loaded.
	l := bootLogger()
	if got := l.GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("boot logger level = %v, want info", got)
	}
}

func typeName(o oracle.Oracle) string {
	switch o.(type) {
	case *oracle.HeuristicOracle:
		return "*oracle.HeuristicOracle"
	case *oracle.RandomOracle:
		return "*oracle.RandomOracle"
	default:
		return "other"
	}
}
