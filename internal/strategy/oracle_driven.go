package strategy

import (
	"context"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/oracle"
)

// OracleDriven trades on next-price predictions from an oracle.
// It buys when the prediction clears the last close by BuyThreshold and
// sells when it falls short by SellThreshold, in both cases only when the
// oracle's confidence reaches MinConfidence.
type OracleDriven struct {
	oracle        oracle.Oracle
	fallback      oracle.Oracle
	Window        int
	MinConfidence float64
	BuyThreshold  float64
	SellThreshold float64
}

// Oracle-driven defaults
const (
	DefaultOracleWindow    = 60
	DefaultMinConfidence   = 0.5
	DefaultOracleThreshold = 0.02
)

// NewOracleDriven creates an OracleDriven strategy backed by o.
// A nil oracle uses the heuristic oracle.
func NewOracleDriven(o oracle.Oracle) *OracleDriven {
	heuristic := oracle.NewHeuristicOracle()
	if o == nil {
		o = heuristic
	}
	return &OracleDriven{
		oracle:        o,
		fallback:      heuristic,
		Window:        DefaultOracleWindow,
		MinConfidence: DefaultMinConfidence,
		BuyThreshold:  DefaultOracleThreshold,
		SellThreshold: DefaultOracleThreshold,
	}
}

// Name implements Strategy.
func (s *OracleDriven) Name() string { return NameAIOracle }

// SignalFor implements Strategy.
func (s *OracleDriven) SignalFor(ctx context.Context, window []domain.PricePoint) domain.Signal {
	if len(window) < 2 {
		return domain.SignalHold
	}

	start := 0
	if s.Window > 0 && len(window) > s.Window {
		start = len(window) - s.Window
	}
	closes := domain.Closes(window[start:])
	last := closes[len(closes)-1]

	pred, err := s.oracle.PredictNext(ctx, closes)
	if err != nil || pred.Validate() != nil {
		pred, err = s.fallback.PredictNext(ctx, closes)
		if err != nil {
			return domain.SignalHold
		}
	}

	if pred.Confidence < s.MinConfidence {
		return domain.SignalHold
	}
	return oracle.Classify(pred.Price, last, s.BuyThreshold, s.SellThreshold)
}

var _ Strategy = (*OracleDriven)(nil)
