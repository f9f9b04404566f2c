package strategy

import (
	"strings"

	"backtest-lab/internal/oracle"
)

// Canonical strategy names
const (
	NameMomentum      = "Momentum"
	NameMeanReversion = "Mean Reversion"
	NameAIDriven      = "AI Driven"
	NameAIOracle      = "AI Oracle"
)

// Options carries per-run dependencies for FromName.
type Options struct {
	Seed          uint64        // AI Driven random source
	Oracle        oracle.Oracle // AI Oracle predictor, nil → heuristic
	OracleWindow  int
	MinConfidence float64
	BuyThreshold  float64
	SellThreshold float64
}

// Names lists the recognized strategy labels.
func Names() []string {
	return []string{NameMomentum, NameMeanReversion, NameAIDriven, NameAIOracle}
}

// Canonical returns the canonical label for name and whether it is one of
// the recognized strategies.
// Matching ignores case and surrounding space, and treats '-' and '_' as spaces.
func Canonical(name string) (string, bool) {
	switch normalizeName(name) {
	case "momentum":
		return NameMomentum, true
	case "mean reversion":
		return NameMeanReversion, true
	case "ai driven":
		return NameAIDriven, true
	case "ai oracle":
		return NameAIOracle, true
	default:
		return name, false
	}
}

// FromName creates a Strategy from its label, see Canonical.
// Unknown names yield a Hold strategy that keeps the given name; this never
// fails.
func FromName(name string, opts Options) Strategy {
	canonical, _ := Canonical(name)
	switch canonical {
	case NameMomentum:
		return NewMomentum()
	case NameMeanReversion:
		return NewMeanReversion()
	case NameAIDriven:
		return NewAIDriven(opts.Seed)
	case NameAIOracle:
		return fromOracleOptions(opts)
	default:
		return NewHold(name)
	}
}

// fromOracleOptions creates OracleDriven from options, keeping defaults for
// zero values.
func fromOracleOptions(opts Options) *OracleDriven {
	s := NewOracleDriven(opts.Oracle)
	if opts.OracleWindow > 0 {
		s.Window = opts.OracleWindow
	}
	if opts.MinConfidence > 0 {
		s.MinConfidence = opts.MinConfidence
	}
	if opts.BuyThreshold > 0 {
		s.BuyThreshold = opts.BuyThreshold
	}
	if opts.SellThreshold > 0 {
		s.SellThreshold = opts.SellThreshold
	}
	return s
}

// normalizeName lower-cases and collapses separators.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
