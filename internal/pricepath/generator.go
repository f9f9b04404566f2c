// Package pricepath synthesizes hourly price paths with a seeded geometric
// random walk.
package pricepath

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"backtest-lab/internal/domain"
)

// Generation defaults
const (
	DefaultSeed          uint64  = 42
	DefaultDrift         float64 = 0.0002
	DefaultVolatility    float64 = 0.02
	DefaultFallbackPrice float64 = 100
	StepsPerDay                  = 24
)

// defaultStartPrices anchors known symbols near realistic levels.
var defaultStartPrices = map[string]float64{
	"BTC":  65000,
	"ETH":  3500,
	"SOL":  145,
	"ADA":  0.45,
	"XRP":  0.60,
	"DOGE": 0.12,
	"DOT":  7.50,
}

// Options configures a Generator.
type Options struct {
	Seed          uint64
	Drift         float64            // mean of per-step log-returns
	Volatility    float64            // stddev of per-step log-returns
	FallbackPrice float64            // start price for symbols missing from the table
	StartPrices   map[string]float64 // merged over the built-in table
}

// DefaultOptions returns the standard generation parameters.
func DefaultOptions() Options {
	return Options{
		Seed:          DefaultSeed,
		Drift:         DefaultDrift,
		Volatility:    DefaultVolatility,
		FallbackPrice: DefaultFallbackPrice,
	}
}

// Generator produces synthetic price paths.
// A Generator holds no mutable random state; every call seeds its own source,
// so one Generator is safe for concurrent use.
type Generator struct {
	opts        Options
	startPrices map[string]float64
	now         func() time.Time
}

// NewGenerator creates a new Generator.
func NewGenerator(opts Options) *Generator {
	if opts.FallbackPrice <= 0 {
		opts.FallbackPrice = DefaultFallbackPrice
	}

	prices := make(map[string]float64, len(defaultStartPrices)+len(opts.StartPrices))
	for k, v := range defaultStartPrices {
		prices[k] = v
	}
	for k, v := range opts.StartPrices {
		if v > 0 {
			prices[strings.ToUpper(k)] = v
		}
	}
	opts.StartPrices = nil

	return &Generator{
		opts:        opts,
		startPrices: prices,
		now:         time.Now,
	}
}

// WithClock sets a custom clock function for deterministic timestamps.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Options returns the generation parameters.
func (g *Generator) Options() Options {
	return g.opts
}

// StartPrice returns the anchor price for a symbol.
func (g *Generator) StartPrice(symbol string) float64 {
	if p, ok := g.startPrices[strings.ToUpper(symbol)]; ok {
		return p
	}
	return g.opts.FallbackPrice
}

// Generate returns durationDays*24 hourly points ending at the current clock time.
func (g *Generator) Generate(symbol string, durationDays int) []domain.PricePoint {
	return g.GenerateAt(symbol, durationDays, g.now())
}

// GenerateAt returns durationDays*24 hourly points, the last one at end.
// Prices depend only on the seed, drift, volatility and start price:
//
//	price[i] = start * exp(r[0] + ... + r[i]),  r ~ Normal(drift, volatility)
//
// so the first point already carries one step of the walk.
// durationDays <= 0 yields an empty series.
func (g *Generator) GenerateAt(symbol string, durationDays int, end time.Time) []domain.PricePoint {
	if durationDays <= 0 {
		return []domain.PricePoint{}
	}

	n := durationDays * StepsPerDay
	end = end.UTC().Truncate(time.Millisecond)
	start := g.StartPrice(symbol)

	rng := rand.New(rand.NewPCG(g.opts.Seed, g.opts.Seed))

	points := make([]domain.PricePoint, n)
	cum := 0.0
	for i := 0; i < n; i++ {
		cum += g.opts.Drift + g.opts.Volatility*rng.NormFloat64()
		points[i] = domain.PricePoint{
			Timestamp: end.Add(-time.Duration(n-1-i) * time.Hour),
			Close:     start * math.Exp(cum),
		}
	}

	return points
}
