package oracle

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Factory errors
var (
	ErrUnknownKind = errors.New("unknown oracle kind")
	ErrMissingURL  = errors.New("http oracle requires URL")
)

// Options configures New.
type Options struct {
	URL     string
	Symbol  string
	Seed    uint64
	Timeout time.Duration
	// MaxRetries bounds retries of the http oracle; the fallback deadline
	// grows with it.
	MaxRetries int
	Logger     zerolog.Logger
}

// New builds an oracle by kind: heuristic, random or http.
// The http oracle is always wrapped in a Fallback to the heuristic oracle.
func New(kind string, opts Options) (Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "heuristic":
		return NewHeuristicOracle(), nil
	case "random":
		return NewRandomOracle(opts.Seed), nil
	case "http":
		if opts.URL == "" {
			return nil, ErrMissingURL
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		retries := max(opts.MaxRetries, 0)
		client := NewHTTPClient(opts.URL,
			WithTimeout(timeout),
			WithSymbol(opts.Symbol),
			WithMaxRetries(retries),
		)
		return NewFallback(client, NewHeuristicOracle(),
			WithDeadline(timeout*time.Duration(retries+1)),
			WithName("http"),
			WithLogger(opts.Logger),
		), nil
	default:
		return nil, ErrUnknownKind
	}
}
