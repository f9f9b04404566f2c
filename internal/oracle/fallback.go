package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"backtest-lab/internal/observability"
)

// Fallback reasons recorded in metrics and logs.
const (
	ReasonError   = "error"
	ReasonTimeout = "timeout"
	ReasonPanic   = "panic"
	ReasonInvalid = "invalid"
)

// Fallback consults a primary oracle under a deadline and substitutes the
// secondary oracle's prediction whenever the primary fails. PredictNext
// never returns the primary's error.
type Fallback struct {
	primary   Oracle
	secondary Oracle
	timeout   time.Duration
	name      string
	logger    zerolog.Logger
}

// FallbackOption configures Fallback.
type FallbackOption func(*Fallback)

// WithDeadline bounds each primary call.
func WithDeadline(d time.Duration) FallbackOption {
	return func(f *Fallback) {
		f.timeout = d
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l zerolog.Logger) FallbackOption {
	return func(f *Fallback) {
		f.logger = l
	}
}

// WithName sets the primary's label in metrics.
func WithName(name string) FallbackOption {
	return func(f *Fallback) {
		f.name = name
	}
}

// NewFallback wraps primary with secondary.
func NewFallback(primary, secondary Oracle, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary:   primary,
		secondary: secondary,
		timeout:   DefaultTimeout,
		name:      "primary",
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type result struct {
	pred Prediction
	err  error
}

// PredictNext implements Oracle.
func (f *Fallback) PredictNext(ctx context.Context, window []float64) (Prediction, error) {
	start := time.Now()
	pred, reason, err := f.tryPrimary(ctx, window)
	observability.RecordOracleLatency(f.name, time.Since(start).Seconds())

	if reason == "" {
		observability.RecordOraclePrediction(f.name)
		return pred, nil
	}

	observability.RecordOracleFallback(reason)
	f.logger.Warn().Err(err).Str("reason", reason).Msg("oracle fallback")

	pred, err = f.secondary.PredictNext(ctx, copyWindow(window))
	if err != nil || pred.Validate() != nil {
		// Neutral prediction: last close with zero confidence never trades.
		if len(window) == 0 {
			return Prediction{}, nil
		}
		return Prediction{Price: window[len(window)-1], Confidence: 0}, nil
	}
	observability.RecordOraclePrediction("fallback")
	return pred, nil
}

// tryPrimary runs the primary in its own goroutine so a call that ignores
// its context still cannot stall the run past the deadline.
func (f *Fallback) tryPrimary(ctx context.Context, window []float64) (Prediction, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &panicError{value: r}}
			}
		}()
		pred, err := f.primary.PredictNext(ctx, copyWindow(window))
		done <- result{pred: pred, err: err}
	}()

	select {
	case <-ctx.Done():
		return Prediction{}, ReasonTimeout, ctx.Err()
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return Prediction{}, ReasonTimeout, res.err
			}
			if isPanic(res.err) {
				return Prediction{}, ReasonPanic, res.err
			}
			return Prediction{}, ReasonError, res.err
		}
		if err := res.pred.Validate(); err != nil {
			return Prediction{}, ReasonInvalid, err
		}
		return res.pred, "", nil
	}
}

// panicError carries a value recovered from a panicking oracle.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("oracle panic: %v", e.value)
}

func isPanic(err error) bool {
	var pe *panicError
	return errors.As(err, &pe)
}

var _ Oracle = (*Fallback)(nil)
