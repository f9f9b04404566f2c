package domain

import "time"

// PricePoint is one bar of a synthetic price path.
// Timestamps are strictly increasing within a series, Close is always > 0.
type PricePoint struct {
	Timestamp time.Time // bar close time
	Close     float64   // close price
}

// Closes extracts the close prices of a series into a fresh slice.
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}
