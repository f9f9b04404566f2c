package domain

import "time"

// PathManifest describes an archived synthetic price path.
// Corresponds to path_manifests table in PostgreSQL / SQLite.
type PathManifest struct {
	PathID           string    // base58 SHA256 of generation parameters
	Symbol           string    // upper-cased symbol
	DurationDays     int       // requested duration
	Seed             uint64    // generator seed
	Drift            float64   // per-step log-return mean
	Volatility       float64   // per-step log-return stddev
	StartPrice       float64   // price the walk is anchored to
	PointCount       int       // number of hourly points
	FirstTimestampMs int64     // first bar (ms)
	LastTimestampMs  int64     // last bar, the generation end time (ms)
	Checksum         string    // hex SHA256 of close prices
	CreatedAt        time.Time // set by storage
}

// PathPoint is one archived bar of a path.
// Corresponds to path_points table in ClickHouse / Parquet.
type PathPoint struct {
	PathID      string  // owning path
	Seq         int     // 0-based index within the path
	TimestampMs int64   // Unix timestamp in milliseconds
	Close       float64 // close price
}

// ToPricePoints converts archived points to a price series, preserving order.
func ToPricePoints(points []*PathPoint) []PricePoint {
	out := make([]PricePoint, len(points))
	for i, p := range points {
		out[i] = PricePoint{
			Timestamp: time.UnixMilli(p.TimestampMs).UTC(),
			Close:     p.Close,
		}
	}
	return out
}
