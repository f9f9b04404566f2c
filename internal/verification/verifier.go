// Package verification checks that archived price paths are reproduced
// exactly by the generator. Paths are seed-deterministic, so any divergence
// means the generation parameters or the generator itself changed.
package verification

import (
	"context"
	"fmt"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/idhash"
)

// maxPointDivergences caps per-point divergences recorded for one path.
const maxPointDivergences = 10

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name, e.g. "Close[12]"
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single path.
type VerificationResult struct {
	PathID           string            // verified path ID
	Symbol           string            // path symbol
	Match            bool              // true if all fields match
	Divergences      []FieldDivergence // list of divergent fields
	DivergentPoints  int               // points whose timestamp or close differ
	StoredChecksum   string            // checksum from the manifest
	ReplayedChecksum string            // checksum of the regenerated path
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalPaths     int                  // total paths verified
	MatchedPaths   int                  // paths that matched exactly
	DivergentPaths int                  // paths with divergences
	Results        []VerificationResult // individual results
}

// Verifier interface for path replay verification.
type Verifier interface {
	// VerifyPath verifies a single archived path by ID.
	// It loads the stored path, regenerates it with the manifest parameters,
	// and compares every point.
	VerifyPath(ctx context.Context, pathID string) (*VerificationResult, error)

	// VerifyAll verifies all archived paths.
	// Returns a report with individual results.
	VerifyAll(ctx context.Context) (*VerificationReport, error)
}

// ComparePaths compares a stored path against its regenerated counterpart.
// Closes are compared exactly.
func ComparePaths(m *domain.PathManifest, stored, replayed []domain.PricePoint) ([]FieldDivergence, int) {
	var divergences []FieldDivergence

	replayedID := idhash.ComputePathID(m.Symbol, m.DurationDays, m.Seed, m.Drift, m.Volatility, m.StartPrice, m.LastTimestampMs)
	if replayedID != m.PathID {
		divergences = append(divergences, FieldDivergence{
			Field:    "PathID",
			Expected: m.PathID,
			Actual:   replayedID,
		})
	}

	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{
			Field:    "PointCount",
			Expected: len(stored),
			Actual:   len(replayed),
		})
	}

	replayedChecksum := idhash.PriceChecksum(replayed)
	if m.Checksum != replayedChecksum {
		divergences = append(divergences, FieldDivergence{
			Field:    "Checksum",
			Expected: m.Checksum,
			Actual:   replayedChecksum,
		})
	}

	n := min(len(stored), len(replayed))
	divergentPoints := 0
	for i := 0; i < n; i++ {
		s, r := stored[i], replayed[i]
		pointDiverged := false

		if !s.Timestamp.Equal(r.Timestamp) {
			pointDiverged = true
			if divergentPoints < maxPointDivergences {
				divergences = append(divergences, FieldDivergence{
					Field:    fmt.Sprintf("Timestamp[%d]", i),
					Expected: s.Timestamp.UnixMilli(),
					Actual:   r.Timestamp.UnixMilli(),
				})
			}
		}
		if s.Close != r.Close {
			pointDiverged = true
			if divergentPoints < maxPointDivergences {
				divergences = append(divergences, FieldDivergence{
					Field:    fmt.Sprintf("Close[%d]", i),
					Expected: s.Close,
					Actual:   r.Close,
				})
			}
		}
		if pointDiverged {
			divergentPoints++
		}
	}

	return divergences, divergentPoints
}
