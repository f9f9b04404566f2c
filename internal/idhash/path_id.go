package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/mr-tron/base58"

	"backtest-lab/internal/domain"
)

// ComputePathID computes a deterministic path_id using SHA256.
// Formula: SHA256(symbol|duration_days|seed|drift|volatility|start_price|end_ms)
// Returns base58-encoded hash.
func ComputePathID(
	symbol string,
	durationDays int,
	seed uint64,
	drift float64,
	volatility float64,
	startPrice float64,
	endMs int64,
) string {
	data := fmt.Sprintf("%s|%d|%d|%s|%s|%s|%d",
		symbol,
		durationDays,
		seed,
		formatFloat(drift),
		formatFloat(volatility),
		formatFloat(startPrice),
		endMs,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// PriceChecksum hashes the IEEE-754 bits of every close in order.
// Returns hex-encoded hash (64 characters). Empty series hash to the SHA256
// of no input.
func PriceChecksum(points []domain.PricePoint) string {
	h := sha256.New()
	var buf [8]byte
	for _, p := range points {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(p.Close))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// formatFloat renders a float exactly so distinct values never collide.
func formatFloat(f float64) string {
	return fmt.Sprintf("%x", math.Float64bits(f))
}
