package idhash

import "github.com/google/uuid"

// NewRunID returns a random identifier for one backtest invocation.
// Run IDs tag log lines and websocket sessions; they are never persisted.
func NewRunID() string {
	return uuid.NewString()
}
