package domain

// Signal is the per-bar instruction a strategy emits.
type Signal int

// Signal values.
const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

// String returns the upper-case signal label.
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// PositionState describes whether the account currently holds the asset.
type PositionState int

// Position states. The account is either fully in cash or fully invested.
const (
	PositionFlat PositionState = iota
	PositionLong
)

// String returns the upper-case state label.
func (p PositionState) String() string {
	if p == PositionLong {
		return "LONG"
	}
	return "FLAT"
}
