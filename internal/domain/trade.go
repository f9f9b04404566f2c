package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TradeDateLayout is the layout of Trade.Timestamp in serialized ledgers.
const TradeDateLayout = "2006-01-02 15:04:05"

// Side is the direction of an executed trade.
type Side string

// Trade sides
const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one executed ledger entry.
// BUY records the cash balance before the purchase, SELL the cash balance
// after the sale.
type Trade struct {
	Timestamp time.Time // bar time of execution
	Side      Side      // BUY | SELL
	Price     float64   // execution price (bar close)
	Balance   float64   // cash balance, see above
}

type tradeJSON struct {
	Date    string  `json:"date"`
	Type    Side    `json:"type"`
	Price   float64 `json:"price"`
	Balance float64 `json:"balance"`
}

// MarshalJSON encodes the trade with the ledger keys date/type/price/balance.
func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(tradeJSON{
		Date:    t.Timestamp.UTC().Format(TradeDateLayout),
		Type:    t.Side,
		Price:   t.Price,
		Balance: t.Balance,
	})
}

// UnmarshalJSON decodes a ledger entry produced by MarshalJSON.
func (t *Trade) UnmarshalJSON(data []byte) error {
	var raw tradeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(TradeDateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("parse trade date %q: %w", raw.Date, err)
	}
	t.Timestamp = ts
	t.Side = raw.Type
	t.Price = raw.Price
	t.Balance = raw.Balance
	return nil
}
