package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is an immutable, append-only record of one executed trade.
// Decimal values are stored as strings so records survive JSON round-trips
// without precision loss.
type TradeRecord struct {
	Timestamp  time.Time `json:"ts"`
	Pair       string    `json:"pair"`
	Action     Action    `json:"action"`
	Amount     string    `json:"amount"`
	Price      string    `json:"price"`
	QuoteAfter string    `json:"quote_after"`
	BaseAfter  string    `json:"base_after"`
}

// NewTradeRecord builds a trade record from in-memory decimal state.
func NewTradeRecord(ts time.Time, pair Pair, action Action, amount, price, quoteAfter, baseAfter decimal.Decimal) TradeRecord {
	return TradeRecord{
		Timestamp:  ts,
		Pair:       pair.String(),
		Action:     action,
		Amount:     amount.String(),
		Price:      price.String(),
		QuoteAfter: quoteAfter.String(),
		BaseAfter:  baseAfter.String(),
	}
}

// String returns a human-readable representation.
func (t *TradeRecord) String() string {
	return fmt.Sprintf("%s %s %s @ %s", t.Pair, t.Action, t.Amount, t.Price)
}

// TradeRecordEntry bundles a trade record with its store index.
type TradeRecordEntry struct {
	Index  uint64
	Record TradeRecord
}
