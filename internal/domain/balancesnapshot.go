package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is an immutable, append-only record of the simulated
// account state for a trading pair at one point in time.
type BalanceSnapshot struct {
	Timestamp  time.Time `json:"ts"`
	Pair       string    `json:"pair"`
	Quote      string    `json:"quote"`
	Base       string    `json:"base"`
	Price      string    `json:"price,omitempty"`
	TotalQuote string    `json:"total_quote,omitempty"`
}

// NewBalanceSnapshot builds a snapshot from in-memory decimal state.
// Total value is quote + base * price.
func NewBalanceSnapshot(ts time.Time, pair Pair, quote, base, price decimal.Decimal) BalanceSnapshot {
	total := quote.Add(base.Mul(price))
	return BalanceSnapshot{
		Timestamp:  ts,
		Pair:       pair.String(),
		Quote:      quote.String(),
		Base:       base.String(),
		Price:      price.String(),
		TotalQuote: total.String(),
	}
}

// Balances parses the persisted quote/base balances back into decimals.
func (s *BalanceSnapshot) Balances() (quote, base decimal.Decimal, err error) {
	quote, err = decimal.NewFromString(s.Quote)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	base, err = decimal.NewFromString(s.Base)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return quote, base, nil
}

// BalanceSnapshotRecord bundles a snapshot with its store index.
type BalanceSnapshotRecord struct {
	Index    uint64
	Snapshot BalanceSnapshot
}
