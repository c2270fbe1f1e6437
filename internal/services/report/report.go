// Package report summarizes a symbol's persisted history into a
// point-in-time performance report.
package report

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
	"github.com/beborico1/crypto-trading-bot/internal/storage/ledger"
)

var hundred = decimal.NewFromInt(100)

// Report is a point-in-time performance summary for one symbol, derived
// entirely from the persisted ledger.
type Report struct {
	Pair         string          `json:"pair"`
	InitialValue decimal.Decimal `json:"initial_value"`
	CurrentValue decimal.Decimal `json:"current_value"`
	ReturnPct    decimal.Decimal `json:"return_pct"`
	Buys         int             `json:"buys"`
	Sells        int             `json:"sells"`
	Snapshots    int             `json:"snapshots"`
}

// Build derives a performance report from an exported history. It fails when
// the history holds no balance snapshots yet.
func Build(exp ledger.Export) (Report, error) {
	if len(exp.Balances) == 0 {
		return Report{}, errors.Errorf("no balance history for %s", exp.Pair)
	}

	initial, err := totalValue(exp.Balances[0])
	if err != nil {
		return Report{}, errors.Wrap(err, "decode initial snapshot")
	}
	current, err := totalValue(exp.Balances[len(exp.Balances)-1])
	if err != nil {
		return Report{}, errors.Wrap(err, "decode latest snapshot")
	}

	r := Report{
		Pair:         exp.Pair,
		InitialValue: initial,
		CurrentValue: current,
		Snapshots:    len(exp.Balances),
	}
	if initial.IsPositive() {
		r.ReturnPct = current.Sub(initial).Div(initial).Mul(hundred)
	}

	for _, t := range exp.Transactions {
		switch t.Action {
		case domain.ActionBuy:
			r.Buys++
		case domain.ActionSell:
			r.Sells++
		}
	}
	return r, nil
}

// String renders the report on one line for log output.
func (r Report) String() string {
	return fmt.Sprintf("%s value %s -> %s (%s%%), %d buys, %d sells",
		r.Pair, r.InitialValue.StringFixed(2), r.CurrentValue.StringFixed(2),
		r.ReturnPct.StringFixed(2), r.Buys, r.Sells)
}

// totalValue returns the snapshot's total account value in quote currency,
// recomputing it from quote/base/price when the stored total is missing.
func totalValue(snap domain.BalanceSnapshot) (decimal.Decimal, error) {
	if snap.TotalQuote != "" {
		return decimal.NewFromString(snap.TotalQuote)
	}

	quote, base, err := snap.Balances()
	if err != nil {
		return decimal.Zero, err
	}
	if snap.Price == "" {
		return quote, nil
	}
	price, err := decimal.NewFromString(snap.Price)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.Add(base.Mul(price)), nil
}
