// Package trader contains the execution adapters: a simulated account that
// fills orders against the persistent ledger and a live Binance gateway.
package trader

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Trader executes buy/sell orders for one symbol at a given mark price.
type Trader interface {
	Buy(ctx context.Context, amount, price decimal.Decimal) error
	Sell(ctx context.Context, amount, price decimal.Decimal) error
}

// ErrInsufficientBalance is returned when an order would exceed available
// funds or holdings. The account is left unchanged.
var ErrInsufficientBalance = errors.New("insufficient balance")
