package trader

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

// BybitTrader forwards market orders to Bybit spot. The mark price is
// ignored; fills happen at the exchange price.
type BybitTrader struct {
	client *bybit.Client
	pair   domain.Pair
}

// NewBybitTrader creates a live execution gateway for the pair.
func NewBybitTrader(client *bybit.Client, pair domain.Pair) *BybitTrader {
	return &BybitTrader{client: client, pair: pair}
}

func (t *BybitTrader) Buy(ctx context.Context, amount, _ decimal.Decimal) error {
	_, err := t.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:  bybit.CategoryV5Spot,
		Symbol:    bybit.SymbolV5(t.pair.Symbol()),
		Side:      bybit.SideBuy,
		OrderType: bybit.OrderTypeMarket,
		Qty:       amount.RoundFloor(4).String(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create buy order")
	}
	return nil
}

func (t *BybitTrader) Sell(ctx context.Context, amount, _ decimal.Decimal) error {
	_, err := t.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:  bybit.CategoryV5Spot,
		Symbol:    bybit.SymbolV5(t.pair.Symbol()),
		Side:      bybit.SideSell,
		OrderType: bybit.OrderTypeMarket,
		Qty:       amount.RoundFloor(4).String(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create sell order")
	}
	return nil
}
