package trader

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

// BinanceTrader forwards market orders to Binance spot. The mark price is
// ignored; fills happen at the exchange price.
type BinanceTrader struct {
	client *binance.Client
	pair   domain.Pair
}

// NewBinanceTrader creates a live execution gateway for the pair.
func NewBinanceTrader(client *binance.Client, pair domain.Pair) *BinanceTrader {
	return &BinanceTrader{client: client, pair: pair}
}

func (t *BinanceTrader) Buy(ctx context.Context, amount, _ decimal.Decimal) error {
	_, err := t.client.NewCreateOrderService().Symbol(t.pair.Symbol()).
		Side(binance.SideTypeBuy).Type(binance.OrderTypeMarket).
		Quantity(amount.RoundFloor(4).String()).
		Do(ctx)
	return err
}

func (t *BinanceTrader) Sell(ctx context.Context, amount, _ decimal.Decimal) error {
	_, err := t.client.NewCreateOrderService().Symbol(t.pair.Symbol()).
		Side(binance.SideTypeSell).Type(binance.OrderTypeMarket).
		Quantity(amount.RoundFloor(4).String()).
		Do(ctx)
	return err
}
