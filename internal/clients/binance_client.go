// Package clients creates configured exchange API clients.
package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient creates a Binance spot client. Empty credentials yield a
// client limited to public market-data endpoints, which is enough for
// simulated trading.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}
