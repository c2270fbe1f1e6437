// Package market fetches candlestick data from an exchange and derives the
// indicator snapshot consumed by one control-loop tick.
package market

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

// fetchTimeout bounds a single kline request.
const fetchTimeout = 30 * time.Second

// minLookback guarantees enough warmup candles for EMA convergence even
// with short windows.
const minLookback = 50

// KlineSource fetches raw candles for a trading pair, oldest first.
// interval uses Binance notation (e.g. "1m", "5m", "1h", "4h").
type KlineSource interface {
	Klines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error)
}

// Windows holds the indicator lookbacks for one strategy mode.
type Windows struct {
	ShortMA    int
	LongMA     int
	Oscillator int
	Bands      int
}

// WindowsFor returns the indicator windows used by each mode. Scalping and
// high-frequency shorten everything so the signal reacts within minutes.
func WindowsFor(mode domain.StrategyMode) Windows {
	switch mode {
	case domain.ModeScalping:
		return Windows{ShortMA: 3, LongMA: 8, Oscillator: 7, Bands: 10}
	case domain.ModeHighFrequency:
		return Windows{ShortMA: 3, LongMA: 5, Oscillator: 5, Bands: 10}
	default:
		return Windows{ShortMA: 3, LongMA: 10, Oscillator: 14, Bands: 20}
	}
}

// Lookback returns the number of candles to request so every indicator
// group has enough data.
func (w Windows) Lookback() int {
	n := w.LongMA + 2
	if v := w.Oscillator + 2; v > n {
		n = v
	}
	if v := w.Bands + 1; v > n {
		n = v
	}
	if n < minLookback {
		n = minLookback
	}
	return n
}

// Collector combines a kline source with indicator computation for one pair.
type Collector struct {
	source   KlineSource
	pair     domain.Pair
	interval string
	windows  Windows
	oversold float64
}

// NewCollector creates a collector for the pair. Indicator windows are
// derived from the strategy mode in params.
func NewCollector(source KlineSource, pair domain.Pair, interval string, params domain.StrategyParams) *Collector {
	return &Collector{
		source:   source,
		pair:     pair,
		interval: interval,
		windows:  WindowsFor(params.Mode),
		oversold: params.OversoldThreshold,
	}
}

// Snapshot fetches the latest candles and derives the indicator snapshot
// plus the directional signal for the most recent candle.
func (c *Collector) Snapshot(ctx context.Context) (*domain.MarketSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	candles, err := c.source.Klines(ctx, c.pair, c.interval, c.windows.Lookback())
	if err != nil {
		return nil, errors.Wrapf(err, "fetch klines for %s", c.pair.String())
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no kline data returned for %s", c.pair.String())
	}

	snap, signal := analyze(candles, c.windows, c.oversold)
	return &domain.MarketSnapshot{
		Candles:    candles,
		Indicators: snap,
		Signal:     signal,
	}, nil
}
