package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketCandle is one OHLCV candlestick.
type MarketCandle struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}

// IndicatorSnapshot carries the strategy-selected indicator values for the
// most recent candle. Each group has an availability flag; a missing group
// is omitted from signal-strength scoring rather than treated as zero.
type IndicatorSnapshot struct {
	ShortMA decimal.Decimal
	LongMA  decimal.Decimal
	HasMA   bool

	// Oscillator is an RSI-style value in [0, 100].
	Oscillator    decimal.Decimal
	HasOscillator bool

	BandLower decimal.Decimal
	BandUpper decimal.Decimal
	HasBands  bool

	LastClose decimal.Decimal
	PrevClose decimal.Decimal
	HasCloses bool
}

// MarketSnapshot is the provider output consumed by one control-loop tick:
// an ordered candle sequence, the indicator snapshot for the latest candle
// and a directional signal for it.
type MarketSnapshot struct {
	Candles    []MarketCandle
	Indicators IndicatorSnapshot
	// Signal is +1 (buy), -1 (sell) or 0 (none) for the latest candle.
	Signal int
}

// LastPrice returns the close of the most recent candle.
func (m *MarketSnapshot) LastPrice() (decimal.Decimal, bool) {
	if len(m.Candles) == 0 {
		return decimal.Zero, false
	}
	return m.Candles[len(m.Candles)-1].Close, true
}
