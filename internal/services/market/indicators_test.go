package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

func candlesFromCloses(closes []float64) []domain.MarketCandle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.MarketCandle, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		out[i] = domain.MarketCandle{
			OpenTime:  base.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    decimal.NewFromInt(1),
			CloseTime: base.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return out
}

func TestBands(t *testing.T) {
	_, _, ok := bands([]float64{1, 2, 3}, 4)
	require.False(t, ok, "not enough data")

	lower, upper, ok := bands([]float64{1, 2, 3, 4}, 4)
	require.True(t, ok)
	// mean 2.5, population std dev sqrt(1.25)
	require.InDelta(t, 2.5-2*1.1180339887, lower, 1e-6)
	require.InDelta(t, 2.5+2*1.1180339887, upper, 1e-6)

	// constant prices collapse the bands onto the mean
	lower, upper, ok = bands([]float64{5, 5, 5, 5}, 4)
	require.True(t, ok)
	require.Equal(t, lower, upper)
}

func TestDirection(t *testing.T) {
	// oscillator extremes take priority over the crossover
	require.Equal(t, 1, direction(nil, nil, 20, true, 30))
	require.Equal(t, -1, direction(nil, nil, 80, true, 30))

	// crossover up: short moves from below to above
	require.Equal(t, 1, direction([]float64{99, 101}, []float64{100, 100}, 50, true, 30))
	// crossover down
	require.Equal(t, -1, direction([]float64{101, 99}, []float64{100, 100}, 50, true, 30))
	// no crossover
	require.Equal(t, 0, direction([]float64{101, 102}, []float64{100, 100}, 50, true, 30))
	// not enough MA history
	require.Equal(t, 0, direction([]float64{101}, []float64{100}, 50, true, 30))
}

func TestAnalyze_InsufficientData(t *testing.T) {
	w := WindowsFor(domain.ModeEnhanced)
	snap, signal := analyze(candlesFromCloses([]float64{100}), w, 30)

	require.False(t, snap.HasMA)
	require.False(t, snap.HasOscillator)
	require.False(t, snap.HasBands)
	require.False(t, snap.HasCloses)
	require.Equal(t, 0, signal)
}

func TestAnalyze_FullHistory(t *testing.T) {
	w := WindowsFor(domain.ModeEnhanced)

	closes := make([]float64, w.Lookback())
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	snap, signal := analyze(candlesFromCloses(closes), w, 30)

	require.True(t, snap.HasMA)
	require.True(t, snap.HasOscillator)
	require.True(t, snap.HasBands)
	require.True(t, snap.HasCloses)

	// in a steady uptrend the short EMA leads the long one
	require.True(t, snap.ShortMA.GreaterThan(snap.LongMA))
	require.True(t, snap.LastClose.GreaterThan(snap.PrevClose))
	require.True(t, snap.BandUpper.GreaterThan(snap.BandLower))

	// a monotonic rise pins the oscillator overbought
	osc, _ := snap.Oscillator.Float64()
	require.Greater(t, osc, 70.0)
	require.Equal(t, -1, signal)
}

func TestWindowsLookback(t *testing.T) {
	for _, mode := range []domain.StrategyMode{
		domain.ModeStandard, domain.ModeEnhanced, domain.ModeScalping, domain.ModeHighFrequency,
	} {
		w := WindowsFor(mode)
		require.GreaterOrEqual(t, w.Lookback(), w.LongMA+2)
		require.GreaterOrEqual(t, w.Lookback(), w.Oscillator+2)
		require.GreaterOrEqual(t, w.Lookback(), w.Bands+1)
		require.GreaterOrEqual(t, w.Lookback(), minLookback)
	}
}

func TestConvertIntervalToBybit(t *testing.T) {
	cases := map[string]string{
		"1m": "1", "5m": "5", "15m": "15", "1h": "60", "4h": "240", "1d": "D", "1w": "W",
	}
	for in, want := range cases {
		got, err := convertIntervalToBybit(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := convertIntervalToBybit("x")
	require.Error(t, err)
	_, err = convertIntervalToBybit("1y")
	require.Error(t, err)
}
