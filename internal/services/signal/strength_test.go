package signal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

func testParams(t *testing.T) domain.StrategyParams {
	t.Helper()
	params, err := domain.NewStrategyParams(domain.ModeEnhanced, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	return params
}

func TestStrength_NoIndicators(t *testing.T) {
	require.Equal(t, 0.0, Strength(domain.IndicatorSnapshot{}, testParams(t)))
}

func TestStrength_MASpreadOnly(t *testing.T) {
	params := testParams(t)

	// 2.5% spread with divisor 5 scores 0.5
	snap := domain.IndicatorSnapshot{
		ShortMA: decimal.NewFromFloat(102.5),
		LongMA:  decimal.NewFromInt(100),
		HasMA:   true,
	}
	require.InDelta(t, 0.5, Strength(snap, params), 1e-9)

	// a negative spread never supports an entry
	snap.ShortMA = decimal.NewFromInt(95)
	require.Equal(t, 0.0, Strength(snap, params))

	// spreads beyond the divisor saturate at 1
	snap.ShortMA = decimal.NewFromInt(120)
	require.Equal(t, 1.0, Strength(snap, params))
}

func TestStrength_OscillatorExtremity(t *testing.T) {
	params := testParams(t)

	snap := domain.IndicatorSnapshot{
		Oscillator:    decimal.NewFromInt(15),
		HasOscillator: true,
	}
	// (30-15)/30 = 0.5
	require.InDelta(t, 0.5, Strength(snap, params), 1e-9)

	snap.Oscillator = decimal.NewFromInt(50)
	require.Equal(t, 0.0, Strength(snap, params))
}

func TestStrength_BandDistance(t *testing.T) {
	params := testParams(t)

	snap := domain.IndicatorSnapshot{
		BandLower: decimal.NewFromInt(90),
		BandUpper: decimal.NewFromInt(110),
		HasBands:  true,
		LastClose: decimal.NewFromInt(95),
		PrevClose: decimal.NewFromInt(96),
		HasCloses: true,
	}
	// band sub-score: 1 - (95-90)/20 = 0.75; momentum sub-score: 0 (close fell)
	require.InDelta(t, 0.375, Strength(snap, params), 1e-9)

	// degenerate bands are skipped, leaving only momentum
	snap.BandUpper = snap.BandLower
	require.Equal(t, 0.0, Strength(snap, params))
}

func TestStrength_MeanOfAvailableComponents(t *testing.T) {
	params := testParams(t)

	snap := domain.IndicatorSnapshot{
		ShortMA:       decimal.NewFromFloat(102.5),
		LongMA:        decimal.NewFromInt(100),
		HasMA:         true,
		Oscillator:    decimal.NewFromInt(15),
		HasOscillator: true,
		LastClose:     decimal.NewFromInt(101),
		PrevClose:     decimal.NewFromInt(100),
		HasCloses:     true,
	}
	// components: 0.5 (spread), 0.5 (oscillator), 1.0 (momentum)
	require.InDelta(t, 2.0/3.0, Strength(snap, params), 1e-9)
}

func TestStrength_ScalpingDivisor(t *testing.T) {
	params, err := domain.NewStrategyParams(domain.ModeScalping, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	// 1.5% spread with divisor 3 scores 0.5
	snap := domain.IndicatorSnapshot{
		ShortMA: decimal.NewFromFloat(101.5),
		LongMA:  decimal.NewFromInt(100),
		HasMA:   true,
	}
	require.InDelta(t, 0.5, Strength(snap, params), 1e-9)
}
