package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	pair, err := ParsePair("BTC_USDT")
	require.NoError(t, err)
	require.Equal(t, Pair{From: "BTC", To: "USDT"}, pair)
	require.Equal(t, "BTC_USDT", pair.String())
	require.Equal(t, "BTCUSDT", pair.Symbol())

	for _, s := range []string{"", "BTCUSDT", "_USDT", "BTC_", "BTC_USDT_X"} {
		_, err := ParsePair(s)
		require.Error(t, err, "input %q", s)
	}
}

func TestParseStrategyMode(t *testing.T) {
	cases := map[string]StrategyMode{
		"standard":       ModeStandard,
		"enhanced":       ModeEnhanced,
		"":               ModeEnhanced,
		"scalping":       ModeScalping,
		"high_frequency": ModeHighFrequency,
	}
	for in, want := range cases {
		mode, err := ParseStrategyMode(in)
		require.NoError(t, err)
		require.Equal(t, want, mode)
	}

	_, err := ParseStrategyMode("turbo")
	require.Error(t, err)
}

func TestStrategyModeGoverned(t *testing.T) {
	require.True(t, ModeHighFrequency.Governed())
	require.False(t, ModeStandard.Governed())
	require.False(t, ModeEnhanced.Governed())
	require.False(t, ModeScalping.Governed())
}

func TestNewStrategyParams_Defaults(t *testing.T) {
	p, err := NewStrategyParams(ModeEnhanced, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.True(t, p.TakeProfitPct.Equal(decimal.NewFromFloat(1.5)))
	require.True(t, p.StopLossPct.Equal(decimal.NewFromFloat(1.0)))
	require.Equal(t, 5.0, p.MASpreadDivisor)
	require.Equal(t, 20, p.TradesPerMinute)
}

func TestNewStrategyParams_HighFrequencyOverrides(t *testing.T) {
	// high-frequency always uses its tight fixed thresholds
	p, err := NewStrategyParams(ModeHighFrequency, decimal.NewFromInt(3), decimal.NewFromInt(2))
	require.NoError(t, err)
	require.True(t, p.TakeProfitPct.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, p.StopLossPct.Equal(decimal.NewFromFloat(0.3)))
	require.Equal(t, 3.0, p.MASpreadDivisor)
}

func TestNewStrategyParams_RejectsNegative(t *testing.T) {
	_, err := NewStrategyParams(ModeEnhanced, decimal.NewFromInt(-1), decimal.Zero)
	require.Error(t, err)
}

func TestBalanceSnapshotRoundTrip(t *testing.T) {
	pair := Pair{From: "BTC", To: "USDT"}
	snap := NewBalanceSnapshot(time.Now(), pair,
		decimal.NewFromInt(5000), decimal.NewFromFloat(0.1), decimal.NewFromInt(50000))

	total, err := decimal.NewFromString(snap.TotalQuote)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(10000)))

	quote, base, err := snap.Balances()
	require.NoError(t, err)
	require.True(t, quote.Equal(decimal.NewFromInt(5000)))
	require.True(t, base.Equal(decimal.NewFromFloat(0.1)))
}

func TestActionValid(t *testing.T) {
	require.True(t, ActionBuy.Valid())
	require.True(t, ActionSell.Valid())
	require.False(t, Action("hold").Valid())
}
