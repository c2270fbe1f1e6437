package risk

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
	"github.com/beborico1/crypto-trading-bot/internal/services/position"
)

type stubTrader struct {
	sells []decimal.Decimal
	err   error
}

func (s *stubTrader) Sell(_ context.Context, amount, _ decimal.Decimal) error {
	if s.err != nil {
		return s.err
	}
	s.sells = append(s.sells, amount)
	return nil
}

func newTestManager(t *testing.T, mode domain.StrategyMode) (*Manager, *position.Ledger, *stubTrader) {
	t.Helper()
	params, err := domain.NewStrategyParams(mode, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	ledger, err := position.NewLedger(decimal.NewFromFloat(0.001), 5, params.MinIncrementStrength, zap.NewNop())
	require.NoError(t, err)

	trader := &stubTrader{}
	pair := domain.Pair{From: "BTC", To: "USDT"}
	return New(pair, params, ledger, trader, zap.NewNop()), ledger, trader
}

func TestManager_TakeProfit(t *testing.T) {
	// high-frequency take-profit is 0.5%
	m, ledger, trader := newTestManager(t, domain.ModeHighFrequency)
	require.NoError(t, ledger.Buy(decimal.NewFromFloat(0.001), decimal.NewFromInt(100000), time.Now()))

	require.False(t, m.Check(context.Background(), decimal.NewFromInt(100400)), "0.4%% gain is below the threshold")
	require.True(t, m.Check(context.Background(), decimal.NewFromInt(100500)), "0.5%% gain must trigger take-profit")

	require.Len(t, trader.sells, 1)
	require.True(t, trader.sells[0].Equal(decimal.NewFromFloat(0.001)))
	require.True(t, ledger.Size().IsZero())
}

func TestManager_StopLoss(t *testing.T) {
	// high-frequency stop-loss is 0.3%
	m, ledger, trader := newTestManager(t, domain.ModeHighFrequency)
	require.NoError(t, ledger.Buy(decimal.NewFromFloat(0.001), decimal.NewFromInt(100000), time.Now()))

	require.True(t, m.Check(context.Background(), decimal.NewFromInt(99700)))
	require.Len(t, trader.sells, 1)
	require.True(t, ledger.Size().IsZero())
}

func TestManager_MicroTrendClosesOldestLot(t *testing.T) {
	m, ledger, trader := newTestManager(t, domain.ModeEnhanced)
	now := time.Now()
	require.NoError(t, ledger.Buy(decimal.NewFromFloat(0.001), decimal.NewFromInt(100000), now))
	require.NoError(t, ledger.Buy(decimal.NewFromFloat(0.002), decimal.NewFromInt(100000), now))

	// three strictly decreasing observations, none deep enough for stop-loss
	require.False(t, m.Check(context.Background(), decimal.NewFromInt(100000)))
	require.False(t, m.Check(context.Background(), decimal.NewFromInt(99990)))
	require.True(t, m.Check(context.Background(), decimal.NewFromInt(99980)))

	require.Len(t, trader.sells, 1)
	require.True(t, trader.sells[0].Equal(decimal.NewFromFloat(0.001)), "only the oldest lot is closed")
	require.True(t, ledger.Size().Equal(decimal.NewFromFloat(0.002)))
}

func TestManager_FlatPricesNoMicroTrend(t *testing.T) {
	m, ledger, _ := newTestManager(t, domain.ModeEnhanced)
	require.NoError(t, ledger.Buy(decimal.NewFromFloat(0.001), decimal.NewFromInt(100000), time.Now()))

	require.False(t, m.Check(context.Background(), decimal.NewFromInt(100000)))
	require.False(t, m.Check(context.Background(), decimal.NewFromInt(100000)))
	require.False(t, m.Check(context.Background(), decimal.NewFromInt(100000)))
}

func TestManager_RecoveredLotExemptFromThresholds(t *testing.T) {
	m, ledger, trader := newTestManager(t, domain.ModeHighFrequency)
	ledger.Restore(decimal.NewFromFloat(0.002), time.Now())

	// without a cost basis neither take-profit nor stop-loss can fire
	require.False(t, m.Check(context.Background(), decimal.NewFromInt(200000)))
	require.False(t, m.Check(context.Background(), decimal.NewFromInt(50001)))
	require.Empty(t, trader.sells)

	// but the micro-trend exit still protects it
	require.True(t, m.Check(context.Background(), decimal.NewFromInt(50000)))
	require.Len(t, trader.sells, 1)
	require.True(t, ledger.Size().IsZero())
}

func TestManager_ExecutionFailureKeepsLot(t *testing.T) {
	m, ledger, trader := newTestManager(t, domain.ModeHighFrequency)
	trader.err = errors.New("exchange unavailable")
	require.NoError(t, ledger.Buy(decimal.NewFromFloat(0.001), decimal.NewFromInt(100000), time.Now()))

	require.False(t, m.Check(context.Background(), decimal.NewFromInt(101000)))
	require.True(t, ledger.Size().Equal(decimal.NewFromFloat(0.001)), "failed exit must not mutate the ledger")
}

func TestManager_EmptyPositionNoAction(t *testing.T) {
	m, _, trader := newTestManager(t, domain.ModeHighFrequency)
	require.False(t, m.Check(context.Background(), decimal.NewFromInt(100000)))
	require.Empty(t, trader.sells)
}
