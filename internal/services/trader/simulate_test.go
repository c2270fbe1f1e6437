package trader

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

// memStore is an in-memory ledger store for tests.
type memStore struct {
	trades    []domain.TradeRecord
	snapshots []domain.BalanceSnapshot
	failWrite bool
}

func (m *memStore) AppendTrade(rec domain.TradeRecord) error {
	if m.failWrite {
		return errors.New("disk full")
	}
	m.trades = append(m.trades, rec)
	return nil
}

func (m *memStore) AppendBalance(snap domain.BalanceSnapshot) error {
	if m.failWrite {
		return errors.New("disk full")
	}
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *memStore) LoadLatest() (*domain.BalanceSnapshot, []domain.TradeRecord, error) {
	if len(m.snapshots) == 0 {
		return nil, m.trades, nil
	}
	latest := m.snapshots[len(m.snapshots)-1]
	return &latest, m.trades, nil
}

var testPair = domain.Pair{From: "BTC", To: "USDT"}

func TestSimulatedTrader_BuyAppliesFee(t *testing.T) {
	store := &memStore{}
	tr, restored, err := NewSimulatedTrader(testPair, decimal.NewFromInt(10000), store, zap.NewNop())
	require.NoError(t, err)
	require.False(t, restored)

	err = tr.Buy(context.Background(), decimal.NewFromFloat(0.1), decimal.NewFromInt(50000))
	require.NoError(t, err)

	quote, base := tr.Balances()
	// cost = 0.1 * 50000 * 1.001 = 5005
	require.True(t, quote.Equal(decimal.NewFromInt(4995)), "got %s", quote)
	require.True(t, base.Equal(decimal.NewFromFloat(0.1)))

	require.Len(t, store.trades, 1)
	require.Equal(t, domain.ActionBuy, store.trades[0].Action)
	require.Len(t, store.snapshots, 1)
}

func TestSimulatedTrader_BuyInsufficientBalance(t *testing.T) {
	store := &memStore{}
	tr, _, err := NewSimulatedTrader(testPair, decimal.NewFromInt(100), store, zap.NewNop())
	require.NoError(t, err)

	// cost would be 500.5 against a balance of 100
	err = tr.Buy(context.Background(), decimal.NewFromFloat(0.01), decimal.NewFromInt(50000))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	quote, base := tr.Balances()
	require.True(t, quote.Equal(decimal.NewFromInt(100)), "rejected buy must not change balances")
	require.True(t, base.IsZero())
	require.Empty(t, store.trades)
}

func TestSimulatedTrader_SellAppliesFee(t *testing.T) {
	store := &memStore{}
	tr, _, err := NewSimulatedTrader(testPair, decimal.NewFromInt(10000), store, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, tr.Buy(context.Background(), decimal.NewFromFloat(0.1), decimal.NewFromInt(50000)))
	require.NoError(t, tr.Sell(context.Background(), decimal.NewFromFloat(0.1), decimal.NewFromInt(50000)))

	quote, base := tr.Balances()
	// 4995 + 0.1*50000*0.999 = 4995 + 4995 = 9990
	require.True(t, quote.Equal(decimal.NewFromInt(9990)), "got %s", quote)
	require.True(t, base.IsZero())
}

func TestSimulatedTrader_SellExceedsHoldings(t *testing.T) {
	store := &memStore{}
	tr, _, err := NewSimulatedTrader(testPair, decimal.NewFromInt(10000), store, zap.NewNop())
	require.NoError(t, err)

	err = tr.Sell(context.Background(), decimal.NewFromFloat(0.1), decimal.NewFromInt(50000))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSimulatedTrader_ResumesFromSnapshot(t *testing.T) {
	store := &memStore{}
	store.snapshots = append(store.snapshots, domain.NewBalanceSnapshot(
		time.Now(), testPair, decimal.NewFromInt(7500), decimal.NewFromFloat(0.05), decimal.NewFromInt(50000)))

	tr, restored, err := NewSimulatedTrader(testPair, decimal.NewFromInt(10000), store, zap.NewNop())
	require.NoError(t, err)
	require.True(t, restored)

	quote, base := tr.Balances()
	require.True(t, quote.Equal(decimal.NewFromInt(7500)))
	require.True(t, base.Equal(decimal.NewFromFloat(0.05)))
}

func TestSimulatedTrader_BufferedWritesRetry(t *testing.T) {
	store := &memStore{failWrite: true}
	tr, _, err := NewSimulatedTrader(testPair, decimal.NewFromInt(10000), store, zap.NewNop())
	require.NoError(t, err)

	// trade succeeds on in-memory state even though persistence fails
	require.NoError(t, tr.Buy(context.Background(), decimal.NewFromFloat(0.1), decimal.NewFromInt(50000)))
	require.Empty(t, store.trades)

	// once the store recovers, the buffered records flush in order
	store.failWrite = false
	tr.MarkPrice(decimal.NewFromInt(50000))
	require.Len(t, store.trades, 1)
	require.Len(t, store.snapshots, 2)
}

func TestSimulatedTrader_RejectsNonPositiveInitialBalance(t *testing.T) {
	_, _, err := NewSimulatedTrader(testPair, decimal.Zero, &memStore{}, zap.NewNop())
	require.Error(t, err)
}
