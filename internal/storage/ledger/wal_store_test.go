package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

var testPair = domain.Pair{From: "BTC", To: "USDT"}

func newTestStore(t *testing.T, dir string) *WALStore {
	t.Helper()
	store, err := NewWALStore(dir, testPair)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTrade(action domain.Action, price int64) domain.TradeRecord {
	return domain.NewTradeRecord(time.Now(), testPair, action,
		decimal.NewFromFloat(0.001), decimal.NewFromInt(price),
		decimal.NewFromInt(9000), decimal.NewFromFloat(0.001))
}

func sampleSnapshot(quote int64) domain.BalanceSnapshot {
	return domain.NewBalanceSnapshot(time.Now(), testPair,
		decimal.NewFromInt(quote), decimal.NewFromFloat(0.001), decimal.NewFromInt(50000))
}

func TestWALStore_AppendAndLoadLatest(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)

	require.NoError(t, store.AppendBalance(sampleSnapshot(10000)))
	require.NoError(t, store.AppendTrade(sampleTrade(domain.ActionBuy, 50000)))
	require.NoError(t, store.AppendBalance(sampleSnapshot(9000)))
	require.NoError(t, store.AppendTrade(sampleTrade(domain.ActionSell, 51000)))
	require.NoError(t, store.AppendBalance(sampleSnapshot(9500)))

	latest, trades, err := store.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "9500", latest.Quote)
	require.Len(t, trades, 2)
	require.Equal(t, domain.ActionBuy, trades[0].Action)
	require.Equal(t, domain.ActionSell, trades[1].Action)
}

func TestWALStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir, testPair)
	require.NoError(t, err)
	require.NoError(t, store.AppendBalance(sampleSnapshot(8000)))
	require.NoError(t, store.AppendTrade(sampleTrade(domain.ActionBuy, 50000)))
	require.NoError(t, store.Close())

	reopened := newTestStore(t, dir)
	latest, trades, err := reopened.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "8000", latest.Quote)
	require.Len(t, trades, 1)
}

func TestWALStore_EmptyHistory(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	latest, trades, err := store.LoadLatest()
	require.NoError(t, err)
	require.Nil(t, latest)
	require.Empty(t, trades)
}

func TestWALStore_IncrementalReaders(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	require.NoError(t, store.AppendBalance(sampleSnapshot(10000)))
	require.NoError(t, store.AppendTrade(sampleTrade(domain.ActionBuy, 50000)))
	require.NoError(t, store.AppendBalance(sampleSnapshot(9000)))

	snaps, err := store.SnapshotsAfter(0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	// resuming from the last seen index returns only newer records
	fromLast, err := store.SnapshotsAfter(snaps[len(snaps)-1].Index)
	require.NoError(t, err)
	require.Empty(t, fromLast)

	require.NoError(t, store.AppendBalance(sampleSnapshot(8500)))
	fromLast, err = store.SnapshotsAfter(snaps[len(snaps)-1].Index)
	require.NoError(t, err)
	require.Len(t, fromLast, 1)
	require.Equal(t, "8500", fromLast[0].Snapshot.Quote)

	trades, err := store.TradesAfter(0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, domain.ActionBuy, trades[0].Record.Action)
}

func TestWALStore_Export(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	require.NoError(t, store.AppendBalance(sampleSnapshot(10000)))
	require.NoError(t, store.AppendTrade(sampleTrade(domain.ActionBuy, 50000)))
	require.NoError(t, store.AppendTrade(sampleTrade(domain.ActionSell, 51000)))
	require.NoError(t, store.AppendBalance(sampleSnapshot(10100)))

	exp, err := store.Export()
	require.NoError(t, err)
	require.Equal(t, testPair.String(), exp.Pair)
	require.Equal(t, uint64(4), exp.AsOfIndex)
	require.Len(t, exp.Balances, 2)
	require.Len(t, exp.Transactions, 2)
}

func TestWALStore_RejectsInvalidAction(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	rec := sampleTrade(domain.ActionBuy, 50000)
	rec.Action = "hold"
	require.Error(t, store.AppendTrade(rec))
}
