package trader

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

// takerFee is applied on both sides of every simulated trade (0.1%).
var takerFee = decimal.NewFromFloat(0.001)

type ledgerStore interface {
	AppendTrade(rec domain.TradeRecord) error
	AppendBalance(snap domain.BalanceSnapshot) error
	LoadLatest() (*domain.BalanceSnapshot, []domain.TradeRecord, error)
}

// SimulatedTrader fills orders against a simulated spot account and appends
// every fill to the persistent ledger. A failed ledger write is buffered
// and retried on the next write; trading continues on in-memory state.
type SimulatedTrader struct {
	mu     sync.RWMutex
	pair   domain.Pair
	quote  decimal.Decimal
	base   decimal.Decimal
	store  ledgerStore
	logger *zap.Logger

	pendingTrades    []domain.TradeRecord
	pendingSnapshots []domain.BalanceSnapshot
}

// NewSimulatedTrader creates a simulated account for the pair, resuming
// balances from the latest persisted snapshot when one exists. The returned
// flag reports whether a previous session was recovered.
func NewSimulatedTrader(pair domain.Pair, initialQuote decimal.Decimal, store ledgerStore, logger *zap.Logger) (*SimulatedTrader, bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		return nil, false, errors.New("ledger store is required for simulated trading")
	}
	if initialQuote.LessThanOrEqual(decimal.Zero) {
		return nil, false, errors.Errorf("initial balance must be positive, got %s", initialQuote.String())
	}

	t := &SimulatedTrader{
		pair:   pair,
		quote:  initialQuote,
		base:   decimal.Zero,
		store:  store,
		logger: logger,
	}

	snap, _, err := store.LoadLatest()
	if err != nil {
		return nil, false, errors.Wrap(err, "load persisted session")
	}
	if snap == nil {
		logger.Info("starting fresh simulated session",
			zap.String("quote", initialQuote.String()))
		return t, false, nil
	}

	quote, base, err := snap.Balances()
	if err != nil {
		return nil, false, errors.Wrap(err, "decode persisted balances")
	}
	t.quote = quote
	t.base = base
	logger.Info("resumed simulated session",
		zap.String("quote", quote.String()),
		zap.String("base", base.String()),
		zap.Time("as_of", snap.Timestamp))
	return t, true, nil
}

// Balances returns the current quote and base balances.
func (t *SimulatedTrader) Balances() (quote, base decimal.Decimal) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.quote, t.base
}

// Buy fills a simulated market buy of amount base at price, charging the
// taker fee on the quote side.
func (t *SimulatedTrader) Buy(_ context.Context, amount, price decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.Errorf("buy amount must be positive, got %s", amount.String())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cost := amount.Mul(price).Mul(one.Add(takerFee))
	if cost.GreaterThan(t.quote) {
		return errors.Wrapf(ErrInsufficientBalance,
			"buy of %s %s at %s needs %s %s, have %s",
			amount.String(), t.pair.From, price.String(), cost.String(), t.pair.To, t.quote.String())
	}

	t.quote = t.quote.Sub(cost)
	t.base = t.base.Add(amount)

	t.logger.Info("simulated buy executed",
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("cost", cost.String()))

	t.recordLocked(domain.ActionBuy, amount, price)
	return nil
}

// Sell fills a simulated market sell of amount base at price, charging the
// taker fee on the proceeds.
func (t *SimulatedTrader) Sell(_ context.Context, amount, price decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.Errorf("sell amount must be positive, got %s", amount.String())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if amount.GreaterThan(t.base) {
		return errors.Wrapf(ErrInsufficientBalance,
			"sell of %s %s exceeds holdings of %s",
			amount.String(), t.pair.From, t.base.String())
	}

	proceeds := amount.Mul(price).Mul(one.Sub(takerFee))
	t.base = t.base.Sub(amount)
	t.quote = t.quote.Add(proceeds)

	t.logger.Info("simulated sell executed",
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("proceeds", proceeds.String()))

	t.recordLocked(domain.ActionSell, amount, price)
	return nil
}

// MarkPrice records a balance snapshot at the current price without trading.
func (t *SimulatedTrader) MarkPrice(price decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingSnapshots = append(t.pendingSnapshots,
		domain.NewBalanceSnapshot(time.Now(), t.pair, t.quote, t.base, price))
	t.flushLocked()
}

func (t *SimulatedTrader) recordLocked(action domain.Action, amount, price decimal.Decimal) {
	now := time.Now()
	t.pendingTrades = append(t.pendingTrades,
		domain.NewTradeRecord(now, t.pair, action, amount, price, t.quote, t.base))
	t.pendingSnapshots = append(t.pendingSnapshots,
		domain.NewBalanceSnapshot(now, t.pair, t.quote, t.base, price))
	t.flushLocked()
}

// flushLocked drains buffered records into the store in order. On a write
// failure the remainder stays buffered for the next tick; balances remain
// recomputable from the last persisted snapshot plus applied trades.
func (t *SimulatedTrader) flushLocked() {
	for len(t.pendingTrades) > 0 {
		if err := t.store.AppendTrade(t.pendingTrades[0]); err != nil {
			t.logger.Warn("ledger trade write failed, will retry", zap.Error(err))
			return
		}
		t.pendingTrades = t.pendingTrades[1:]
	}
	for len(t.pendingSnapshots) > 0 {
		if err := t.store.AppendBalance(t.pendingSnapshots[0]); err != nil {
			t.logger.Warn("ledger balance write failed, will retry", zap.Error(err))
			return
		}
		t.pendingSnapshots = t.pendingSnapshots[1:]
	}
}

var one = decimal.NewFromInt(1)
