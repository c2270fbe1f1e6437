// Package risk evaluates open lots each tick for protective exits:
// micro-trend reversal, take-profit and stop-loss.
package risk

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
	"github.com/beborico1/crypto-trading-bot/internal/services/position"
)

// Trader is the execution surface used for protective exits. Risk-driven
// sells bypass the trade governor: protective exits must always execute.
type Trader interface {
	Sell(ctx context.Context, amount, price decimal.Decimal) error
}

const priceWindowLen = 3

var hundred = decimal.NewFromInt(100)

// Manager is the per-lot protective-exit state machine for one symbol.
// Owned by the symbol's control loop; single writer.
type Manager struct {
	pair   domain.Pair
	params domain.StrategyParams
	ledger *position.Ledger
	trader Trader
	logger *zap.Logger

	// prices holds the last observed prices, oldest first.
	prices []decimal.Decimal
}

// New creates a risk manager over the given ledger and execution adapter.
func New(pair domain.Pair, params domain.StrategyParams, ledger *position.Ledger, trader Trader, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pair:   pair,
		params: params,
		ledger: ledger,
		trader: trader,
		logger: logger,
	}
}

type exit struct {
	amount decimal.Decimal
	reason string
}

// Check records the observed price and runs the protective-exit triggers in
// priority order: micro-trend reversal first, then per-lot take-profit,
// then stop-loss. Lots without a known entry price are exempt from
// take-profit/stop-loss but still count for the micro-trend exit. Returns
// true when at least one exit executed.
func (m *Manager) Check(ctx context.Context, price decimal.Decimal) bool {
	m.observe(price)

	if m.ledger.Size().LessThanOrEqual(decimal.Zero) {
		return false
	}

	lots := m.ledger.Lots()
	var exits []exit
	oldestClosed := false

	if m.microTrendDown() {
		m.logger.Info("micro-trend reversal detected, de-risking oldest lot",
			zap.String("price", price.String()))
		exits = append(exits, exit{amount: lots[0].Amount, reason: "micro_trend_reversal"})
		oldestClosed = true
	}

	for i, lot := range lots {
		if i == 0 && oldestClosed {
			continue
		}
		if !lot.HasKnownEntry() {
			continue
		}

		changePct := price.Div(lot.EntryPrice).Sub(one).Mul(hundred)
		switch {
		case changePct.GreaterThanOrEqual(m.params.TakeProfitPct):
			m.logger.Info("take-profit triggered",
				zap.Int("lot", i+1),
				zap.String("entry", lot.EntryPrice.String()),
				zap.String("price", price.String()),
				zap.String("change_pct", changePct.StringFixed(2)))
			exits = append(exits, exit{amount: lot.Amount, reason: "take_profit"})
		case changePct.LessThanOrEqual(m.params.StopLossPct.Neg()):
			m.logger.Info("stop-loss triggered",
				zap.Int("lot", i+1),
				zap.String("entry", lot.EntryPrice.String()),
				zap.String("price", price.String()),
				zap.String("change_pct", changePct.StringFixed(2)))
			exits = append(exits, exit{amount: lot.Amount, reason: "stop_loss"})
		}
	}

	actionTaken := false
	for _, e := range exits {
		if err := m.trader.Sell(ctx, e.amount, price); err != nil {
			m.logger.Error("protective exit failed",
				zap.String("reason", e.reason),
				zap.String("amount", e.amount.String()),
				zap.Error(err))
			continue
		}
		fills := m.ledger.Sell(e.amount)
		m.logger.Info("closed position",
			zap.String("reason", e.reason),
			zap.String("amount", e.amount.String()),
			zap.String("realized_pnl", realizedPnL(fills, price).String()),
			zap.String("remaining", m.ledger.Size().String()))
		actionTaken = true
	}
	return actionTaken
}

// observe appends the price to the rolling window.
func (m *Manager) observe(price decimal.Decimal) {
	m.prices = append(m.prices, price)
	if len(m.prices) > priceWindowLen {
		m.prices = m.prices[len(m.prices)-priceWindowLen:]
	}
}

// microTrendDown reports whether the last three observed prices are
// strictly decreasing.
func (m *Manager) microTrendDown() bool {
	if len(m.prices) < priceWindowLen {
		return false
	}
	return m.prices[2].LessThan(m.prices[1]) && m.prices[1].LessThan(m.prices[0])
}

// realizedPnL sums PnL over the consumed fills with a known cost basis.
func realizedPnL(fills []position.Fill, price decimal.Decimal) decimal.Decimal {
	pnl := decimal.Zero
	for _, f := range fills {
		if f.EntryPrice.IsPositive() {
			pnl = pnl.Add(price.Sub(f.EntryPrice).Mul(f.Amount))
		}
	}
	return pnl
}

var one = decimal.NewFromInt(1)
