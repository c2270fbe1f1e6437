package internal

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/beborico1/crypto-trading-bot/config"
	"github.com/beborico1/crypto-trading-bot/internal/clients"
	"github.com/beborico1/crypto-trading-bot/internal/domain"
	"github.com/beborico1/crypto-trading-bot/internal/services/governor"
	"github.com/beborico1/crypto-trading-bot/internal/services/market"
	"github.com/beborico1/crypto-trading-bot/internal/services/position"
	"github.com/beborico1/crypto-trading-bot/internal/services/report"
	"github.com/beborico1/crypto-trading-bot/internal/services/risk"
	"github.com/beborico1/crypto-trading-bot/internal/services/signal"
	"github.com/beborico1/crypto-trading-bot/internal/services/trader"
	ledgerstore "github.com/beborico1/crypto-trading-bot/internal/storage/ledger"
)

// minTickSleep keeps some breathing room between ticks even when a tick ran
// longer than the poll interval.
const minTickSleep = 100 * time.Millisecond

// governorWindow is the rate-limit window for governed entry actions.
const governorWindow = time.Minute

// dustRatio filters out entries smaller than a tenth of the base size.
var dustRatio = decimal.NewFromFloat(0.1)

// Status is the externally visible state of one symbol's control loop.
type Status struct {
	Pair           string          `json:"pair"`
	PositionSize   decimal.Decimal `json:"position_size"`
	LastPrice      decimal.Decimal `json:"last_price"`
	LastUpdate     time.Time       `json:"last_update"`
	TradesInWindow int             `json:"trades_in_window"`
	LastError      string          `json:"last_error,omitempty"`
}

// priceMarker is implemented by traders that persist balance snapshots on
// price observations (the simulated account).
type priceMarker interface {
	MarkPrice(price decimal.Decimal)
}

// TradingBot runs the control loop for one symbol: fetch market data, run
// protective exits, then evaluate a strength-sized entry or discretionary
// exit. All trading state is owned by the loop goroutine; only Status is
// read concurrently.
type TradingBot struct {
	cfg    config.Config
	params domain.StrategyParams

	collector *market.Collector
	trader    trader.Trader
	ledger    *position.Ledger
	risk      *risk.Manager
	governor  *governor.Governor
	store     *ledgerstore.WALStore
	logger    *zap.Logger

	ticks int

	statusMu sync.RWMutex
	status   Status
}

// NewTradingBot wires the trading stack for one symbol. For the simulate
// platform the account is resumed from the persisted ledger and any
// recovered holdings become a single lot with unknown entry price.
func NewTradingBot(cfg config.Config, dataDir string, logger *zap.Logger) (*TradingBot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("pair", cfg.Pair.String()))

	params, err := domain.NewStrategyParams(cfg.Mode, cfg.TakeProfitPct, cfg.StopLossPct)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid strategy parameters for %s", cfg.Pair.String())
	}

	store, err := ledgerstore.NewWALStore(dataDir, cfg.Pair)
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger store for %s", cfg.Pair.String())
	}

	posLedger, err := position.NewLedger(cfg.BasePositionSize, cfg.MaxIncrements, params.MinIncrementStrength, logger)
	if err != nil {
		store.Close()
		return nil, errors.Wrapf(err, "create position ledger for %s", cfg.Pair.String())
	}

	var (
		exec   trader.Trader
		source market.KlineSource
	)
	switch cfg.Platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			store.Close()
			return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		client := clients.NewBinanceClient(apiKey, apiSecret)
		exec = trader.NewBinanceTrader(client, cfg.Pair)
		source = market.NewBinanceSource(client)
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			store.Close()
			return nil, errors.New("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		client := clients.NewBybitClient(apiKey, apiSecret)
		exec = trader.NewBybitTrader(client, cfg.Pair)
		source = market.NewBybitSource(client)
	case "simulate":
		sim, restored, err := trader.NewSimulatedTrader(cfg.Pair, cfg.InitialBalance, store, logger)
		if err != nil {
			store.Close()
			return nil, errors.Wrapf(err, "create simulated account for %s", cfg.Pair.String())
		}
		if restored {
			if _, base := sim.Balances(); base.IsPositive() {
				posLedger.Restore(base, time.Now())
				logger.Info("recovered holdings from previous session",
					zap.String("base", base.String()))
			}
		}
		exec = sim
		// Market data comes from public Binance endpoints.
		source = market.NewBinanceSource(clients.NewBinanceClient("", ""))
	default:
		store.Close()
		return nil, errors.Errorf("unsupported platform %q", cfg.Platform)
	}

	return &TradingBot{
		cfg:       cfg,
		params:    params,
		collector: market.NewCollector(source, cfg.Pair, cfg.Interval, params),
		trader:    exec,
		ledger:    posLedger,
		risk:      risk.New(cfg.Pair, params, posLedger, exec, logger),
		governor:  governor.New(params.TradesPerMinute, governorWindow, params.Mode.Governed()),
		store:     store,
		logger:    logger,
		status:    Status{Pair: cfg.Pair.String()},
	}, nil
}

// Pair returns the symbol this bot trades.
func (b *TradingBot) Pair() domain.Pair {
	return b.cfg.Pair
}

// Store exposes the persistent ledger for reporting readers.
func (b *TradingBot) Store() *ledgerstore.WALStore {
	return b.store
}

// Status returns a copy of the current loop status.
func (b *TradingBot) Status() Status {
	b.statusMu.RLock()
	defer b.statusMu.RUnlock()
	return b.status
}

// Run executes the control loop until the context is cancelled. A tick that
// runs longer than the poll interval is followed by a short minimum sleep
// rather than firing immediately again.
func (b *TradingBot) Run(ctx context.Context) error {
	b.logger.Info("starting control loop",
		zap.String("mode", b.params.Mode.String()),
		zap.String("platform", b.cfg.Platform),
		zap.Duration("poll_interval", b.cfg.PollInterval))

	for {
		start := time.Now()
		b.tick(ctx)

		sleep := b.cfg.PollInterval - time.Since(start)
		if sleep < minTickSleep {
			sleep = minTickSleep
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			b.logger.Info("control loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close emits a final performance report and releases the ledger store.
func (b *TradingBot) Close() {
	b.logReport()
	if err := b.store.Close(); err != nil {
		b.logger.Warn("failed to close ledger store", zap.Error(err))
	}
}

func (b *TradingBot) tick(ctx context.Context) {
	snap, err := b.collector.Snapshot(ctx)
	if err != nil {
		b.logger.Warn("market data unavailable, skipping tick", zap.Error(err))
		b.setError(err)
		return
	}

	price, ok := snap.LastPrice()
	if !ok || !price.IsPositive() {
		b.logger.Warn("no usable price in snapshot, skipping tick")
		return
	}

	if m, ok := b.trader.(priceMarker); ok {
		m.MarkPrice(price)
	}

	b.ticks++
	b.clearError()
	defer b.updateStatus(price)

	if b.risk.Check(ctx, price) {
		// Entries are re-evaluated on the next tick after a protective exit.
		b.maybeReport()
		return
	}

	strength := signal.Strength(snap.Indicators, b.params)
	switch {
	case snap.Signal > 0:
		b.tryEnter(ctx, strength, price)
	case snap.Signal < 0:
		b.tryExit(ctx, strength, price)
	}
	b.maybeReport()
}

func (b *TradingBot) tryEnter(ctx context.Context, strength float64, price decimal.Decimal) {
	amount := b.ledger.CalculateIncrement(strength)
	if amount.LessThan(b.ledger.BaseSize().Mul(dustRatio)) {
		b.logger.Debug("entry below dust threshold, skipping",
			zap.Float64("strength", strength),
			zap.String("amount", amount.String()))
		return
	}

	now := time.Now()
	if !b.governor.Allow(now) {
		b.logger.Debug("entry throttled by trade governor",
			zap.Int("trades_in_window", b.governor.TradesInWindow()))
		return
	}

	if err := b.trader.Buy(ctx, amount, price); err != nil {
		if errors.Is(err, trader.ErrInsufficientBalance) {
			b.logger.Warn("buy skipped, insufficient balance", zap.Error(err))
			return
		}
		b.logger.Error("buy failed", zap.Error(err))
		b.setError(err)
		return
	}

	if err := b.ledger.Buy(amount, price, now); err != nil {
		b.logger.Warn("executed buy not recorded in position ledger", zap.Error(err))
		return
	}

	b.logger.Info("position increased",
		zap.Float64("strength", strength),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("position", b.ledger.Size().String()))
}

func (b *TradingBot) tryExit(ctx context.Context, strength float64, price decimal.Decimal) {
	if b.ledger.Size().LessThanOrEqual(decimal.Zero) {
		return
	}

	amount := b.ledger.CalculateExitAmount(strength)
	if !amount.IsPositive() {
		return
	}

	if !b.governor.Allow(time.Now()) {
		b.logger.Debug("exit throttled by trade governor",
			zap.Int("trades_in_window", b.governor.TradesInWindow()))
		return
	}

	if err := b.trader.Sell(ctx, amount, price); err != nil {
		if errors.Is(err, trader.ErrInsufficientBalance) {
			b.logger.Warn("sell skipped, insufficient holdings", zap.Error(err))
			return
		}
		b.logger.Error("sell failed", zap.Error(err))
		b.setError(err)
		return
	}

	fills := b.ledger.Sell(amount)
	pnl := decimal.Zero
	for _, f := range fills {
		if f.EntryPrice.IsPositive() {
			pnl = pnl.Add(price.Sub(f.EntryPrice).Mul(f.Amount))
		}
	}

	b.logger.Info("position reduced",
		zap.Float64("strength", strength),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("realized_pnl", pnl.String()),
		zap.String("position", b.ledger.Size().String()))
}

func (b *TradingBot) maybeReport() {
	if b.cfg.ReportEvery <= 0 || b.ticks%b.cfg.ReportEvery != 0 {
		return
	}
	b.logReport()
}

func (b *TradingBot) logReport() {
	exp, err := b.store.Export()
	if err != nil {
		b.logger.Warn("failed to export ledger for report", zap.Error(err))
		return
	}
	rep, err := report.Build(exp)
	if err != nil {
		b.logger.Debug("no performance report yet", zap.Error(err))
		return
	}
	b.logger.Info("performance report", zap.String("summary", rep.String()))
}

func (b *TradingBot) updateStatus(price decimal.Decimal) {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	b.status.PositionSize = b.ledger.Size()
	b.status.LastPrice = price
	b.status.LastUpdate = time.Now()
	b.status.TradesInWindow = b.governor.TradesInWindow()
}

func (b *TradingBot) clearError() {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	b.status.LastError = ""
}

func (b *TradingBot) setError(err error) {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	b.status.LastError = err.Error()
	b.status.LastUpdate = time.Now()
}
