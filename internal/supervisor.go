package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/beborico1/crypto-trading-bot/config"
)

// Supervisor owns one trading bot per configured symbol and runs their
// control loops on a bounded goroutine pool. A symbol that fails to
// configure is logged and skipped; the remaining symbols still trade.
type Supervisor struct {
	bots       []*TradingBot
	maxThreads int
	logger     *zap.Logger
}

// NewSupervisor builds a bot for every configured symbol. It fails only
// when no symbol could be configured at all.
func NewSupervisor(app *config.App, logger *zap.Logger) (*Supervisor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Supervisor{maxThreads: app.MaxThreads, logger: logger}
	for _, cfg := range app.Symbols {
		bot, err := NewTradingBot(cfg, app.DataDir, logger)
		if err != nil {
			logger.Error("failed to configure symbol, skipping",
				zap.String("pair", cfg.Pair.String()),
				zap.Error(err))
			continue
		}
		s.bots = append(s.bots, bot)
	}

	if len(s.bots) == 0 {
		return nil, errors.New("no symbol could be configured")
	}
	return s, nil
}

// Bots returns the supervised bots, for reporting readers.
func (s *Supervisor) Bots() []*TradingBot {
	return s.bots
}

// Statuses returns the current status of every supervised symbol.
func (s *Supervisor) Statuses() []Status {
	out := make([]Status, 0, len(s.bots))
	for _, b := range s.bots {
		out = append(out, b.Status())
	}
	return out
}

// Run executes all control loops until the context is cancelled, then emits
// a final performance report per symbol and releases the ledgers.
func (s *Supervisor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	limit := s.maxThreads
	if limit > len(s.bots) {
		limit = len(s.bots)
	}
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, bot := range s.bots {
		bot := bot // save value for goroutine
		g.Go(func() error {
			if err := bot.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		s.logger.Info("started", zap.String("pair", bot.Pair().String()))
	}

	err := g.Wait()

	for _, bot := range s.bots {
		bot.Close()
	}
	return err
}
