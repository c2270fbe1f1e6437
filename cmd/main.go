// Command crypto-trading-bot runs a multi-symbol trading bot with
// strength-sized incremental entries and per-lot protective exits. Symbols
// are configured via a YAML file or command-line arguments; --setup starts
// an interactive configuration wizard.
//
// Usage:
//
//	crypto-trading-bot --config config.yaml
//	crypto-trading-bot --setup
//	crypto-trading-bot (uses CLI arguments, simulated trading)
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/beborico1/crypto-trading-bot/config"
	"github.com/beborico1/crypto-trading-bot/internal"
	"github.com/beborico1/crypto-trading-bot/internal/setup"
	"github.com/beborico1/crypto-trading-bot/internal/web"
)

func main() {
	setupMode := flag.Bool("setup", false, "run the interactive configuration wizard")

	// config.Get registers the remaining flags and parses them all
	app, err := config.Get()

	if *setupMode {
		path, terr := setup.RunTUI()
		if terr != nil {
			log.Fatal(terr)
		}
		app, err = config.FromYaml(path)
	}
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisor, err := internal.NewSupervisor(app, logger)
	if err != nil {
		logger.Fatal("failed to start supervisor", zap.Error(err))
	}

	if app.WebPort > 0 {
		stores := make(map[string]web.SymbolStore, len(supervisor.Bots()))
		for _, bot := range supervisor.Bots() {
			stores[bot.Pair().String()] = bot.Store()
		}
		server := web.NewServer(fmt.Sprintf(":%d", app.WebPort), stores)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("reporting server failed", zap.Error(err))
			}
		}()
		logger.Info("reporting server listening", zap.Int("port", app.WebPort))
	}

	if err := supervisor.Run(ctx); err != nil {
		logger.Fatal("supervisor exited with error", zap.Error(err))
	}
}
