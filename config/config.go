// Package config loads the per-symbol trading configuration from a yaml
// file or, for a single symbol, from CLI flags.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

const (
	defaultDataDir      = "./data"
	defaultMaxThreads   = 4
	defaultWebPort      = 8080
	defaultInterval     = "1m"
	defaultPollInterval = 5 * time.Second
	defaultIncrements   = 5
	defaultReportEvery  = 10
)

// Config holds the parsed settings for one trading symbol.
type Config struct {
	Pair     domain.Pair
	Platform string

	// InitialBalance is the starting quote balance for simulated trading.
	InitialBalance decimal.Decimal
	// BasePositionSize is the sizing unit for incremental entries, in base
	// currency.
	BasePositionSize decimal.Decimal
	// MaxIncrements caps aggregate exposure at MaxIncrements units of
	// BasePositionSize.
	MaxIncrements int

	// Interval is the kline interval ("1m", "5m", ...).
	Interval string
	// PollInterval is the control-loop tick target.
	PollInterval time.Duration

	Mode          domain.StrategyMode
	TakeProfitPct decimal.Decimal
	StopLossPct   decimal.Decimal

	// ReportEvery emits a performance report every N ticks; 0 disables it.
	ReportEvery int
}

// App is the full application configuration.
type App struct {
	DataDir    string
	MaxThreads int
	WebPort    int
	Symbols    []Config
}

// SymbolTmp is the yaml representation of one symbol's settings.
type SymbolTmp struct {
	Pair             string `yaml:"pair"`
	Platform         string `yaml:"platform"`
	InitialBalance   string `yaml:"initial_balance"`
	BasePositionSize string `yaml:"base_position_size"`
	MaxIncrements    int    `yaml:"max_increments"`
	Interval         string `yaml:"interval"`
	PollInterval     string `yaml:"poll_interval"`
	Mode             string `yaml:"mode"`
	TakeProfitPct    string `yaml:"take_profit_pct"`
	StopLossPct      string `yaml:"stop_loss_pct"`
	ReportEvery      int    `yaml:"report_every"`
}

// FileTmp is the yaml representation of the full config file.
type FileTmp struct {
	DataDir    string      `yaml:"data_dir"`
	MaxThreads int         `yaml:"max_threads"`
	WebPort    int         `yaml:"web_port"`
	Symbols    []SymbolTmp `yaml:"symbols"`
}

// Get loads the configuration from --config when provided, otherwise builds
// a single-symbol configuration from CLI flags.
func Get() (*App, error) {
	configPath := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "BTC_USDT", "trade pair, example: BTC_USDT")
	platformFlag := flag.String("platform", "simulate", "trading platform: simulate, binance or bybit")
	balanceFlag := flag.String("balance", "10000", "initial quote balance for simulated trading")
	baseSizeFlag := flag.String("basesize", "0.001", "base position size in base currency")
	incrementsFlag := flag.Int("increments", defaultIncrements, "maximum position increments")
	intervalFlag := flag.String("interval", defaultInterval, "kline interval, example: 1m")
	pollFlag := flag.Duration("poll", defaultPollInterval, "control loop tick interval")
	modeFlag := flag.String("mode", "enhanced", "strategy mode: standard, enhanced, scalping or high_frequency")
	dataDirFlag := flag.String("datadir", defaultDataDir, "directory for persistent ledgers")
	webPortFlag := flag.Int("webport", defaultWebPort, "port for the reporting server, 0 disables it")
	flag.Parse()

	if *configPath != "" {
		return FromYaml(*configPath)
	}

	sym, err := buildSymbol(SymbolTmp{
		Pair:             *pairFlag,
		Platform:         *platformFlag,
		InitialBalance:   *balanceFlag,
		BasePositionSize: *baseSizeFlag,
		MaxIncrements:    *incrementsFlag,
		Interval:         *intervalFlag,
		PollInterval:     pollFlag.String(),
		Mode:             *modeFlag,
		ReportEvery:      defaultReportEvery,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		DataDir:    *dataDirFlag,
		MaxThreads: defaultMaxThreads,
		WebPort:    *webPortFlag,
		Symbols:    []Config{sym},
	}, nil
}

// FromYaml loads and validates the configuration from a yaml file. A symbol
// that fails validation is logged and skipped so the remaining symbols can
// still trade; an error is returned only when no symbol survives.
func FromYaml(path string) (*App, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmp FileTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return nil, err
	}

	app := &App{
		DataDir:    tmp.DataDir,
		MaxThreads: tmp.MaxThreads,
		WebPort:    tmp.WebPort,
	}
	if app.DataDir == "" {
		app.DataDir = defaultDataDir
	}
	if app.MaxThreads <= 0 {
		app.MaxThreads = defaultMaxThreads
	}

	seen := make(map[string]struct{}, len(tmp.Symbols))
	for _, s := range tmp.Symbols {
		sym, err := buildSymbol(s)
		if err != nil {
			log.Printf("skipping symbol %q: %v", s.Pair, err)
			continue
		}
		if _, dup := seen[sym.Pair.String()]; dup {
			log.Printf("skipping duplicate symbol %s", sym.Pair.String())
			continue
		}
		seen[sym.Pair.String()] = struct{}{}
		app.Symbols = append(app.Symbols, sym)
	}
	if len(app.Symbols) == 0 {
		return nil, fmt.Errorf("config %s declares no usable symbols", path)
	}
	return app, nil
}

func buildSymbol(s SymbolTmp) (Config, error) {
	pair, err := domain.ParsePair(s.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param %q: %w", s.Pair, err)
	}

	platform := s.Platform
	if platform == "" {
		platform = "simulate"
	}
	switch platform {
	case "simulate", "binance", "bybit":
	default:
		return Config{}, fmt.Errorf("unknown platform %q for %s", platform, pair.String())
	}

	mode, err := domain.ParseStrategyMode(s.Mode)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'mode' param for %s: %w", pair.String(), err)
	}

	balance, err := parseDecimal(s.InitialBalance, "10000")
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'initial_balance' param for %s: %w", pair.String(), err)
	}
	if balance.LessThanOrEqual(decimal.Zero) {
		return Config{}, fmt.Errorf("'initial_balance' for %s must be positive", pair.String())
	}

	baseSize, err := parseDecimal(s.BasePositionSize, "0.001")
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'base_position_size' param for %s: %w", pair.String(), err)
	}
	if baseSize.LessThanOrEqual(decimal.Zero) {
		return Config{}, fmt.Errorf("'base_position_size' for %s must be positive", pair.String())
	}

	takeProfit, err := parseDecimal(s.TakeProfitPct, "0")
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'take_profit_pct' param for %s: %w", pair.String(), err)
	}
	stopLoss, err := parseDecimal(s.StopLossPct, "0")
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'stop_loss_pct' param for %s: %w", pair.String(), err)
	}
	if takeProfit.IsNegative() || stopLoss.IsNegative() {
		return Config{}, fmt.Errorf("take-profit/stop-loss for %s must not be negative", pair.String())
	}

	increments := s.MaxIncrements
	if increments == 0 {
		increments = defaultIncrements
	}
	if increments < 1 {
		return Config{}, fmt.Errorf("'max_increments' for %s must be at least 1", pair.String())
	}

	interval := s.Interval
	if interval == "" {
		interval = defaultInterval
	}

	poll := defaultPollInterval
	if s.PollInterval != "" {
		poll, err = time.ParseDuration(s.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'poll_interval' param for %s: %w", pair.String(), err)
		}
	}
	if poll <= 0 {
		return Config{}, fmt.Errorf("'poll_interval' for %s must be positive", pair.String())
	}

	reportEvery := s.ReportEvery
	if reportEvery < 0 {
		reportEvery = 0
	}

	return Config{
		Pair:             pair,
		Platform:         platform,
		InitialBalance:   balance,
		BasePositionSize: baseSize,
		MaxIncrements:    increments,
		Interval:         interval,
		PollInterval:     poll,
		Mode:             mode,
		TakeProfitPct:    takeProfit,
		StopLossPct:      stopLoss,
		ReportEvery:      reportEvery,
	}, nil
}

func parseDecimal(s, fallback string) (decimal.Decimal, error) {
	if s == "" {
		s = fallback
	}
	return decimal.NewFromString(s)
}
