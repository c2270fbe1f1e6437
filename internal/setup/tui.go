// Package setup provides the terminal configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/beborico1/crypto-trading-bot/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

const generatedConfigFile = "config.gen.yaml"

// RunTUI launches the terminal configuration wizard and writes the result
// to config.gen.yaml. It returns the written filename.
func RunTUI() (string, error) {
	var (
		platform    string
		pair        string
		mode        string
		balanceStr  string
		baseSizeStr string
		increments  string
		interval    string
		pollStr     string
		takeProfit  string
		stopLoss    string
		confirm     bool
	)

	// defaults
	balanceStr = "10000"
	baseSizeStr = "0.001"
	increments = "5"
	interval = "1m"
	pollStr = "5s"
	takeProfit = "1.5"
	stopLoss = "1.0"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("TRADING BOT CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's get your bot trading.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Simulation", "simulate"),
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return "", err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADING BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("Must contain underscore (e.g. BTC_USDT)").
				Value(&pair).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("pair cannot be empty")
					}
					if !containsUnderscore(s) {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_USDT)")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADING BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: STRATEGY MODE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your strategy mode").
				Options(
					huh.NewOption("Standard (MA crossover)", "standard"),
					huh.NewOption("Enhanced (multi-indicator)", "enhanced"),
					huh.NewOption("Scalping (short windows)", "scalping"),
					huh.NewOption("High Frequency (sub-minute, governed)", "high_frequency"),
				).
				Value(&mode),
		),
	).Run()
	if err != nil {
		return "", err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADING BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: SIZING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Initial Quote Balance").
				Description("Starting balance for simulated trading (e.g. 10000)").
				Value(&balanceStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Base Position Size").
				Description("Sizing unit in base currency (e.g. 0.001)").
				Value(&baseSizeStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Max Increments").
				Description("Exposure cap in units of base size (e.g. 5)").
				Value(&increments).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return fmt.Errorf("must be an integer >= 1")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADING BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: TIMING AND EXITS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kline Interval").
				Description("Candle interval (e.g. 1m, 5m, 1h)").
				Value(&interval),
			huh.NewInput().
				Title("Poll Interval").
				Description("Duration string (e.g. 5s, 30s, 1m)").
				Value(&pollStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewInput().
				Title("Take Profit %").
				Description("Per-lot take-profit threshold (ignored in high_frequency mode)").
				Value(&takeProfit),
			huh.NewInput().
				Title("Stop Loss %").
				Description("Per-lot stop-loss threshold (ignored in high_frequency mode)").
				Value(&stopLoss),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADING BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nPair: %s\nMode: %s\nBalance: %s\nBase size: %s x %s\nInterval: %s / poll %s\nTP/SL: %s%% / %s%%\n",
		platform, pair, mode, balanceStr, baseSizeStr, increments, interval, pollStr, takeProfit, stopLoss,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}
	if !confirm {
		return "", fmt.Errorf("setup cancelled by user")
	}

	maxIncrements, _ := strconv.Atoi(increments)
	file := config.FileTmp{
		Symbols: []config.SymbolTmp{{
			Pair:             pair,
			Platform:         platform,
			InitialBalance:   balanceStr,
			BasePositionSize: baseSizeStr,
			MaxIncrements:    maxIncrements,
			Interval:         interval,
			PollInterval:     pollStr,
			Mode:             mode,
			TakeProfitPct:    takeProfit,
			StopLossPct:      stopLoss,
		}},
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return "", fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(generatedConfigFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\n✓ Configuration saved to %s\nStarting bot...", generatedConfigFile)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return generatedConfigFile, nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
