package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// StrategyMode selects the trading profile for one symbol. It replaces the
// usual tangle of strategy on/off flags: the mode is chosen once at startup
// and its parameter bundle is passed explicitly to the signal estimator and
// the risk manager.
type StrategyMode int

const (
	// ModeStandard trades on plain MA-crossover signals.
	ModeStandard StrategyMode = iota
	// ModeEnhanced adds oscillator and band signals for more frequent trades.
	ModeEnhanced
	// ModeScalping uses short EMA windows and tight bands.
	ModeScalping
	// ModeHighFrequency trades sub-minute with tight protective exits and an
	// active trade governor.
	ModeHighFrequency
)

const (
	modeStringStandard      = "standard"
	modeStringEnhanced      = "enhanced"
	modeStringScalping      = "scalping"
	modeStringHighFrequency = "high_frequency"
)

// ParseStrategyMode parses the yaml/CLI representation of a mode.
func ParseStrategyMode(s string) (StrategyMode, error) {
	switch s {
	case modeStringStandard:
		return ModeStandard, nil
	case modeStringEnhanced, "":
		return ModeEnhanced, nil
	case modeStringScalping:
		return ModeScalping, nil
	case modeStringHighFrequency:
		return ModeHighFrequency, nil
	default:
		return ModeStandard, errors.Errorf("unknown strategy mode %q", s)
	}
}

// String returns the string representation of the mode.
func (m StrategyMode) String() string {
	switch m {
	case ModeStandard:
		return modeStringStandard
	case ModeEnhanced:
		return modeStringEnhanced
	case ModeScalping:
		return modeStringScalping
	case ModeHighFrequency:
		return modeStringHighFrequency
	default:
		return "unknown"
	}
}

// Governed reports whether entry actions for this mode pass through the
// trade governor. Protective risk exits are never governed.
func (m StrategyMode) Governed() bool {
	return m == ModeHighFrequency
}

const (
	// defaultTradesPerMinute bounds entry actions in high-frequency mode.
	defaultTradesPerMinute = 20
	// defaultMinIncrementStrength is the weakest signal that still adds to a
	// position.
	defaultMinIncrementStrength = 0.5
	// defaultOversoldThreshold is the oscillator level below which the
	// extremity sub-score becomes positive.
	defaultOversoldThreshold = 30.0
)

// StrategyParams bundles the per-symbol tuning derived from a StrategyMode.
type StrategyParams struct {
	Mode StrategyMode

	// TakeProfitPct and StopLossPct are percentage thresholds for per-lot
	// protective exits.
	TakeProfitPct decimal.Decimal
	StopLossPct   decimal.Decimal

	// MASpreadDivisor normalizes the moving-average spread sub-score.
	MASpreadDivisor float64
	// OversoldThreshold is the oscillator extremity cutoff.
	OversoldThreshold float64
	// MinIncrementStrength is the weakest signal that still adds to a position.
	MinIncrementStrength float64

	// TradesPerMinute is the governor limit; effective only when the mode is
	// governed.
	TradesPerMinute int
}

// NewStrategyParams builds the parameter bundle for a mode. High-frequency
// mode overrides take-profit/stop-loss with its tighter fixed thresholds;
// other modes use the provided values, falling back to 1.5%/1.0%.
func NewStrategyParams(mode StrategyMode, takeProfitPct, stopLossPct decimal.Decimal) (StrategyParams, error) {
	if takeProfitPct.IsNegative() || stopLossPct.IsNegative() {
		return StrategyParams{}, errors.New("take-profit and stop-loss percentages must not be negative")
	}

	p := StrategyParams{
		Mode:                 mode,
		TakeProfitPct:        takeProfitPct,
		StopLossPct:          stopLossPct,
		MASpreadDivisor:      5.0,
		OversoldThreshold:    defaultOversoldThreshold,
		MinIncrementStrength: defaultMinIncrementStrength,
		TradesPerMinute:      defaultTradesPerMinute,
	}

	if takeProfitPct.IsZero() {
		p.TakeProfitPct = decimal.NewFromFloat(1.5)
	}
	if stopLossPct.IsZero() {
		p.StopLossPct = decimal.NewFromFloat(1.0)
	}

	switch mode {
	case ModeScalping:
		p.MASpreadDivisor = 3.0
	case ModeHighFrequency:
		p.MASpreadDivisor = 3.0
		p.TakeProfitPct = decimal.NewFromFloat(0.5)
		p.StopLossPct = decimal.NewFromFloat(0.3)
	}

	return p, nil
}
