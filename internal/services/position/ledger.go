// Package position implements the per-symbol position ledger: an ordered
// collection of open lots with FIFO cost-basis accounting and the sizing
// math for incremental entries and strength-scaled exits.
package position

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrExposureCap is returned when a buy would push the aggregate position
// above maxIncrements * baseSize. The ledger is left unchanged.
var ErrExposureCap = errors.New("buy would exceed maximum position exposure")

// fullExitStrength is the signal strength above which an exit liquidates
// the whole position.
const fullExitStrength = 0.8

// Ledger tracks open lots for one symbol, oldest first. It is owned by the
// symbol's control loop and assumes a single writer; no internal locking.
type Ledger struct {
	baseSize      decimal.Decimal
	maxIncrements int
	minStrength   float64

	// lots[head:] are the open lots in FIFO order. Head-indexed so that
	// consuming the oldest lot is O(1).
	lots []Lot
	head int
	size decimal.Decimal

	logger *zap.Logger
}

// Lot is one open lot held by the ledger.
type Lot struct {
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
	OpenedAt   time.Time
}

// HasKnownEntry reports whether the lot carries a usable cost basis.
// Lots recovered from a previous session have a zero entry price.
func (l Lot) HasKnownEntry() bool {
	return l.EntryPrice.IsPositive()
}

// Fill is a consumed (amount, entry price) slice returned by Sell for
// cost-basis and PnL reporting.
type Fill struct {
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
}

// NewLedger creates a ledger sized in units of baseSize with at most
// maxIncrements units of aggregate exposure.
func NewLedger(baseSize decimal.Decimal, maxIncrements int, minStrength float64, logger *zap.Logger) (*Ledger, error) {
	if baseSize.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("base position size must be positive")
	}
	if maxIncrements < 1 {
		return nil, errors.Errorf("max increments must be at least 1, got %d", maxIncrements)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		baseSize:      baseSize,
		maxIncrements: maxIncrements,
		minStrength:   minStrength,
		size:          decimal.Zero,
		logger:        logger,
	}, nil
}

// Size returns the aggregate open position size.
func (l *Ledger) Size() decimal.Decimal {
	return l.size
}

// BaseSize returns the sizing unit.
func (l *Ledger) BaseSize() decimal.Decimal {
	return l.baseSize
}

// MaxSize returns the exposure cap, maxIncrements * baseSize.
func (l *Ledger) MaxSize() decimal.Decimal {
	return l.baseSize.Mul(decimal.NewFromInt(int64(l.maxIncrements)))
}

// Lots returns a copy of the open lots in FIFO order.
func (l *Ledger) Lots() []Lot {
	out := make([]Lot, len(l.lots)-l.head)
	copy(out, l.lots[l.head:])
	return out
}

// Oldest returns the oldest open lot.
func (l *Ledger) Oldest() (Lot, bool) {
	if l.head >= len(l.lots) {
		return Lot{}, false
	}
	return l.lots[l.head], true
}

// Buy appends a new lot. It is a no-op returning ErrExposureCap when the
// buy would exceed the exposure cap.
func (l *Ledger) Buy(amount, price decimal.Decimal, openedAt time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.Errorf("buy amount must be positive, got %s", amount.String())
	}
	if l.size.Add(amount).GreaterThan(l.MaxSize()) {
		return ErrExposureCap
	}

	l.lots = append(l.lots, Lot{Amount: amount, EntryPrice: price, OpenedAt: openedAt})
	l.size = l.size.Add(amount)
	return nil
}

// Restore recreates position recovered from a persisted session as a single
// lot with unknown entry price. Such lots count toward exposure and the
// micro-trend exit but are exempt from take-profit/stop-loss.
func (l *Ledger) Restore(amount decimal.Decimal, openedAt time.Time) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	if l.size.Add(amount).GreaterThan(l.MaxSize()) {
		l.logger.Warn("recovered position exceeds exposure cap",
			zap.String("amount", amount.String()),
			zap.String("cap", l.MaxSize().String()))
	}
	l.lots = append(l.lots, Lot{Amount: amount, EntryPrice: decimal.Zero, OpenedAt: openedAt})
	l.size = l.size.Add(amount)
}

// Sell consumes up to amount from the open lots, oldest first, and returns
// the consumed (amount, entry price) slices. A request above the current
// position size is clamped and logged as an anomaly.
func (l *Ledger) Sell(amount decimal.Decimal) []Fill {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	if amount.GreaterThan(l.size) {
		l.logger.Warn("sell exceeds open position, clamping",
			zap.String("requested", amount.String()),
			zap.String("position", l.size.String()))
		amount = l.size
	}

	remaining := amount
	var fills []Fill
	for remaining.IsPositive() && l.head < len(l.lots) {
		lot := &l.lots[l.head]
		if remaining.GreaterThanOrEqual(lot.Amount) {
			fills = append(fills, Fill{Amount: lot.Amount, EntryPrice: lot.EntryPrice})
			remaining = remaining.Sub(lot.Amount)
			l.size = l.size.Sub(lot.Amount)
			l.head++
			continue
		}
		fills = append(fills, Fill{Amount: remaining, EntryPrice: lot.EntryPrice})
		lot.Amount = lot.Amount.Sub(remaining)
		l.size = l.size.Sub(remaining)
		remaining = decimal.Zero
	}

	l.compact()
	return fills
}

// compact drops fully consumed head entries once they dominate the slice.
func (l *Ledger) compact() {
	if l.head == 0 {
		return
	}
	if l.head == len(l.lots) {
		l.lots = l.lots[:0]
		l.head = 0
		return
	}
	if l.head > len(l.lots)/2 {
		n := copy(l.lots, l.lots[l.head:])
		l.lots = l.lots[:n]
		l.head = 0
	}
}

// CalculateIncrement returns the buy amount for a signal of the given
// strength: zero below the minimum strength, otherwise baseSize scaled by
// 1+strength, reduced near the exposure cap and never exceeding the
// remaining headroom.
func (l *Ledger) CalculateIncrement(strength float64) decimal.Decimal {
	if strength < l.minStrength {
		return decimal.Zero
	}

	remaining := l.MaxSize().Sub(l.size)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	factor := decimal.NewFromFloat(1.0 + strength)
	headroom := decimal.NewFromInt(int64(l.maxIncrements)).Sub(l.size.Div(l.baseSize))
	if headroom.LessThan(decimal.NewFromInt(1)) {
		factor = factor.Mul(headroom)
	}

	amount := l.baseSize.Mul(factor)
	if amount.GreaterThan(remaining) {
		amount = remaining
	}
	return amount
}

// CalculateExitAmount returns the sell amount for a signal of the given
// strength: the whole position above the full-exit threshold, otherwise a
// strength-scaled share of it, rounded up to one base unit. A residual
// position below one base unit is liquidated entirely rather than split.
func (l *Ledger) CalculateExitAmount(strength float64) decimal.Decimal {
	if l.size.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if strength > fullExitStrength {
		return l.size
	}
	if l.size.LessThan(l.baseSize) {
		return l.size
	}

	pct := decimal.NewFromFloat(0.25 + 0.5*strength)
	amount := l.size.Mul(pct)
	if amount.LessThan(l.baseSize) {
		amount = l.baseSize
	}
	if amount.GreaterThan(l.size) {
		amount = l.size
	}
	return amount
}
