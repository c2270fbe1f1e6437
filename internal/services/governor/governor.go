// Package governor bounds the rate of entry actions per symbol.
package governor

import "time"

// Governor is a per-symbol rate limiter over entry actions (buys and
// non-risk sells). It is consulted immediately before an entry executes and
// never for protective risk exits. State is ephemeral and single-writer
// (the symbol's control loop), so no locking is needed.
type Governor struct {
	enabled bool
	limit   int
	window  time.Duration

	lastTradeTime  time.Time
	tradesInWindow int
}

// New creates a governor allowing limit entries per window. A disabled
// governor always permits.
func New(limit int, window time.Duration, enabled bool) *Governor {
	return &Governor{
		enabled: enabled,
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether an entry may execute at the given time, recording
// it when permitted. The counter resets once more than one window has
// elapsed since the last recorded entry.
func (g *Governor) Allow(now time.Time) bool {
	if !g.enabled {
		return true
	}

	if g.lastTradeTime.IsZero() {
		g.tradesInWindow = 1
		g.lastTradeTime = now
		return true
	}

	if now.Sub(g.lastTradeTime) > g.window {
		g.tradesInWindow = 0
	}

	if g.tradesInWindow < g.limit {
		g.tradesInWindow++
		g.lastTradeTime = now
		return true
	}
	return false
}

// TradesInWindow returns the number of entries recorded in the current
// window, for status reporting.
func (g *Governor) TradesInWindow() int {
	return g.tradesInWindow
}
