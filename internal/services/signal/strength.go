// Package signal turns an indicator snapshot into a [0,1] conviction score
// that drives position sizing.
package signal

import (
	"github.com/shopspring/decimal"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

var one = decimal.NewFromInt(1)

// Strength scores the latest indicator snapshot on a 0.0 (weak) to 1.0
// (strong) scale. Each available indicator group contributes one sub-score
// and the result is the arithmetic mean of the available sub-scores; a
// missing group is omitted, not treated as zero. With no indicators at all
// the score is 0.0.
func Strength(snap domain.IndicatorSnapshot, params domain.StrategyParams) float64 {
	var components []float64

	// Moving-average spread, normalized by the mode's divisor. Only a
	// positive spread (short above long) supports an entry.
	if snap.HasMA && snap.LongMA.IsPositive() {
		spread, _ := snap.ShortMA.Div(snap.LongMA).Sub(one).Float64()
		spreadPct := spread * 100
		components = append(components, clamp01(spreadPct/params.MASpreadDivisor))
	}

	// Oscillator extremity: distance below the oversold threshold, scaled
	// to [0,1]; zero when not oversold.
	if snap.HasOscillator {
		osc, _ := snap.Oscillator.Float64()
		if osc < params.OversoldThreshold {
			components = append(components, (params.OversoldThreshold-osc)/params.OversoldThreshold)
		} else {
			components = append(components, 0.0)
		}
	}

	// Band distance: 0 at the upper band, 1 at the lower band.
	if snap.HasBands && snap.HasCloses && snap.BandUpper.GreaterThan(snap.BandLower) {
		dist, _ := snap.LastClose.Sub(snap.BandLower).
			Div(snap.BandUpper.Sub(snap.BandLower)).Float64()
		components = append(components, 1.0-clamp01(dist))
	}

	// Momentum bonus: latest close above the prior close.
	if snap.HasCloses {
		if snap.LastClose.GreaterThan(snap.PrevClose) {
			components = append(components, 1.0)
		} else {
			components = append(components, 0.0)
		}
	}

	if len(components) == 0 {
		return 0.0
	}

	var sum float64
	for _, c := range components {
		sum += c
	}
	return sum / float64(len(components))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
