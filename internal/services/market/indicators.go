package market

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

// bandWidth is the standard-deviation multiplier for the Bollinger bands.
const bandWidth = 2.0

// analyze derives the indicator snapshot and the directional signal for the
// latest candle. Indicator groups with insufficient data are left unset;
// downstream scoring skips them instead of treating them as zero.
func analyze(candles []domain.MarketCandle, w Windows, oversold float64) (domain.IndicatorSnapshot, int) {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i], _ = c.Close.Float64()
	}

	var snap domain.IndicatorSnapshot

	if n := len(candles); n >= 2 {
		snap.LastClose = candles[n-1].Close
		snap.PrevClose = candles[n-2].Close
		snap.HasCloses = true
	}

	var shortMA, longMA []float64
	if len(closes) >= w.LongMA+1 {
		shortMA = ema(closes, w.ShortMA)
		longMA = ema(closes, w.LongMA)
		if len(shortMA) > 0 && len(longMA) > 0 {
			snap.ShortMA = decimal.NewFromFloat(shortMA[len(shortMA)-1])
			snap.LongMA = decimal.NewFromFloat(longMA[len(longMA)-1])
			snap.HasMA = true
		}
	}

	var osc float64
	if len(closes) >= w.Oscillator+1 {
		if series := rsi(closes, w.Oscillator); len(series) > 0 {
			osc = series[len(series)-1]
			snap.Oscillator = decimal.NewFromFloat(osc)
			snap.HasOscillator = true
		}
	}

	if lower, upper, ok := bands(closes, w.Bands); ok {
		snap.BandLower = decimal.NewFromFloat(lower)
		snap.BandUpper = decimal.NewFromFloat(upper)
		snap.HasBands = true
	}

	return snap, direction(shortMA, longMA, osc, snap.HasOscillator, oversold)
}

func ema(values []float64, period int) []float64 {
	e := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(e.Compute(helper.SliceToChan(values)))
}

func rsi(values []float64, period int) []float64 {
	r := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(r.Compute(helper.SliceToChan(values)))
}

// bands computes Bollinger bands over the trailing window: the simple moving
// average plus/minus bandWidth standard deviations.
func bands(values []float64, period int) (lower, upper float64, ok bool) {
	if period <= 0 || len(values) < period {
		return 0, 0, false
	}

	window := values[len(values)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(period)

	var variance float64
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(period))

	return mean - bandWidth*stdDev, mean + bandWidth*stdDev, true
}

// direction derives the +1/-1/0 signal for the latest candle: oscillator
// extremes take priority, then an MA crossover between the last two values
// of each series.
func direction(shortMA, longMA []float64, osc float64, hasOsc bool, oversold float64) int {
	if hasOsc {
		if osc < oversold {
			return 1
		}
		if osc > 100-oversold {
			return -1
		}
	}

	if len(shortMA) < 2 || len(longMA) < 2 {
		return 0
	}
	sPrev, sLast := shortMA[len(shortMA)-2], shortMA[len(shortMA)-1]
	lPrev, lLast := longMA[len(longMA)-2], longMA[len(longMA)-1]
	switch {
	case sLast > lLast && sPrev <= lPrev:
		return 1
	case sLast < lLast && sPrev >= lPrev:
		return -1
	}
	return 0
}
