package formulas

import (
	"github.com/markcheno/go-talib"
)

// SmoothSeries returns an EMA-smoothed copy of a value series, used for
// equity-curve charting. talib leaves the warm-up window as NaN; those
// entries are backfilled with the raw values so the output is plottable
// end to end.
//
// Series shorter than the period are returned unchanged.
func SmoothSeries(values []float64, period int) []float64 {
	if len(values) < period || period < 2 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	ema := talib.Ema(values, period)

	out := make([]float64, len(values))
	for i := range values {
		if i < len(ema) && !isNaN(ema[i]) && ema[i] != 0 {
			out[i] = ema[i]
		} else {
			out[i] = values[i]
		}
	}

	return out
}

// CalculateSMA calculates the Simple Moving Average over the trailing window.
// Returns nil if there is insufficient data.
func CalculateSMA(values []float64, length int) *float64 {
	if len(values) < length || length < 1 {
		return nil
	}

	sma := talib.Sma(values, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}
