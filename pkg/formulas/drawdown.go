package formulas

// CalculateMaxDrawdown calculates the maximum peak-to-trough decline in a
// value series, expressed as a negative fraction (-0.25 = 25% loss from peak).
//
// Single forward pass tracking the running peak; a non-decreasing series
// yields 0. The result is always in [-1, 0].
func CalculateMaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			drawdown := (v - peak) / peak
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	if maxDrawdown < -1 {
		maxDrawdown = -1
	}

	return maxDrawdown
}

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown      float64 `json:"max_drawdown"`       // Largest decline as negative fraction
	CurrentDrawdown  float64 `json:"current_drawdown"`   // Current decline from peak
	PeriodsInDecline int     `json:"periods_in_decline"` // Periods since peak
	PeakValue        float64 `json:"peak_value"`         // Value at peak
	CurrentValue     float64 `json:"current_value"`      // Last value in the series
}

// CalculateDrawdownMetrics calculates comprehensive drawdown metrics
// including current drawdown, periods in decline, and peak values
func CalculateDrawdownMetrics(values []float64) *DrawdownMetrics {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]
	peakIndex := 0
	currentValue := values[len(values)-1]

	for i, v := range values {
		if v > peak {
			peak = v
			peakIndex = i
		}

		if peak > 0 {
			drawdown := (v - peak) / peak
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (currentValue - peak) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdown:      maxDrawdown,
		CurrentDrawdown:  currentDrawdown,
		PeriodsInDecline: len(values) - 1 - peakIndex,
		PeakValue:        peak,
		CurrentValue:     currentValue,
	}
}
