package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MonthlyPeriodsPerYear is the annualization base for monthly checkpoint series.
const MonthlyPeriodsPerYear = 12

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from periodic returns
// Formula: Std Dev of Periodic Returns × sqrt(periods per year)
//
// Args:
//
//	returns: Periodic returns as decimals
//	periodsPerYear: Number of periods per year (12 for monthly, 252 for daily)
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}

	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}

// Consistency calculates the fraction of periods with a strictly positive return.
// Result is in [0, 1]; an empty series yields 0.
func Consistency(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	positive := 0
	for _, r := range returns {
		if r > 0 {
			positive++
		}
	}

	return float64(positive) / float64(len(returns))
}

// CalculateAnnualReturn calculates annualized return (CAGR) from periodic returns
//
// Formula: ((1+r1)*(1+r2)*...*(1+rN))^(periodsPerYear/N) - 1
//
// Args:
//
//	returns: Periodic returns as decimals (e.g., 0.01 = 1%)
//	periodsPerYear: Number of periods per year
//
// Returns:
//
//	Annualized return as decimal (e.g., 0.15 = 15% annual return)
func CalculateAnnualReturn(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0.0
	}

	cumulative := 1.0
	for _, r := range returns {
		cumulative *= (1 + r)
	}

	if cumulative <= 0 {
		return -1.0
	}

	numPeriods := float64(len(returns))

	// For very short series, return simple cumulative return to avoid
	// extreme annualization
	if numPeriods < 3 {
		return cumulative - 1
	}

	years := numPeriods / float64(periodsPerYear)

	annualized := math.Pow(cumulative, 1.0/years) - 1
	if math.IsInf(annualized, 0) || math.IsNaN(annualized) {
		return 0
	}
	return annualized
}

func isNaN(f float64) bool {
	return math.IsNaN(f)
}
