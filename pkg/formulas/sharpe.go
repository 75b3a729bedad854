package formulas

import (
	"math"
)

// CalculateSharpeRatio calculates the annualized Sharpe Ratio
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Mean Periodic Return - Periodic Risk-free Rate) / Standard Deviation of Returns
//	Annualized: Sharpe × sqrt(periods per year)
//
// A zero-variance return series yields 0, not NaN: a flat series has no
// risk-adjusted excess return to report.
//
// Args:
//
//	returns: Array of periodic returns (monthly, daily, etc.)
//	riskFreeRate: Risk-free rate (annual, as decimal, e.g., 0.02 for 2%)
//	periodsPerYear: Number of periods per year (12 for monthly, 252 for daily)
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}

	meanReturn := Mean(returns)

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return 0
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)

	sharpe := (meanReturn - periodicRiskFree) / stdDev

	return sharpe * math.Sqrt(float64(periodsPerYear))
}

// CalculateSortinoRatio calculates the Sortino Ratio (downside deviation version of Sharpe)
// Only considers volatility of returns below the target/MAR.
//
// Args:
//
//	returns: Array of periodic returns
//	riskFreeRate: Risk-free rate (annual, as decimal)
//	targetReturn: Minimum Acceptable Return / MAR (annual, as decimal)
//	periodsPerYear: Number of periods per year
func CalculateSortinoRatio(returns []float64, riskFreeRate float64, targetReturn float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}

	meanReturn := Mean(returns)
	periodicMAR := targetReturn / float64(periodsPerYear)

	var downsideSquaredSum float64
	downsideCount := 0

	for _, ret := range returns {
		if ret < periodicMAR {
			deviation := ret - periodicMAR
			downsideSquaredSum += deviation * deviation
			downsideCount++
		}
	}

	if downsideCount == 0 {
		return 0
	}

	downsideDeviation := math.Sqrt(downsideSquaredSum / float64(downsideCount))
	if downsideDeviation == 0 {
		return 0
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sortino := (meanReturn - periodicRiskFree) / downsideDeviation

	return sortino * math.Sqrt(float64(periodsPerYear))
}
