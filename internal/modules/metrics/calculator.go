// Package metrics derives risk and return figures from a completed
// simulation's snapshot series. Contributions are external cash flows, so
// every period return is adjusted for the cash that entered during the
// period; raw value growth would overstate performance.
package metrics

import (
	"errors"

	"github.com/aristath/backtester/internal/modules/simulation"
	"github.com/aristath/backtester/pkg/formulas"
)

// ErrNoSnapshots is returned when the snapshot series is empty.
var ErrNoSnapshots = errors.New("cannot compute metrics without snapshots")

// Result holds every portfolio-level figure computed from a run. Returns and
// ratios are decimals (0.15 = 15%); MaxDrawdown is a negative fraction.
type Result struct {
	TotalReturn          float64   `json:"total_return"`
	AnnualizedReturn     float64   `json:"annualized_return"`
	AnnualizedVolatility float64   `json:"annualized_volatility"`
	SharpeRatio          float64   `json:"sharpe_ratio"`
	SortinoRatio         float64   `json:"sortino_ratio"`
	MaxDrawdown          float64   `json:"max_drawdown"`
	Consistency          float64   `json:"consistency"`
	FinalValue           float64   `json:"final_value"`
	TotalContributions   float64   `json:"total_contributions"`
	TotalDividends       float64   `json:"total_dividends"`
	PeriodReturns        []float64 `json:"period_returns"`
}

// Calculate computes portfolio metrics over an ordered snapshot series.
// riskFreeRate is annual; the series is assumed to be monthly checkpoints.
func Calculate(snapshots []simulation.Snapshot, riskFreeRate float64) (*Result, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	returns := PeriodReturns(snapshots)
	values := make([]float64, len(snapshots))
	for i, s := range snapshots {
		values[i] = s.TotalValue.Float64()
	}

	final := snapshots[len(snapshots)-1]
	finalValue := final.TotalValue.Float64()
	contributed := final.CumulativeContributions.Float64()

	totalReturn := 0.0
	if contributed > 0 {
		totalReturn = finalValue/contributed - 1
	}

	return &Result{
		TotalReturn:          totalReturn,
		AnnualizedReturn:     formulas.CalculateAnnualReturn(returns, formulas.MonthlyPeriodsPerYear),
		AnnualizedVolatility: formulas.AnnualizedVolatility(returns, formulas.MonthlyPeriodsPerYear),
		SharpeRatio:          formulas.CalculateSharpeRatio(returns, riskFreeRate, formulas.MonthlyPeriodsPerYear),
		SortinoRatio:         formulas.CalculateSortinoRatio(returns, riskFreeRate, 0, formulas.MonthlyPeriodsPerYear),
		MaxDrawdown:          formulas.CalculateMaxDrawdown(values),
		Consistency:          formulas.Consistency(returns),
		FinalValue:           finalValue,
		TotalContributions:   contributed,
		TotalDividends:       final.CumulativeDividends.Float64(),
		PeriodReturns:        returns,
	}, nil
}

// PeriodReturns computes the contribution-adjusted return for each interval
// between consecutive snapshots:
//
//	r[i] = (V[i] - V[i-1] - contributionsIn[i]) / V[i-1]
//
// A period starting from zero value has no meaningful base and reports 0.
func PeriodReturns(snapshots []simulation.Snapshot) []float64 {
	if len(snapshots) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(snapshots)-1)
	for i := 1; i < len(snapshots); i++ {
		base := snapshots[i-1].TotalValue.Float64()
		if base <= 0 {
			returns = append(returns, 0)
			continue
		}

		inflow := snapshots[i].CumulativeContributions.Sub(snapshots[i-1].CumulativeContributions)
		gain := snapshots[i].TotalValue.Sub(snapshots[i-1].TotalValue).Sub(inflow)
		returns = append(returns, gain.Float64()/base)
	}

	return returns
}

// SmoothedEquityCurve returns the EMA-smoothed total-value series for
// charting. The raw curve is returned for series shorter than the period.
func SmoothedEquityCurve(snapshots []simulation.Snapshot, period int) []float64 {
	values := make([]float64, len(snapshots))
	for i, s := range snapshots {
		values[i] = s.TotalValue.Float64()
	}
	return formulas.SmoothSeries(values, period)
}
