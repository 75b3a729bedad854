package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/backtester/internal/domain"
	"github.com/aristath/backtester/internal/modules/simulation"
)

func snap(month int, total, contributed, dividends float64) simulation.Snapshot {
	return simulation.Snapshot{
		Date:                    time.Date(2020, time.Month(month+1), 15, 0, 0, 0, 0, time.UTC),
		TotalValue:              domain.MoneyFromFloat(total),
		CumulativeContributions: domain.MoneyFromFloat(contributed),
		CumulativeDividends:     domain.MoneyFromFloat(dividends),
	}
}

func TestCalculate_NoSnapshots(t *testing.T) {
	_, err := Calculate(nil, 0)
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestCalculate_SingleSnapshot(t *testing.T) {
	result, err := Calculate([]simulation.Snapshot{snap(0, 1000, 1000, 0)}, 0)
	require.NoError(t, err)

	assert.Empty(t, result.PeriodReturns)
	assert.Zero(t, result.SharpeRatio)
	assert.Zero(t, result.MaxDrawdown)
	assert.Equal(t, 1000.0, result.FinalValue)
}

// Growth that comes entirely from contributions is not a return: every
// period return must be zero after the cash-flow adjustment.
func TestCalculate_ContributionsOnlyGrowth(t *testing.T) {
	snapshots := make([]simulation.Snapshot, 12)
	for i := range snapshots {
		v := float64(1000 * (i + 1))
		snapshots[i] = snap(i, v, v, 0)
	}

	result, err := Calculate(snapshots, 0)
	require.NoError(t, err)

	require.Len(t, result.PeriodReturns, 11)
	for _, r := range result.PeriodReturns {
		assert.InDelta(t, 0.0, r, 1e-9)
	}

	assert.InDelta(t, 0.0, result.TotalReturn, 1e-9)
	assert.Zero(t, result.SharpeRatio)
	assert.Zero(t, result.AnnualizedVolatility)
	assert.Zero(t, result.Consistency)
	assert.Zero(t, result.MaxDrawdown)
	assert.Equal(t, 12000.0, result.TotalContributions)
}

func TestCalculate_AppreciationAndDrawdown(t *testing.T) {
	// Lump sum of 10000, then +10%, -10%, +10% with no further cash flows.
	snapshots := []simulation.Snapshot{
		snap(0, 10000, 10000, 0),
		snap(1, 11000, 10000, 0),
		snap(2, 9900, 10000, 0),
		snap(3, 10890, 10000, 0),
	}

	result, err := Calculate(snapshots, 0)
	require.NoError(t, err)

	require.Len(t, result.PeriodReturns, 3)
	assert.InDelta(t, 0.10, result.PeriodReturns[0], 1e-9)
	assert.InDelta(t, -0.10, result.PeriodReturns[1], 1e-9)
	assert.InDelta(t, 0.10, result.PeriodReturns[2], 1e-9)

	assert.InDelta(t, 0.089, result.TotalReturn, 1e-9)
	assert.InDelta(t, -0.10, result.MaxDrawdown, 1e-9)
	assert.InDelta(t, 2.0/3.0, result.Consistency, 1e-9)
	assert.Greater(t, result.AnnualizedVolatility, 0.0)
}

func TestPeriodReturns_AdjustsForInflows(t *testing.T) {
	// 1000 grows to 2100 while 1000 of new cash came in: the real gain is
	// 100 on a 1000 base, a 10% return.
	snapshots := []simulation.Snapshot{
		snap(0, 1000, 1000, 0),
		snap(1, 2100, 2000, 0),
	}

	returns := PeriodReturns(snapshots)
	require.Len(t, returns, 1)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
}

func TestPeriodReturns_ZeroBase(t *testing.T) {
	snapshots := []simulation.Snapshot{
		snap(0, 0, 0, 0),
		snap(1, 1000, 1000, 0),
	}

	returns := PeriodReturns(snapshots)
	require.Len(t, returns, 1)
	assert.Zero(t, returns[0])
}

func TestSmoothedEquityCurve(t *testing.T) {
	snapshots := make([]simulation.Snapshot, 12)
	for i := range snapshots {
		snapshots[i] = snap(i, float64(1000*(i+1)), 0, 0)
	}

	curve := SmoothedEquityCurve(snapshots, 3)
	require.Len(t, curve, 12)

	// Short series fall back to the raw values.
	short := SmoothedEquityCurve(snapshots[:2], 3)
	assert.Equal(t, []float64{1000, 2000}, short)
}
