package attribution

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/backtester/internal/domain"
	"github.com/aristath/backtester/internal/modules/calendar"
	"github.com/aristath/backtester/internal/modules/pricing"
	"github.com/aristath/backtester/internal/modules/simulation"
)

func money(v float64) domain.Money { return domain.MoneyFromFloat(v) }

func TestBuild_EmptyOutput(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrNoSnapshots)

	_, err = Build(&simulation.Output{})
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestBuild_Decomposition(t *testing.T) {
	date := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	out := &simulation.Output{
		Snapshots: []simulation.Snapshot{{
			Date: date,
			PerAssetValue: map[string]domain.Money{
				"AAA": money(2500),
				"BBB": money(800),
			},
		}},
		Events: []simulation.Event{
			// Portfolio-level cash entries carry no asset and are skipped.
			{Type: simulation.EventContribution, Amount: money(1500)},
			{Type: simulation.EventContributionBuy, AssetID: "AAA", Amount: money(1000)},
			{Type: simulation.EventContributionBuy, AssetID: "AAA", Amount: money(1000)},
			{Type: simulation.EventContributionBuy, AssetID: "BBB", Amount: money(500)},
			{Type: simulation.EventRebalanceSell, AssetID: "AAA", Amount: money(300)},
			{Type: simulation.EventRebalanceBuy, AssetID: "BBB", Amount: money(300)},
			{Type: simulation.EventDividend, AssetID: "BBB", Amount: money(20)},
		},
	}

	report, err := Build(out)
	require.NoError(t, err)
	require.Len(t, report.Assets, 2)

	a := report.Assets[0]
	assert.Equal(t, "AAA", a.AssetID)
	assert.InDelta(t, 2000.0, a.DirectContributions.Float64(), 0.001)
	assert.InDelta(t, -300.0, a.RebalanceFlow.Float64(), 0.001)
	assert.InDelta(t, 800.0, a.PriceAppreciation.Float64(), 0.001)

	b := report.Assets[1]
	assert.Equal(t, "BBB", b.AssetID)
	assert.InDelta(t, 500.0, b.DirectContributions.Float64(), 0.001)
	assert.InDelta(t, 300.0, b.RebalanceFlow.Float64(), 0.001)
	assert.InDelta(t, 20.0, b.Dividends.Float64(), 0.001)
	assert.InDelta(t, -20.0, b.PriceAppreciation.Float64(), 0.001)
}

// Running attribution over a real simulation must reconcile exactly: each
// asset's four parts sum back to its final value.
func TestBuild_ReconcilesWithSimulation(t *testing.T) {
	start := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 15, 0, 0, 0, 0, time.UTC)
	cps, err := calendar.ResolveCheckpoints(start, end, calendar.Quarterly)
	require.NoError(t, err)

	rising := make([]pricing.Observation, 0, 12)
	flat := make([]pricing.Observation, 0, 12)
	for m := 0; m < 12; m++ {
		date := time.Date(2020, time.Month(m+1), 15, 0, 0, 0, 0, time.UTC)
		rising = append(rising, pricing.Observation{Date: date, Close: 100 + float64(m)*10})
		flat = append(flat, pricing.Observation{Date: date, Close: 100})
	}

	engine, err := simulation.New(simulation.Config{
		Targets: []simulation.AllocationTarget{
			{AssetID: "AAA", Weight: 0.5},
			{AssetID: "BBB", Weight: 0.5},
		},
		Checkpoints:  cps,
		Contribution: domain.MoneyFromInt(1000),
		Series: map[string]pricing.Series{
			"AAA": pricing.NewSeries("AAA", rising),
			"BBB": pricing.NewSeries("BBB", flat),
		},
		Log: zerolog.Nop(),
	})
	require.NoError(t, err)

	out, err := engine.Run()
	require.NoError(t, err)

	report, err := Build(out)
	require.NoError(t, err)
	require.Len(t, report.Assets, 2)

	for _, b := range report.Assets {
		sum := b.DirectContributions.Add(b.Dividends).Add(b.RebalanceFlow).Add(b.PriceAppreciation)
		assert.True(t, b.FinalValue.Equal(sum),
			"%s: final %s != parts %s", b.AssetID, b.FinalValue, sum)
	}

	// The appreciating asset was trimmed by the quarterly rebalances.
	assert.Equal(t, "AAA", report.Assets[0].AssetID)
	assert.True(t, report.Assets[0].RebalanceFlow.IsNegative())
	assert.True(t, report.Assets[0].PriceAppreciation.IsPositive())
}

// A dividend payer at a flat price must still reconcile. The dividend cash
// is redeployed by later contribution buys, so the dividend column shows up
// twice across the flow columns and the residual offsets it.
func TestBuild_ReconcilesWithDividends(t *testing.T) {
	start := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 15, 0, 0, 0, 0, time.UTC)
	cps, err := calendar.ResolveCheckpoints(start, end, calendar.Monthly)
	require.NoError(t, err)

	obs := make([]pricing.Observation, 0, 12)
	for m := 0; m < 12; m++ {
		o := pricing.Observation{
			Date:  time.Date(2020, time.Month(m+1), 15, 0, 0, 0, 0, time.UTC),
			Close: 100,
		}
		// 30 shares held by then: 30.00 of dividend cash.
		if m == 3 {
			o.DividendPerShare = 1.00
		}
		obs = append(obs, o)
	}

	engine, err := simulation.New(simulation.Config{
		Targets:      []simulation.AllocationTarget{{AssetID: "AAA", Weight: 1}},
		Checkpoints:  cps,
		Contribution: domain.MoneyFromInt(1000),
		Series:       map[string]pricing.Series{"AAA": pricing.NewSeries("AAA", obs)},
		Log:          zerolog.Nop(),
	})
	require.NoError(t, err)

	out, err := engine.Run()
	require.NoError(t, err)

	report, err := Build(out)
	require.NoError(t, err)
	require.Len(t, report.Assets, 1)

	b := report.Assets[0]
	assert.InDelta(t, 12030.0, b.FinalValue.Float64(), 0.001)
	assert.InDelta(t, 30.0, b.Dividends.Float64(), 0.001)
	assert.InDelta(t, 0.0, b.RebalanceFlow.Float64(), 0.001)
	// The price never moved; the residual only cancels the reinvested dividend.
	assert.InDelta(t, -30.0, b.PriceAppreciation.Float64(), 0.001)

	sum := b.DirectContributions.Add(b.Dividends).Add(b.RebalanceFlow).Add(b.PriceAppreciation)
	assert.True(t, b.FinalValue.Equal(sum), "final %s != parts %s", b.FinalValue, sum)
}
