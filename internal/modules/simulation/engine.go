// Package simulation advances a portfolio checkpoint by checkpoint over
// historical prices. A run is a single-shot, purely functional transformation:
// identical inputs produce identical output, and no state survives the run.
package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/backtester/internal/domain"
	"github.com/aristath/backtester/internal/modules/calendar"
	"github.com/aristath/backtester/internal/modules/pricing"
	"github.com/rs/zerolog"
)

// stalePriceDays is how old a carried-forward price may be before the run
// records a sparsity warning for the asset.
const stalePriceDays = 7

// Config holds everything a run needs. Price series must already be
// prefetched; the engine performs no I/O.
type Config struct {
	Targets           []AllocationTarget
	Checkpoints       []calendar.Checkpoint
	InitialInvestment domain.Money // lump sum invested at the first checkpoint
	Contribution      domain.Money // recurring amount per contribution checkpoint
	Series            map[string]pricing.Series
	Log               zerolog.Logger
}

// Engine executes one backtest run. The loop is strictly sequential:
// checkpoint N+1 depends on the state checkpoint N left behind.
type Engine struct {
	targets      []AllocationTarget
	checkpoints  []calendar.Checkpoint
	initial      domain.Money
	contribution domain.Money
	series       map[string]pricing.Series
	log          zerolog.Logger
}

// New validates the configuration and builds an engine. All configuration
// errors surface here, once, before the loop starts.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Checkpoints) == 0 {
		return nil, ErrNoCheckpoints
	}

	if cfg.Contribution.IsNegative() || cfg.InitialInvestment.IsNegative() {
		return nil, ErrNegativeContribution
	}

	// Zero-weight assets are excluded from computation, not an error.
	targets := make([]AllocationTarget, 0, len(cfg.Targets))
	sum := 0.0
	for _, t := range cfg.Targets {
		if t.Weight == 0 {
			continue
		}
		if t.Weight < 0 || t.Weight > 1 {
			return nil, fmt.Errorf("%w: weight %.4f for %s out of range (0,1]",
				ErrAllocationSum, t.Weight, t.AssetID)
		}
		targets = append(targets, t)
		sum += t.Weight
	}

	if len(targets) == 0 || math.Abs(sum-1.0) > AllocationSumTolerance {
		return nil, fmt.Errorf("%w: got %.4f", ErrAllocationSum, sum)
	}

	// A run where every asset lacks price data entirely cannot produce a
	// meaningful result.
	allEmpty := true
	for _, t := range targets {
		if s, ok := cfg.Series[t.AssetID]; ok && !s.Empty() {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return nil, ErrNoPriceData
	}

	return &Engine{
		targets:      targets,
		checkpoints:  cfg.Checkpoints,
		initial:      cfg.InitialInvestment,
		contribution: cfg.Contribution,
		series:       cfg.Series,
		log:          cfg.Log.With().Str("component", "simulation").Logger(),
	}, nil
}

// Run executes the simulation and returns the snapshot series, the
// transaction log, and any sparsity warnings collected along the way.
func (e *Engine) Run() (*Output, error) {
	state := newPortfolioState()
	out := &Output{
		Snapshots: make([]Snapshot, 0, len(e.checkpoints)),
		Events:    []Event{},
		Warnings:  []Warning{},
	}

	var prev time.Time
	for i, cp := range e.checkpoints {
		prices := e.resolvePrices(cp.Date, out)

		if i > 0 {
			e.accrueDividends(prev, cp.Date, state, out)
		}

		if i == 0 && e.initial.IsPositive() {
			state.Cash = state.Cash.Add(e.initial)
			state.CumulativeContributions = state.CumulativeContributions.Add(e.initial)

			out.Events = append(out.Events, Event{
				Date:   cp.Date,
				Type:   EventContribution,
				Amount: e.initial,
			})

			// A pure valuation first checkpoint still invests the lump sum.
			if !cp.Contribute {
				e.buyTowardTargets(cp.Date, state, prices, out)
			}
		}

		if cp.Contribute {
			e.applyContribution(cp.Date, state, prices, out)
		}

		if cp.Rebalance {
			e.applyRebalance(cp.Date, state, prices, out)
		}

		out.Snapshots = append(out.Snapshots, e.snapshot(cp.Date, state, prices))
		prev = cp.Date
	}

	e.log.Debug().
		Int("checkpoints", len(e.checkpoints)).
		Int("events", len(out.Events)).
		Int("warnings", len(out.Warnings)).
		Msg("Simulation completed")

	return out, nil
}

// resolvePrices fetches the carry-forward price for every target asset at
// the checkpoint date. Assets with no usable price are absent from the map;
// a warning is recorded for them and for prices staler than stalePriceDays.
func (e *Engine) resolvePrices(date time.Time, out *Output) map[string]domain.Money {
	prices := make(map[string]domain.Money, len(e.targets))

	for _, t := range e.targets {
		series, ok := e.series[t.AssetID]
		if !ok {
			out.Warnings = append(out.Warnings, Warning{
				AssetID: t.AssetID,
				Date:    date,
				Message: "no price series available",
			})
			continue
		}

		price, asOf, ok := series.PriceOn(date)
		if !ok {
			out.Warnings = append(out.Warnings, Warning{
				AssetID: t.AssetID,
				Date:    date,
				Message: "no price observation on or before checkpoint",
			})
			continue
		}

		if date.Sub(asOf) > stalePriceDays*24*time.Hour {
			out.Warnings = append(out.Warnings, Warning{
				AssetID: t.AssetID,
				Date:    date,
				Message: fmt.Sprintf("price carried forward from %s", asOf.Format(pricing.DateFormat)),
			})
		}

		prices[t.AssetID] = domain.MoneyFromFloat(price)
	}

	return prices
}

// accrueDividends credits dividend cash for every payment dated in the
// interval since the previous checkpoint. The cash is available for the next
// purchase or rebalance step; it is not auto-converted to shares.
func (e *Engine) accrueDividends(after, until time.Time, state *PortfolioState, out *Output) {
	for _, t := range e.targets {
		shares, held := state.Positions[t.AssetID]
		if !held || shares.IsZero() {
			continue
		}

		series, ok := e.series[t.AssetID]
		if !ok {
			continue
		}

		for _, div := range series.DividendsBetween(after, until) {
			amount := shares.MulPrice(domain.MoneyFromFloat(div.DividendPerShare))
			if !amount.IsPositive() {
				continue
			}

			state.Cash = state.Cash.Add(amount)
			state.CumulativeDividends = state.CumulativeDividends.Add(amount)

			out.Events = append(out.Events, Event{
				Date:    div.Date,
				Type:    EventDividend,
				AssetID: t.AssetID,
				Amount:  amount,
			})
		}
	}
}

// applyContribution adds the scheduled contribution to cash and buys assets
// in proportion to their target weights. Drift correction is rebalancing's
// job: contributions always allocate toward targets. Assets without a usable
// price this checkpoint are excluded and the remaining weights renormalized
// for the step.
func (e *Engine) applyContribution(date time.Time, state *PortfolioState, prices map[string]domain.Money, out *Output) {
	if e.contribution.IsPositive() {
		state.Cash = state.Cash.Add(e.contribution)
		state.CumulativeContributions = state.CumulativeContributions.Add(e.contribution)

		out.Events = append(out.Events, Event{
			Date:   date,
			Type:   EventContribution,
			Amount: e.contribution,
		})
	}

	e.buyTowardTargets(date, state, prices, out)
}

// buyTowardTargets spends the entire cash balance on purchases split by
// target weight. Assets without a usable price this checkpoint are excluded
// and the remaining weights renormalized for the step.
func (e *Engine) buyTowardTargets(date time.Time, state *PortfolioState, prices map[string]domain.Money, out *Output) {
	usable := 0.0
	for _, t := range e.targets {
		if _, ok := prices[t.AssetID]; ok {
			usable += t.Weight
		}
	}
	if usable <= 0 || !state.Cash.IsPositive() {
		return
	}

	spend := state.Cash
	for _, t := range e.targets {
		price, ok := prices[t.AssetID]
		if !ok {
			continue
		}

		amount := spend.MulWeight(t.Weight / usable)
		if amount.GreaterThan(state.Cash) {
			amount = state.Cash
		}
		if !amount.IsPositive() {
			continue
		}

		shares := amount.DivPrice(price)
		state.Positions[t.AssetID] = state.Positions[t.AssetID].Add(shares)
		state.Cash = state.Cash.Sub(amount)

		out.Events = append(out.Events, Event{
			Date:    date,
			Type:    EventContributionBuy,
			AssetID: t.AssetID,
			Amount:  amount,
			Shares:  shares,
		})
	}
}

// rebalanceOrder is a pending buy or sell generated by a rebalance step.
type rebalanceOrder struct {
	assetID string
	amount  domain.Money
	price   domain.Money
}

// applyRebalance brings holdings back to target weights. Sells execute
// before buys so freed cash funds the purchases; when buy demand exceeds
// available cash the buys are scaled down proportionally, never selectively.
func (e *Engine) applyRebalance(date time.Time, state *PortfolioState, prices map[string]domain.Money, out *Output) {
	usable := 0.0
	total := state.Cash
	values := make(map[string]domain.Money, len(e.targets))

	for _, t := range e.targets {
		price, ok := prices[t.AssetID]
		if !ok {
			// Unpriced holdings have zero tradable value this checkpoint
			// and cannot be traded.
			continue
		}
		usable += t.Weight

		value := state.Positions[t.AssetID].MulPrice(price)
		values[t.AssetID] = value
		total = total.Add(value)
	}

	if usable <= 0 || !total.IsPositive() {
		return
	}

	var sells, buys []rebalanceOrder
	for _, t := range e.targets {
		price, ok := prices[t.AssetID]
		if !ok {
			continue
		}

		target := total.MulWeight(t.Weight / usable)
		delta := target.Sub(values[t.AssetID])

		switch {
		case delta.IsNegative():
			sells = append(sells, rebalanceOrder{assetID: t.AssetID, amount: delta.Neg(), price: price})
		case delta.IsPositive():
			buys = append(buys, rebalanceOrder{assetID: t.AssetID, amount: delta, price: price})
		}
	}

	for _, order := range sells {
		shares := order.amount.DivPrice(order.price)
		held := state.Positions[order.assetID]
		if held.LessThan(shares) {
			shares = held
			order.amount = held.MulPrice(order.price)
		}

		state.Positions[order.assetID] = held.Sub(shares)
		state.Cash = state.Cash.Add(order.amount)

		out.Events = append(out.Events, Event{
			Date:    date,
			Type:    EventRebalanceSell,
			AssetID: order.assetID,
			Amount:  order.amount,
			Shares:  shares,
		})
	}

	var demand domain.Money
	for _, order := range buys {
		demand = demand.Add(order.amount)
	}
	if !demand.IsPositive() {
		return
	}

	// Rebalancing never goes into debt: scale buys down proportionally
	// when demand exceeds the cash freed by sells plus existing balance.
	scale := 1.0
	if demand.GreaterThan(state.Cash) {
		scale = state.Cash.Ratio(demand)
	}

	for _, order := range buys {
		amount := order.amount
		if scale < 1.0 {
			amount = amount.MulWeight(scale)
		}
		if amount.GreaterThan(state.Cash) {
			amount = state.Cash
		}
		if !amount.IsPositive() {
			continue
		}

		shares := amount.DivPrice(order.price)
		state.Positions[order.assetID] = state.Positions[order.assetID].Add(shares)
		state.Cash = state.Cash.Sub(amount)

		out.Events = append(out.Events, Event{
			Date:    date,
			Type:    EventRebalanceBuy,
			AssetID: order.assetID,
			Amount:  amount,
			Shares:  shares,
		})
	}
}

// snapshot records the post-checkpoint state. Total value is computed as
// cash plus the sum of per-asset values, so the conservation invariant holds
// by construction.
func (e *Engine) snapshot(date time.Time, state *PortfolioState, prices map[string]domain.Money) Snapshot {
	perAsset := make(map[string]domain.Money, len(e.targets))
	total := state.Cash

	for _, t := range e.targets {
		value := domain.Money{}
		if price, ok := prices[t.AssetID]; ok {
			value = state.Positions[t.AssetID].MulPrice(price)
		}
		perAsset[t.AssetID] = value
		total = total.Add(value)
	}

	return Snapshot{
		Date:                    date,
		TotalValue:              total,
		CashBalance:             state.Cash,
		PerAssetValue:           perAsset,
		CumulativeContributions: state.CumulativeContributions,
		CumulativeDividends:     state.CumulativeDividends,
	}
}
