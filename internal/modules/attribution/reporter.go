// Package attribution decomposes a simulation's final value per asset: how
// much of each position came from contributions, rebalance flows, dividends,
// and price movement.
package attribution

import (
	"errors"
	"sort"

	"github.com/aristath/backtester/internal/domain"
	"github.com/aristath/backtester/internal/modules/simulation"
)

// ErrNoSnapshots is returned when the run produced no snapshots to attribute.
var ErrNoSnapshots = errors.New("cannot attribute an empty snapshot series")

// AssetBreakdown decomposes one asset's final value. Price appreciation is
// the residual, so the four parts always reconcile:
//
//	FinalValue = DirectContributions + Dividends + RebalanceFlow + PriceAppreciation
//
// Dividend cash re-enters the portfolio through later purchases and is then
// counted again in the flow columns; the residual absorbs that overlap.
type AssetBreakdown struct {
	AssetID             string       `json:"asset_id"`
	FinalValue          domain.Money `json:"final_value"`
	DirectContributions domain.Money `json:"direct_contributions"`
	RebalanceFlow       domain.Money `json:"rebalance_flow"` // signed: net cash moved in by rebalancing
	Dividends           domain.Money `json:"dividends"`
	PriceAppreciation   domain.Money `json:"price_appreciation"`
}

// Report is the per-asset attribution for a completed run, ordered by asset ID.
type Report struct {
	Assets []AssetBreakdown `json:"assets"`
}

// Build walks the transaction log and the final snapshot and produces the
// per-asset breakdown.
func Build(out *simulation.Output) (*Report, error) {
	if out == nil || len(out.Snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	final := out.Snapshots[len(out.Snapshots)-1]

	byAsset := make(map[string]*AssetBreakdown, len(final.PerAssetValue))
	breakdown := func(assetID string) *AssetBreakdown {
		if b, ok := byAsset[assetID]; ok {
			return b
		}
		b := &AssetBreakdown{AssetID: assetID}
		byAsset[assetID] = b
		return b
	}

	for assetID := range final.PerAssetValue {
		breakdown(assetID)
	}

	for _, ev := range out.Events {
		if ev.AssetID == "" {
			continue // portfolio-level cash event
		}

		b := breakdown(ev.AssetID)
		switch ev.Type {
		case simulation.EventContributionBuy:
			b.DirectContributions = b.DirectContributions.Add(ev.Amount)
		case simulation.EventRebalanceBuy:
			b.RebalanceFlow = b.RebalanceFlow.Add(ev.Amount)
		case simulation.EventRebalanceSell:
			b.RebalanceFlow = b.RebalanceFlow.Sub(ev.Amount)
		case simulation.EventDividend:
			b.Dividends = b.Dividends.Add(ev.Amount)
		}
	}

	assets := make([]AssetBreakdown, 0, len(byAsset))
	for assetID, b := range byAsset {
		b.FinalValue = final.PerAssetValue[assetID]
		b.PriceAppreciation = b.FinalValue.Sub(b.DirectContributions).Sub(b.Dividends).Sub(b.RebalanceFlow)
		assets = append(assets, *b)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].AssetID < assets[j].AssetID })

	return &Report{Assets: assets}, nil
}
