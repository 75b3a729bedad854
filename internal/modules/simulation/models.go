package simulation

import (
	"time"

	"github.com/aristath/backtester/internal/domain"
)

// AllocationTarget is one asset's target weight in the portfolio. Weights
// across a portfolio sum to 1.0 within tolerance; targets are immutable once
// a run starts.
type AllocationTarget struct {
	AssetID string  `json:"asset_id"`
	Weight  float64 `json:"weight"` // (0,1]
}

// EventType classifies transaction log entries.
type EventType string

const (
	// EventContribution is scheduled cash entering the portfolio.
	EventContribution EventType = "CONTRIBUTION"
	// EventContributionBuy is a purchase funded by a scheduled contribution.
	EventContributionBuy EventType = "CONTRIBUTION_BUY"
	// EventRebalanceBuy is a purchase made to restore target weights.
	EventRebalanceBuy EventType = "REBALANCE_BUY"
	// EventRebalanceSell is a sale made to restore target weights.
	EventRebalanceSell EventType = "REBALANCE_SELL"
	// EventDividend is dividend cash credited for held shares.
	EventDividend EventType = "DIVIDEND"
)

// Event is one entry in the transaction log the engine retains alongside the
// snapshot series. The log is the attribution reporter's input.
type Event struct {
	Date    time.Time     `json:"date"`
	Type    EventType     `json:"type"`
	AssetID string        `json:"asset_id,omitempty"` // empty for portfolio-level cash events
	Amount  domain.Money  `json:"amount"`             // cash amount, always positive
	Shares  domain.Shares `json:"shares,omitempty"`   // shares moved, zero for cash-only events
}

// PortfolioState is the engine's running state. Mutated only inside the
// simulation loop, once per checkpoint, monotonically forward in time.
type PortfolioState struct {
	Cash                    domain.Money
	Positions               map[string]domain.Shares
	CumulativeContributions domain.Money
	CumulativeDividends     domain.Money
}

func newPortfolioState() *PortfolioState {
	return &PortfolioState{
		Positions: make(map[string]domain.Shares),
	}
}

// Snapshot is the immutable record taken at every checkpoint. The ordered
// snapshot sequence is the sole input to the metrics calculator, so it
// carries the cumulative contribution figure the return calculation needs.
type Snapshot struct {
	Date                    time.Time               `json:"date"`
	TotalValue              domain.Money            `json:"total_value"`
	CashBalance             domain.Money            `json:"cash_balance"`
	PerAssetValue           map[string]domain.Money `json:"per_asset_value"`
	CumulativeContributions domain.Money            `json:"cumulative_contributions"`
	CumulativeDividends     domain.Money            `json:"cumulative_dividends"`
}

// Warning is a non-fatal data sparsity condition recorded during a run.
type Warning struct {
	AssetID string    `json:"asset_id"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// Output is everything a completed run produces.
type Output struct {
	Snapshots []Snapshot `json:"snapshots"`
	Events    []Event    `json:"events"`
	Warnings  []Warning  `json:"warnings"`
}
