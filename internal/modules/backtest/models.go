package backtest

import (
	"time"

	"github.com/aristath/backtester/internal/modules/attribution"
	"github.com/aristath/backtester/internal/modules/metrics"
	"github.com/aristath/backtester/internal/modules/simulation"
)

// Request describes one backtest run as submitted by the API.
type Request struct {
	StartDate           string                        `json:"start_date"`       // YYYY-MM-DD
	EndDate             string                        `json:"end_date"`         // YYYY-MM-DD
	RebalancePeriod     string                        `json:"rebalance_period"` // monthly, quarterly or annual
	InitialInvestment   float64                       `json:"initial_investment"`
	MonthlyContribution float64                       `json:"monthly_contribution"`
	RiskFreeRate        *float64                      `json:"risk_free_rate,omitempty"` // annual; server default when omitted
	Allocations         []simulation.AllocationTarget `json:"allocations"`
}

// Result is the full output of a completed run, persisted as one document.
type Result struct {
	ID             string                `json:"id"`
	CreatedAt      time.Time             `json:"created_at"`
	Request        Request               `json:"request"`
	Snapshots      []simulation.Snapshot `json:"snapshots"`
	Events         []simulation.Event    `json:"events"`
	Warnings       []simulation.Warning  `json:"warnings"`
	Metrics        *metrics.Result       `json:"metrics"`
	Attribution    *attribution.Report   `json:"attribution"`
	SmoothedEquity []float64             `json:"smoothed_equity"`
}

// Summary is the list-endpoint projection of a stored result.
type Summary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	FinalValue  float64   `json:"final_value"`
	TotalReturn float64   `json:"total_return"`
}
