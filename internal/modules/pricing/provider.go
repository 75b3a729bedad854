// Package pricing supplies historical price and dividend series to the
// simulation engine. The engine only ever sees prefetched, in-memory series;
// all I/O happens here, before the simulation loop starts.
package pricing

import (
	"time"
)

// DateFormat is the storage format for observation dates.
const DateFormat = "2006-01-02"

// Observation is a single daily price point for an asset. Gaps between
// observations are expected (non-trading days, missing vendor data).
type Observation struct {
	Date             time.Time `json:"date"`
	Close            float64   `json:"close"`             // > 0
	DividendPerShare float64   `json:"dividend,omitempty"` // >= 0
}

// Provider supplies, for an asset and date range, the ordered sequence of
// daily observations. Implementations must be safe for concurrent use: the
// prefetcher fans out one call per asset.
type Provider interface {
	GetPriceHistory(assetID string, start, end time.Time) ([]Observation, error)
}
