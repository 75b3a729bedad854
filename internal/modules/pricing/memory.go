package pricing

import (
	"time"
)

// StaticProvider serves observations from an in-memory map. Used by tests
// and by requests that carry their own price data inline.
type StaticProvider struct {
	history map[string][]Observation
}

// NewStaticProvider creates a provider over a fixed observation map.
func NewStaticProvider(history map[string][]Observation) *StaticProvider {
	return &StaticProvider{history: history}
}

// GetPriceHistory returns the stored observations within the range.
func (p *StaticProvider) GetPriceHistory(assetID string, start, end time.Time) ([]Observation, error) {
	var out []Observation
	for _, o := range p.history[assetID] {
		if o.Date.Before(start) || o.Date.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
