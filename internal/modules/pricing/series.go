package pricing

import (
	"sort"
	"time"
)

// Series is the immutable, date-ordered observation sequence for one asset,
// with carry-forward lookup. Built once per run by the prefetcher.
type Series struct {
	assetID string
	obs     []Observation
}

// NewSeries builds a series from observations, sorting by date if needed.
// Observations with a non-positive close are dropped; dividend-only rows
// (dividend set, close zero) are kept for accrual but never used as prices.
func NewSeries(assetID string, obs []Observation) Series {
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Close > 0 || o.DividendPerShare > 0 {
			kept = append(kept, o)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Date.Before(kept[j].Date)
	})

	return Series{assetID: assetID, obs: kept}
}

// AssetID returns the asset this series belongs to.
func (s Series) AssetID() string { return s.assetID }

// Empty reports whether the series has no price observations at all.
func (s Series) Empty() bool {
	for _, o := range s.obs {
		if o.Close > 0 {
			return false
		}
	}
	return true
}

// PriceOn returns the closing price in effect on the given date using the
// carry-forward policy: the most recent observation on or before the date.
// The second return is the observation date the price was carried from.
// ok is false when no observation exists on or before the date.
func (s Series) PriceOn(date time.Time) (price float64, asOf time.Time, ok bool) {
	// First index strictly after the date
	idx := sort.Search(len(s.obs), func(i int) bool {
		return s.obs[i].Date.After(date)
	})

	// Walk back to the latest row with a usable close
	for i := idx - 1; i >= 0; i-- {
		if s.obs[i].Close > 0 {
			return s.obs[i].Close, s.obs[i].Date, true
		}
	}

	return 0, time.Time{}, false
}

// DividendsBetween returns the observations carrying a dividend payment
// dated in the half-open interval (after, until].
func (s Series) DividendsBetween(after, until time.Time) []Observation {
	var out []Observation
	for _, o := range s.obs {
		if o.DividendPerShare <= 0 {
			continue
		}
		if o.Date.After(after) && !o.Date.After(until) {
			out = append(out, o)
		}
	}
	return out
}
