package pricing

import (
	"fmt"
	"sync"
	"time"
)

// lookbackMonths widens the fetch window before the run start so the first
// checkpoint has a price to carry forward from.
const lookbackMonths = 12

// Prefetch fetches the price series for every asset concurrently and returns
// them keyed by asset ID. Safe because the provider is read-only; the
// simulation loop itself stays single-threaded.
//
// A provider error for any asset fails the prefetch: infrastructure failures
// are not the same as missing data, which shows up as an empty series and is
// handled downstream as a sparsity condition.
func Prefetch(provider Provider, assetIDs []string, start, end time.Time) (map[string]Series, error) {
	fetchStart := start.AddDate(0, -lookbackMonths, 0)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		series   = make(map[string]Series, len(assetIDs))
		firstErr error
	)

	for _, assetID := range assetIDs {
		wg.Add(1)
		go func(assetID string) {
			defer wg.Done()

			obs, err := provider.GetPriceHistory(assetID, fetchStart, end)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to fetch price history for %s: %w", assetID, err)
				}
				return
			}
			series[assetID] = NewSeries(assetID, obs)
		}(assetID)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return series, nil
}
