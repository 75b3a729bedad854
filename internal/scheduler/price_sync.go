package scheduler

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/backtester/internal/clients/yahoo"
	"github.com/aristath/backtester/internal/modules/pricing"
)

const historyDBSuffix = ".history.db"

// PriceSyncJob refreshes the daily close history for every symbol that
// already has a history database. New symbols enter via the prices API; this
// job only keeps known histories current.
type PriceSyncJob struct {
	historyDir string
	client     *yahoo.Client
	period     string
	log        zerolog.Logger
}

// NewPriceSyncJob creates the daily price sync job.
func NewPriceSyncJob(historyDir string, client *yahoo.Client, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		historyDir: historyDir,
		client:     client,
		period:     "1y",
		log:        log.With().Str("job", "price_sync").Logger(),
	}
}

// Name implements Job.
func (j *PriceSyncJob) Name() string { return "price_sync" }

// Run implements Job. Symbol failures are logged and skipped so one delisted
// asset cannot stall the rest of the sync.
func (j *PriceSyncJob) Run() error {
	symbols, err := j.trackedSymbols()
	if err != nil {
		return err
	}

	synced := 0
	for _, symbol := range symbols {
		if err := j.syncSymbol(symbol); err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Price sync failed for symbol")
			continue
		}
		synced++

		// Be polite to the upstream API.
		time.Sleep(2 * time.Second)
	}

	j.log.Info().Int("symbols", len(symbols)).Int("synced", synced).Msg("Price sync finished")
	return nil
}

// trackedSymbols lists the symbols with an existing history database.
func (j *PriceSyncJob) trackedSymbols() ([]string, error) {
	entries, err := os.ReadDir(j.historyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, historyDBSuffix) {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, historyDBSuffix))
	}

	return symbols, nil
}

func (j *PriceSyncJob) syncSymbol(symbol string) error {
	bars, err := j.client.GetHistoricalPrices(symbol, j.period)
	if err != nil {
		return err
	}

	observations := make([]pricing.Observation, 0, len(bars))
	for _, bar := range bars {
		if bar.Close <= 0 {
			continue
		}
		observations = append(observations, pricing.Observation{
			Date:  bar.Date,
			Close: bar.Close,
		})
	}

	repo := pricing.NewHistoryRepository(symbol, j.historyDir, j.log)
	defer repo.Close()

	return repo.UpsertDailyCloses(observations, "yahoo")
}
