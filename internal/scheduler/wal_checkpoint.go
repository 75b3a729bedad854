package scheduler

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/backtester/internal/database"
	"github.com/aristath/backtester/internal/modules/pricing"
)

// WALCheckpointJob truncates the WAL files of the results database and every
// per-symbol history database to keep disk usage bounded.
type WALCheckpointJob struct {
	resultsDB  *database.DB
	historyDir string
	log        zerolog.Logger
}

// NewWALCheckpointJob creates the periodic WAL maintenance job.
func NewWALCheckpointJob(resultsDB *database.DB, historyDir string, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		resultsDB:  resultsDB,
		historyDir: historyDir,
		log:        log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name implements Job.
func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

// Run implements Job.
func (j *WALCheckpointJob) Run() error {
	if err := j.resultsDB.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	entries, err := os.ReadDir(j.historyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, historyDBSuffix) {
			continue
		}

		symbol := strings.TrimSuffix(name, historyDBSuffix)
		repo := pricing.NewHistoryRepository(symbol, j.historyDir, j.log)
		if err := repo.WALCheckpoint(); err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("WAL checkpoint failed")
		}
		_ = repo.Close()
	}

	return nil
}
