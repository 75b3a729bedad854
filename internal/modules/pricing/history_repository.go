package pricing

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// HistoryRepository handles per-symbol historical price data.
// Database: history/{SYMBOL}.history.db
type HistoryRepository struct {
	symbol      string
	historyPath string // Base path for history databases
	db          *sql.DB
	log         zerolog.Logger
}

// NewHistoryRepository creates a new history repository for a symbol.
// historyPath is the directory where per-symbol .history.db files are stored.
func NewHistoryRepository(symbol, historyPath string, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		symbol:      strings.ToUpper(strings.TrimSpace(symbol)),
		historyPath: historyPath,
		log:         log.With().Str("repo", "history").Str("symbol", symbol).Logger(),
	}
}

// getDB lazily initializes the symbol's history database connection
func (r *HistoryRepository) getDB(create bool) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	dbPath := filepath.Join(r.historyPath, fmt.Sprintf("%s.history.db", r.symbol))

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		if !create {
			return nil, fmt.Errorf("history database does not exist for %s: %s", r.symbol, dbPath)
		}
		if err := os.MkdirAll(r.historyPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database for %s: %w", r.symbol, err)
	}

	if create {
		if _, err := db.Exec(schemaDailyPrices); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create daily_prices table for %s: %w", r.symbol, err)
		}
	}

	r.db = db
	return db, nil
}

const schemaDailyPrices = `
CREATE TABLE IF NOT EXISTS daily_prices (
	date TEXT PRIMARY KEY,
	close_price REAL NOT NULL,
	dividend REAL NOT NULL DEFAULT 0,
	source TEXT
)`

// Close closes the database connection
func (r *HistoryRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetDailyRange retrieves daily observations within a date range, oldest first.
// A missing database yields an empty list, not an error: an asset with no
// history is a sparsity condition the engine handles, not a failure.
func (r *HistoryRepository) GetDailyRange(start, end time.Time) ([]Observation, error) {
	db, err := r.getDB(false)
	if err != nil {
		r.log.Debug().Err(err).Msg("History database not found, returning empty price list")
		return []Observation{}, nil
	}

	query := `
		SELECT date, close_price, dividend
		FROM daily_prices
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := db.Query(query, start.Format(DateFormat), end.Format(DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var observations []Observation
	for rows.Next() {
		var dateStr string
		var obs Observation
		var dividend sql.NullFloat64

		if err := rows.Scan(&dateStr, &obs.Close, &dividend); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		obs.Date, err = time.Parse(DateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q in daily_prices for %s: %w", dateStr, r.symbol, err)
		}

		if dividend.Valid {
			obs.DividendPerShare = dividend.Float64
		}

		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return observations, nil
}

// UpsertDailyPrices writes a batch of observations, replacing rows that
// already exist for a date. Used by the price sync job.
func (r *HistoryRepository) UpsertDailyPrices(observations []Observation, source string) error {
	db, err := r.getDB(true)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (date, close_price, dividend, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			close_price = excluded.close_price,
			dividend = excluded.dividend,
			source = excluded.source
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		if _, err := stmt.Exec(obs.Date.Format(DateFormat), obs.Close, obs.DividendPerShare, source); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to upsert daily price for %s on %s: %w",
				r.symbol, obs.Date.Format(DateFormat), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	r.log.Debug().Int("rows", len(observations)).Msg("Upserted daily prices")
	return nil
}

// UpsertDailyCloses writes close prices only, leaving any previously stored
// dividend amounts untouched. Used by the price sync job, whose upstream feed
// carries no dividend data.
func (r *HistoryRepository) UpsertDailyCloses(observations []Observation, source string) error {
	db, err := r.getDB(true)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (date, close_price, dividend, source)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(date) DO UPDATE SET
			close_price = excluded.close_price,
			source = excluded.source
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		if _, err := stmt.Exec(obs.Date.Format(DateFormat), obs.Close, source); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to upsert close for %s on %s: %w",
				r.symbol, obs.Date.Format(DateFormat), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	r.log.Debug().Int("rows", len(observations)).Msg("Upserted daily closes")
	return nil
}

// WALCheckpoint forces a WAL checkpoint on the symbol's history database.
func (r *HistoryRepository) WALCheckpoint() error {
	db, err := r.getDB(false)
	if err != nil {
		return nil // nothing to checkpoint
	}
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint failed for %s: %w", r.symbol, err)
	}
	return nil
}

// SQLProvider implements Provider over a directory of per-symbol history
// databases. Each GetPriceHistory call opens and closes its own repository,
// so the provider is safe for the prefetcher's concurrent fan-out.
type SQLProvider struct {
	historyPath string
	log         zerolog.Logger
}

// NewSQLProvider creates a provider over the given history directory.
func NewSQLProvider(historyPath string, log zerolog.Logger) *SQLProvider {
	return &SQLProvider{
		historyPath: historyPath,
		log:         log.With().Str("provider", "history-sql").Logger(),
	}
}

// GetPriceHistory implements Provider.
func (p *SQLProvider) GetPriceHistory(assetID string, start, end time.Time) ([]Observation, error) {
	repo := NewHistoryRepository(assetID, p.historyPath, p.log)
	defer repo.Close()
	return repo.GetDailyRange(start, end)
}
