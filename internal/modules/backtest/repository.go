package backtest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrResultNotFound is returned when no stored result matches the given ID.
var ErrResultNotFound = errors.New("backtest result not found")

// Schema is the results-store DDL, applied at startup via database.Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS backtest_results (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	final_value REAL NOT NULL,
	total_return REAL NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_results_created_at ON backtest_results(created_at);
`

// Repository stores completed backtest results. The full result is kept as a
// JSON payload; a few columns are denormalized for cheap listing.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new backtest results repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "backtest").Logger(),
	}
}

// Save persists a completed result.
func (r *Repository) Save(result *Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result: %w", err)
	}

	finalValue := 0.0
	totalReturn := 0.0
	if result.Metrics != nil {
		finalValue = result.Metrics.FinalValue
		totalReturn = result.Metrics.TotalReturn
	}

	_, err = r.db.Exec(`
		INSERT INTO backtest_results (id, created_at, start_date, end_date, final_value, total_return, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		result.CreatedAt.Format(time.RFC3339),
		result.Request.StartDate,
		result.Request.EndDate,
		finalValue,
		totalReturn,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert backtest result %s: %w", result.ID, err)
	}

	r.log.Debug().Str("id", result.ID).Msg("Stored backtest result")
	return nil
}

// Get retrieves a stored result by ID.
func (r *Repository) Get(id string) (*Result, error) {
	var payload string
	err := r.db.QueryRow(`SELECT payload FROM backtest_results WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest result %s: %w", id, err)
	}

	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest result %s: %w", id, err)
	}

	return &result, nil
}

// List returns summaries of stored results, newest first.
func (r *Repository) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, start_date, end_date, final_value, total_return
		FROM backtest_results
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list backtest results: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		var createdAt string
		if err := rows.Scan(&s.ID, &createdAt, &s.StartDate, &s.EndDate, &s.FinalValue, &s.TotalReturn); err != nil {
			return nil, fmt.Errorf("failed to scan backtest summary: %w", err)
		}

		s.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q for result %s: %w", createdAt, s.ID, err)
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Delete removes a stored result.
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM backtest_results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete backtest result %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrResultNotFound
	}

	return nil
}
