package pricing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PriceRow is the wire format for one daily observation.
type PriceRow struct {
	Date             string  `json:"date"` // YYYY-MM-DD
	Close            float64 `json:"close"`
	DividendPerShare float64 `json:"dividend_per_share,omitempty"`
}

// quoteRetries bounds upstream retries for the live quote endpoint.
const quoteRetries = 3

// QuoteSource fetches a live price for a symbol from an upstream feed.
type QuoteSource interface {
	GetCurrentPrice(symbol string, maxRetries int) (*float64, error)
}

// Handler handles price history HTTP requests
type Handler struct {
	historyDir string
	quotes     QuoteSource
	log        zerolog.Logger
}

// NewHandler creates a new price history handler
func NewHandler(historyDir string, quotes QuoteSource, log zerolog.Logger) *Handler {
	return &Handler{
		historyDir: historyDir,
		quotes:     quotes,
		log:        log.With().Str("handler", "pricing").Logger(),
	}
}

// HandleUpsertPrices handles PUT /api/prices/{symbol}. The body is a list of
// daily rows, including dividend amounts the automated sync cannot provide.
func (h *Handler) HandleUpsertPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var rows []PriceRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(rows) == 0 {
		h.writeError(w, http.StatusBadRequest, "No price rows provided")
		return
	}

	observations := make([]Observation, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(DateFormat, row.Date)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid date "+row.Date)
			return
		}
		if row.Close <= 0 && row.DividendPerShare <= 0 {
			h.writeError(w, http.StatusBadRequest, "Row for "+row.Date+" has neither close nor dividend")
			return
		}

		observations = append(observations, Observation{
			Date:             date,
			Close:            row.Close,
			DividendPerShare: row.DividendPerShare,
		})
	}

	repo := NewHistoryRepository(symbol, h.historyDir, h.log)
	defer repo.Close()

	if err := repo.UpsertDailyPrices(observations, "api"); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to store prices: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"rows":   len(observations),
	})
}

// HandleGetPrices handles GET /api/prices/{symbol}?start=...&end=...
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	start, end, err := parseRangeQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	repo := NewHistoryRepository(symbol, h.historyDir, h.log)
	defer repo.Close()

	observations, err := repo.GetDailyRange(start, end)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load prices: "+err.Error())
		return
	}

	rows := make([]PriceRow, 0, len(observations))
	for _, obs := range observations {
		rows = append(rows, PriceRow{
			Date:             obs.Date.Format(DateFormat),
			Close:            obs.Close,
			DividendPerShare: obs.DividendPerShare,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"prices": rows,
		"count":  len(rows),
	})
}

// HandleGetQuote handles GET /api/prices/{symbol}/quote. The quote comes
// from the upstream feed, not the history databases.
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	price, err := h.quotes.GetCurrentPrice(symbol, quoteRetries)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "Failed to fetch quote for "+symbol+": "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"price":  *price,
	})
}

func parseRangeQuery(r *http.Request) (time.Time, time.Time, error) {
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Now().UTC()

	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse(DateFormat, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", v)
		}
		start = parsed
	}
	if v := r.URL.Query().Get("end"); v != "" {
		parsed, err := time.Parse(DateFormat, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", v)
		}
		end = parsed
	}

	return start, end, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
