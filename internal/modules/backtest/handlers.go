package backtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/backtester/internal/modules/calendar"
	"github.com/aristath/backtester/internal/modules/simulation"
)

// Handler handles backtest HTTP requests
type Handler struct {
	service *Service
	repo    *Repository
	log     zerolog.Logger
}

// NewHandler creates a new backtest handler
func NewHandler(service *Service, repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "backtest").Logger(),
	}
}

// HandleRunBacktest handles POST /api/backtests
func (h *Handler) HandleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var request Request

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(request.Allocations) == 0 {
		h.writeError(w, http.StatusBadRequest, "No allocations provided")
		return
	}

	result, err := h.service.Run(request)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidDateRange),
			errors.Is(err, calendar.ErrInvalidPeriod),
			errors.Is(err, calendar.ErrInvalidFrequency),
			errors.Is(err, simulation.ErrAllocationSum),
			errors.Is(err, simulation.ErrNegativeContribution),
			errors.Is(err, simulation.ErrNoCheckpoints):
			status = http.StatusBadRequest
		case errors.Is(err, simulation.ErrNoPriceData):
			status = http.StatusUnprocessableEntity
		}

		h.writeError(w, status, "Backtest failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

// HandleGetResult handles GET /api/backtests/{id}
func (h *Handler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.repo.Get(id)
	if errors.Is(err, ErrResultNotFound) {
		h.writeError(w, http.StatusNotFound, "Backtest result not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load result: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleListResults handles GET /api/backtests
func (h *Handler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	summaries, err := h.repo.List(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list results: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": summaries,
		"count":   len(summaries),
	})
}

// HandleDeleteResult handles DELETE /api/backtests/{id}
func (h *Handler) HandleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.repo.Delete(id)
	if errors.Is(err, ErrResultNotFound) {
		h.writeError(w, http.StatusNotFound, "Backtest result not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to delete result: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
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
