// Package server wires the HTTP API: backtest runs, stored results, price
// history management and system monitoring.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/backtester/internal/clients/yahoo"
	"github.com/aristath/backtester/internal/config"
	"github.com/aristath/backtester/internal/database"
	"github.com/aristath/backtester/internal/modules/backtest"
	"github.com/aristath/backtester/internal/modules/pricing"
	"github.com/aristath/backtester/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	ResultsDB *database.DB
	Config    *config.Config
	Scheduler *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	resultsDB      *database.DB
	cfg            *config.Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.ResultsDB, cfg.Scheduler)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		resultsDB:      cfg.ResultsDB,
		cfg:            cfg.Config,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers job instances for manual triggering via API
func (s *Server) SetJobs(priceSync, walCheckpoint scheduler.Job) {
	s.systemHandlers.SetJobs(priceSync, walCheckpoint)
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.setupSystemRoutes(r)
		s.setupBacktestRoutes(r)
		s.setupPricingRoutes(r)
	})
}

// setupSystemRoutes configures system monitoring and operations routes
func (s *Server) setupSystemRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", s.systemHandlers.HandleSystemStatus)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/price-sync", s.systemHandlers.HandleTriggerPriceSync)
			r.Post("/wal-checkpoint", s.systemHandlers.HandleTriggerWALCheckpoint)
		})
	})
}

// setupBacktestRoutes configures backtest module routes
func (s *Server) setupBacktestRoutes(r chi.Router) {
	repo := backtest.NewRepository(s.resultsDB.Conn(), s.log)
	provider := pricing.NewSQLProvider(s.cfg.HistoryDir, s.log)
	service := backtest.NewService(provider, repo, s.cfg.RiskFreeRate, s.log)
	handler := backtest.NewHandler(service, repo, s.log)

	r.Route("/backtests", func(r chi.Router) {
		r.Post("/", handler.HandleRunBacktest)
		r.Get("/", handler.HandleListResults)
		r.Get("/{id}", handler.HandleGetResult)
		r.Delete("/{id}", handler.HandleDeleteResult)
	})
}

// setupPricingRoutes configures price history routes
func (s *Server) setupPricingRoutes(r chi.Router) {
	handler := pricing.NewHandler(s.cfg.HistoryDir, yahoo.NewClient(s.log), s.log)

	r.Route("/prices", func(r chi.Router) {
		r.Put("/{symbol}", handler.HandleUpsertPrices)
		r.Get("/{symbol}", handler.HandleGetPrices)
		r.Get("/{symbol}/quote", handler.HandleGetQuote)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := s.resultsDB.QuickCheck(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("Results database ping failed")
		status = "degraded"
	}

	response := map[string]interface{}{
		"status":  status,
		"version": "1.0.0",
		"service": "backtester",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
