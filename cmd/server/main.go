package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/backtester/internal/clients/yahoo"
	"github.com/aristath/backtester/internal/config"
	"github.com/aristath/backtester/internal/database"
	"github.com/aristath/backtester/internal/modules/backtest"
	"github.com/aristath/backtester/internal/scheduler"
	"github.com/aristath/backtester/internal/server"
	"github.com/aristath/backtester/pkg/logger"
)

func main() {
	// Load configuration first so the logger picks up level and mode
	cfg, err := config.Load()
	if err != nil {
		// No logger yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting portfolio backtester")

	// results.db - completed backtest runs
	resultsDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/results.db",
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize results database")
	}
	defer resultsDB.Close()

	if err := resultsDB.Migrate(backtest.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate results database")
	}

	// Background jobs
	sched := scheduler.New(log)

	yahooClient := yahoo.NewClient(log)
	priceSyncJob := scheduler.NewPriceSyncJob(cfg.HistoryDir, yahooClient, log)
	walCheckpointJob := scheduler.NewWALCheckpointJob(resultsDB, cfg.HistoryDir, log)

	if cfg.PriceSyncEnabled {
		if err := sched.AddJob(cfg.PriceSyncSchedule, priceSyncJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register price sync job")
		}
	}
	if err := sched.AddJob("@every 6h", walCheckpointJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:       log,
		ResultsDB: resultsDB,
		Config:    cfg,
		Scheduler: sched,
	})
	srv.SetJobs(priceSyncJob, walCheckpointJob)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Portfolio backtester stopped")
}
