package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/backtester/internal/domain"
	"github.com/aristath/backtester/internal/modules/attribution"
	"github.com/aristath/backtester/internal/modules/calendar"
	"github.com/aristath/backtester/internal/modules/metrics"
	"github.com/aristath/backtester/internal/modules/pricing"
	"github.com/aristath/backtester/internal/modules/simulation"
)

// smoothingPeriod is the EMA window applied to the equity curve for charting.
const smoothingPeriod = 3

// ErrInvalidDateRange is returned for unparseable or inverted date ranges.
var ErrInvalidDateRange = errors.New("invalid backtest date range")

// Service orchestrates a backtest run end to end: checkpoint resolution,
// price prefetch, simulation, metrics, attribution and persistence.
type Service struct {
	provider     pricing.Provider
	repo         *Repository
	riskFreeRate float64
	log          zerolog.Logger
}

// NewService creates a backtest service. repo may be nil, in which case
// results are returned but not persisted.
func NewService(provider pricing.Provider, repo *Repository, riskFreeRate float64, log zerolog.Logger) *Service {
	return &Service{
		provider:     provider,
		repo:         repo,
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("service", "backtest").Logger(),
	}
}

// Run executes a backtest request and stores the result.
func (s *Service) Run(req Request) (*Result, error) {
	started := time.Now()

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	freq, err := calendar.ParseFrequency(req.RebalancePeriod)
	if err != nil {
		return nil, err
	}

	checkpoints, err := calendar.ResolveCheckpoints(start, end, freq)
	if err != nil {
		return nil, err
	}

	assetIDs := make([]string, 0, len(req.Allocations))
	for _, t := range req.Allocations {
		assetIDs = append(assetIDs, t.AssetID)
	}

	series, err := pricing.Prefetch(s.provider, assetIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("price prefetch failed: %w", err)
	}

	engine, err := simulation.New(simulation.Config{
		Targets:           req.Allocations,
		Checkpoints:       checkpoints,
		InitialInvestment: domain.MoneyFromFloat(req.InitialInvestment),
		Contribution:      domain.MoneyFromFloat(req.MonthlyContribution),
		Series:            series,
		Log:               s.log,
	})
	if err != nil {
		return nil, err
	}

	out, err := engine.Run()
	if err != nil {
		return nil, err
	}

	riskFree := s.riskFreeRate
	if req.RiskFreeRate != nil {
		riskFree = *req.RiskFreeRate
	}

	metricsResult, err := metrics.Calculate(out.Snapshots, riskFree)
	if err != nil {
		return nil, err
	}

	report, err := attribution.Build(out)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		Request:        req,
		Snapshots:      out.Snapshots,
		Events:         out.Events,
		Warnings:       out.Warnings,
		Metrics:        metricsResult,
		Attribution:    report,
		SmoothedEquity: metrics.SmoothedEquityCurve(out.Snapshots, smoothingPeriod),
	}

	if s.repo != nil {
		if err := s.repo.Save(result); err != nil {
			return nil, fmt.Errorf("failed to persist backtest result: %w", err)
		}
	}

	s.log.Info().
		Str("id", result.ID).
		Int("checkpoints", len(checkpoints)).
		Int("warnings", len(out.Warnings)).
		Dur("duration_ms", time.Since(started)).
		Msg("Backtest completed")

	return result, nil
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(pricing.DateFormat, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad start date %q", ErrInvalidDateRange, startStr)
	}

	end, err := time.Parse(pricing.DateFormat, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad end date %q", ErrInvalidDateRange, endStr)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s not before end %s", ErrInvalidDateRange, startStr, endStr)
	}

	return start, end, nil
}
