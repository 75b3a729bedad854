package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/backtester/internal/database"
	"github.com/aristath/backtester/internal/scheduler"
)

// SystemHandlers handles system monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	resultsDB *database.DB
	scheduler *scheduler.Scheduler

	// Jobs (set after job registration in main.go)
	priceSyncJob     scheduler.Job
	walCheckpointJob scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, resultsDB *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		dataDir:   dataDir,
		resultsDB: resultsDB,
		scheduler: sched,
	}
}

// SetJobs registers job references for manual triggering
func (h *SystemHandlers) SetJobs(priceSync, walCheckpoint scheduler.Job) {
	h.priceSyncJob = priceSync
	h.walCheckpointJob = walCheckpoint
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status         string  `json:"status"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	DiskPercent    float64 `json:"disk_percent"`
	DatabaseStatus string  `json:"database_status"`
	Timestamp      string  `json:"timestamp"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, memPercent := h.getSystemStats()

	diskPercent := 0.0
	if usage, err := disk.Usage(h.dataDir); err == nil {
		diskPercent = usage.UsedPercent
	} else {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
	}

	// Full integrity check here; the /health endpoint does the cheap ping.
	dbStatus := "ok"
	if err := h.resultsDB.HealthCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Results database health check failed")
		dbStatus = "error"
	}

	h.writeJSON(w, http.StatusOK, SystemStatusResponse{
		Status:         "healthy",
		CPUPercent:     cpuAvg,
		MemoryPercent:  memPercent,
		DiskPercent:    diskPercent,
		DatabaseStatus: dbStatus,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleTriggerPriceSync handles POST /api/system/jobs/price-sync
func (h *SystemHandlers) HandleTriggerPriceSync(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.priceSyncJob, "price sync")
}

// HandleTriggerWALCheckpoint handles POST /api/system/jobs/wal-checkpoint
func (h *SystemHandlers) HandleTriggerWALCheckpoint(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.walCheckpointJob, "WAL checkpoint")
}

func (h *SystemHandlers) triggerJob(w http.ResponseWriter, job scheduler.Job, label string) {
	if job == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": label + " job not registered",
		})
		return
	}

	h.log.Info().Str("job", job.Name()).Msg("Manual job trigger")

	if err := h.scheduler.RunNow(job); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "job": job.Name()})
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling interval to keep the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
