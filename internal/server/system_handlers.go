package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/rebalancer/internal/di"
	"github.com/aristath/rebalancer/internal/scheduler"
)

// SystemHandlers handles system monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	container *di.Container
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, container *di.Container, jobs *di.JobInstances) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		container: container,
		jobs:      make(map[string]scheduler.Job),
		startedAt: time.Now(),
	}
	if jobs != nil {
		for _, job := range []scheduler.Job{jobs.RankingCycle, jobs.CheckDatabase} {
			if job != nil {
				h.jobs[job.Name()] = job
			}
		}
	}
	return h
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Portfolios    int     `json:"portfolios"`
	Timestamp     string  `json:"timestamp"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	portfolios, err := h.container.PortfolioRepo.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count portfolios")
		http.Error(w, "Failed to read portfolios", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Portfolios:    len(portfolios),
		Timestamp:     time.Now().Format(time.RFC3339),
	}, h.log)
}

// HandleDatabaseStats handles GET /api/system/database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.container.LedgerDB.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read database stats")
		http.Error(w, "Failed to read database stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":  h.container.LedgerDB.Name(),
		"path":  h.container.LedgerDB.Path(),
		"stats": stats,
	}, h.log)
}

// HandleRunJob handles POST /api/system/jobs/{job}
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "job")
	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Running job on request")
	if err := job.Run(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"job":    name,
			"status": "failed",
			"error":  err.Error(),
		}, h.log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":    name,
		"status": "completed",
	}, h.log)
}

// getSystemStats returns CPU and RAM usage percentages. CPU is sampled
// over 100ms to keep the call fast.
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

func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
