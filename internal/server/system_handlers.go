package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is the host snapshot returned by /api/system/stats. Dashboards
// use it to correlate benchmark timings with machine load.
type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumCPU        int     `json:"num_cpu"`
	NumGoroutine  int     `json:"num_goroutine"`
}

// handleSystemStats handles GET /api/system/stats
func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.getSystemStats())
}

// getSystemStats samples CPU and RAM usage.
// Uses a short interval (100ms) so the call responds quickly while still
// providing a usable CPU reading.
func (s *Server) getSystemStats() SystemStats {
	stats := SystemStats{
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	// Average across all CPUs over 100ms
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}
	if len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	// Memory statistics (instant, no blocking)
	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return stats
	}

	stats.MemoryPercent = memStat.UsedPercent
	stats.MemoryUsedMB = float64(memStat.Used) / 1024 / 1024
	stats.MemoryTotalMB = float64(memStat.Total) / 1024 / 1024

	return stats
}
