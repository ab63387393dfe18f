package http

import (
	"net/http"
	"runtime"
	"time"
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
	System    SystemInfo             `json:"system"`
}

// CheckResult represents an individual health check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemInfo contains system resource information
type SystemInfo struct {
	GoRoutines int    `json:"goroutines"`
	MemoryMB   uint64 `json:"memory_mb"`
	CPUCount   int    `json:"cpu_count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Version:   "1.0.0",
		Checks:    make(map[string]CheckResult),
	}

	if _, ok := s.sttManager.GetDefaultProvider(); ok {
		health.Checks["stt"] = CheckResult{
			Status:  "healthy",
			Message: "Default speech-to-text provider registered",
		}
	} else {
		health.Checks["stt"] = CheckResult{
			Status:  "unhealthy",
			Message: "Default speech-to-text provider not available",
		}
		health.Status = "unhealthy"
	}

	if s.config.Feedback.Enabled {
		health.Checks["feedback"] = CheckResult{
			Status:  "healthy",
			Message: "Feedback generation configured",
		}
	} else {
		// The deterministic fallback keeps evaluations working, so a
		// disabled generator degrades rather than fails the service.
		health.Checks["feedback"] = CheckResult{
			Status:  "degraded",
			Message: "Feedback generation disabled, serving fallback text",
		}
	}

	if s.publisher != nil {
		if s.publisher.IsConnected() {
			health.Checks["amqp"] = CheckResult{Status: "healthy"}
		} else {
			health.Checks["amqp"] = CheckResult{
				Status:  "degraded",
				Message: "AMQP publisher not connected",
			}
		}
	} else {
		health.Checks["amqp"] = CheckResult{
			Status:  "disabled",
			Message: "AMQP publishing not configured",
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	health.System = SystemInfo{
		GoRoutines: runtime.NumGoroutine(),
		MemoryMB:   mem.Alloc / 1024 / 1024,
		CPUCount:   runtime.NumCPU(),
	}

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}
