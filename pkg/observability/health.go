package observability

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	StatusHealthy = "healthy"
)

// HealthChecker provides health check endpoints for the gateway. The
// gateway has no hard runtime dependencies (the tenant registry is loaded
// at startup and the upstream API is per-request), so the probes report
// process liveness plus basic session store stats.
type HealthChecker struct {
	version      string
	startedAt    time.Time
	sessionCount func() int
}

// NewHealthChecker creates a new health checker. sessionCount may be nil.
func NewHealthChecker(version string, sessionCount func() int) *HealthChecker {
	return &HealthChecker{
		version:      version,
		startedAt:    time.Now(),
		sessionCount: sessionCount,
	}
}

// HealthStatus is the JSON body of the status probe
type HealthStatus struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version,omitempty"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	ActiveSessions int       `json:"active_sessions"`
}

// Liveness returns a simple liveness probe (always returns 200 if server is running)
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Status returns a detailed status probe
func (h *HealthChecker) Status(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        StatusHealthy,
		Timestamp:     time.Now(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.sessionCount != nil {
		status.ActiveSessions = h.sessionCount()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}
