package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// ConnStatus describes the health of one upstream connection.
type ConnStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Latency int64  `json:"latency_ms"`
	Error   string `json:"error,omitempty"`
}

// ServiceHealth is the JSON document served on the health endpoint.
type ServiceHealth struct {
	Service     string                 `json:"service"`
	Version     string                 `json:"version"`
	Status      string                 `json:"status"`
	UptimeSecs  int64                  `json:"uptime_seconds"`
	Connections map[string]*ConnStatus `json:"connections,omitempty"`
}

// HealthChecker tracks upstream connection health for the service.
type HealthChecker struct {
	serviceName string
	version     string
	startTime   time.Time
	mu          sync.RWMutex
	connections map[string]*ConnStatus
}

// NewHealthChecker creates a new health checker instance
func NewHealthChecker(serviceName, version string) *HealthChecker {
	return &HealthChecker{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		connections: make(map[string]*ConnStatus),
	}
}

// UpdateConnection updates the status of a connection
func (h *HealthChecker) UpdateConnection(name, status string, latencyMs int64, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	errStr := ""
	if err != nil {
		errStr = err.Error()
	}

	h.connections[name] = &ConnStatus{
		Name:    name,
		Status:  status,
		Latency: latencyMs,
		Error:   errStr,
	}
}

// GetHealth returns the current health status
func (h *HealthChecker) GetHealth() ServiceHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// healthy -> degraded -> unhealthy depending on connection states
	status := "healthy"
	errorCount := 0
	degradedCount := 0
	for _, conn := range h.connections {
		switch conn.Status {
		case "error", "unavailable":
			errorCount++
		case "degraded":
			degradedCount++
		}
	}
	if errorCount == len(h.connections) && errorCount > 0 {
		status = "unhealthy"
	} else if errorCount > 0 || degradedCount > 0 {
		status = "degraded"
	}

	connections := make(map[string]*ConnStatus, len(h.connections))
	for name, conn := range h.connections {
		copied := *conn
		connections[name] = &copied
	}

	return ServiceHealth{
		Service:     h.serviceName,
		Version:     h.version,
		Status:      status,
		UptimeSecs:  int64(time.Since(h.startTime).Seconds()),
		Connections: connections,
	}
}

// HealthHandler serves the full health document.
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()

		code := http.StatusOK
		if health.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(health)
	}
}

// ReadyHandler reports process readiness.
func (h *HealthChecker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
