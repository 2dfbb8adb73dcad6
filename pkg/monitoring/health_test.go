package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")

	if hc.serviceName != "test-service" {
		t.Errorf("Expected service name 'test-service', got %s", hc.serviceName)
	}
	if hc.version != "1.0.0" {
		t.Errorf("Expected version '1.0.0', got %s", hc.version)
	}
	if hc.connections == nil {
		t.Error("Connections map should be initialized")
	}
}

func TestUpdateConnection(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")

	hc.UpdateConnection("overpass-api.de", "healthy", 120, nil)

	health := hc.GetHealth()
	conn, exists := health.Connections["overpass-api.de"]
	if !exists {
		t.Fatal("Connection should exist")
	}
	if conn.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", conn.Status)
	}
	if conn.Latency != 120 {
		t.Errorf("Expected latency 120, got %d", conn.Latency)
	}
	if conn.Error != "" {
		t.Errorf("Expected no error, got %s", conn.Error)
	}

	hc.UpdateConnection("overpass-api.de", "unavailable", 0, errors.New("connection refused"))
	conn = hc.GetHealth().Connections["overpass-api.de"]
	if conn.Status != "unavailable" || conn.Error != "connection refused" {
		t.Errorf("Update not applied: %+v", conn)
	}
}

func TestGetHealthStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]string
		want     string
	}{
		{
			name:     "no connections",
			statuses: map[string]string{},
			want:     "healthy",
		},
		{
			name:     "all healthy",
			statuses: map[string]string{"a": "healthy", "b": "healthy"},
			want:     "healthy",
		},
		{
			name:     "one unavailable",
			statuses: map[string]string{"a": "healthy", "b": "unavailable"},
			want:     "degraded",
		},
		{
			name:     "all unavailable",
			statuses: map[string]string{"a": "unavailable", "b": "error"},
			want:     "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker("test-service", "1.0.0")
			for name, status := range tt.statuses {
				hc.UpdateConnection(name, status, 0, nil)
			}
			if got := hc.GetHealth().Status; got != tt.want {
				t.Errorf("Status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	hc.UpdateConnection("upstream", "healthy", 50, nil)

	rec := httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var health ServiceHealth
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if health.Service != "test-service" || health.Status != "healthy" {
		t.Errorf("health = %+v", health)
	}
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	hc.UpdateConnection("upstream", "error", 0, errors.New("down"))

	rec := httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")

	rec := httptest.NewRecorder()
	hc.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
