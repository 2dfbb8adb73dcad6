package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/features"
	"github.com/SvenST89/osint-mcp-experiment/pkg/overpass"
)

func restHandler(t *testing.T, endpoints ...string) *Handler {
	t.Helper()
	client := overpass.NewClient(overpass.Options{
		Endpoints: endpoints,
		RPS:       1000,
		Burst:     100,
		Timeout:   5 * time.Second,
		Retry:     core.RetryOptions{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
	})
	return NewHandler(nil, client)
}

func TestRESTHealth(t *testing.T) {
	h := restHandler(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestRESTNotFound(t *testing.T) {
	h := restHandler(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRESTQueryRegionMethodNotAllowed(t *testing.T) {
	h := restHandler(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query_region", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %s, want POST", allow)
	}
}

func TestRESTQueryRegionInvalidParameters(t *testing.T) {
	h := restHandler(t, "http://127.0.0.1:1")

	body := `{"tags": {"amenity": "hospital"}, "area_name": "Berlin", "bbox": [52.3, 13.0, 52.7, 13.8]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query_region", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	if payload["error"] == "" {
		t.Error("error message missing from body")
	}
}

func TestRESTQueryRegionMalformedBody(t *testing.T) {
	h := restHandler(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query_region", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRESTQueryRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, "2 slots available now")
			return
		}
		fmt.Fprint(w, `{"elements": [
			{"type": "node", "id": 11, "lat": 50.94, "lon": 6.96, "tags": {"amenity": "hospital", "name": "St. Marien"}}
		]}`)
	}))
	defer srv.Close()

	h := restHandler(t, srv.URL)

	body := `{"tags": {"amenity": "hospital"}, "area_name": "Köln", "element_types": ["node"]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query_region", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result features.RegionResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if result.Count != 1 {
		t.Errorf("count = %d, want 1", result.Count)
	}
	if len(result.Features) != 1 || result.Features[0].Tags["name"] != "St. Marien" {
		t.Errorf("features = %+v", result.Features)
	}
}
