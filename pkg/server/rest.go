package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/features"
	"github.com/SvenST89/osint-mcp-experiment/pkg/overpass"
)

// Handler serves the REST surface for non-MCP callers.
type Handler struct {
	logger *slog.Logger
	client *overpass.Client
}

// NewHandler creates a new REST handler around an Overpass client.
func NewHandler(logger *slog.Logger, client *overpass.Client) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		logger: logger,
		client: client,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := r.URL.Path
	method := r.Method

	// Add request ID to context
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = generateRequestID()
	}

	// Log request
	h.logger.Info("request started",
		"request_id", reqID,
		"method", method,
		"path", path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent())

	// Handle request
	var status int
	var err error

	switch {
	case path == "/health":
		status, err = h.handleHealth(w, r)
	case path == "/query_region":
		status, err = h.handleQueryRegion(w, r)
	default:
		status = http.StatusNotFound
		http.NotFound(w, r)
	}

	// Log response
	duration := time.Since(start)
	if err != nil {
		h.logger.Error("request failed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration,
			"error", err)
	} else {
		h.logger.Info("request completed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration)
	}
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		h.logger.Error("failed to write health response", "error", err)
		return http.StatusOK, err // Status already written, but return error for logging
	}

	return http.StatusOK, nil
}

// handleQueryRegion handles region query requests. The body is a JSON
// QueryParameters document; the response is the sanitized RegionResult.
func (h *Handler) handleQueryRegion(w http.ResponseWriter, r *http.Request) (int, error) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		return writeError(w, http.StatusMethodNotAllowed, "POST required")
	}

	var params overpass.QueryParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		status, werr := writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		if werr != nil {
			return status, werr
		}
		return status, nil
	}

	result, err := features.QueryRegion(r.Context(), h.client, params, h.logger)
	if err != nil {
		status := http.StatusBadGateway
		if core.CodeOf(err) == core.ErrInvalidParameters {
			status = http.StatusBadRequest
		}
		var toolErr *core.ToolError
		msg := err.Error()
		if errors.As(err, &toolErr) {
			msg = toolErr.Message
		}
		if s, werr := writeError(w, status, msg); werr != nil {
			return s, werr
		}
		return status, nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to write query response", "error", err)
		return http.StatusOK, err
	}

	return http.StatusOK, nil
}

func writeError(w http.ResponseWriter, status int, message string) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]string{"error": message})
	return status, err
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return time.Now().Format("20060102150405.000000000")
}
