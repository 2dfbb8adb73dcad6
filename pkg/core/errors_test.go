package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestToolErrorError(t *testing.T) {
	err := NewError(ErrInvalidParameters, "bbox and area_name are mutually exclusive")
	if got := err.Error(); got != "INVALID_PARAMETERS: bbox and area_name are mutually exclusive" {
		t.Errorf("Error() = %s", got)
	}

	err = err.WithGuidance("Provide exactly one spatial constraint.")
	if got := err.Error(); got != "INVALID_PARAMETERS: bbox and area_name are mutually exclusive. Provide exactly one spatial constraint." {
		t.Errorf("Error() with guidance = %s", got)
	}
}

func TestToMCPResult(t *testing.T) {
	err := NewError(ErrUpstreamExhausted, "all endpoints failed").
		WithQuery(`[out:json];(node[shop];);out geom;`).
		WithSuggestions("Try a smaller area")

	result := err.ToMCPResult()
	if result == nil || !result.IsError {
		t.Fatal("expected error result")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", result.Content[0])
	}

	var decoded ToolError
	if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
		t.Fatalf("error payload not JSON: %v", err)
	}
	if decoded.Code != string(ErrUpstreamExhausted) {
		t.Errorf("code = %s", decoded.Code)
	}
	if decoded.Query == "" || len(decoded.Suggestions) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusTooManyRequests, ErrRateLimit},
		{http.StatusGatewayTimeout, ErrServiceTimeout},
		{http.StatusBadRequest, ErrInvalidParameters},
		{http.StatusInternalServerError, ErrInternalError},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
		{http.StatusBadGateway, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ServiceError("Overpass", tt.status, "boom")
			if ErrorCode(err.Code) != tt.want {
				t.Errorf("status %d -> %s, want %s", tt.status, err.Code, tt.want)
			}
			if err.Guidance == "" {
				t.Error("guidance missing")
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewValidationError("bad")); got != ErrInvalidParameters {
		t.Errorf("CodeOf(validation) = %s", got)
	}

	wrapped := fmt.Errorf("running subquery: %w", NewError(ErrParseError, "malformed envelope"))
	if got := CodeOf(wrapped); got != ErrParseError {
		t.Errorf("CodeOf(wrapped) = %s", got)
	}

	if got := CodeOf(errors.New("plain")); got != ErrInternalError {
		t.Errorf("CodeOf(plain) = %s", got)
	}
}
