// Package core provides shared utilities for the Overpass MCP tools.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorCode defines standard error codes for MCP tools
type ErrorCode string

// Standard error codes
const (
	// Caller contract violations - never retried, surfaced immediately
	ErrInvalidParameters ErrorCode = "INVALID_PARAMETERS"

	// Subquery-local failures - recorded per subquery, never abort a batch
	ErrUpstreamExhausted       ErrorCode = "UPSTREAM_EXHAUSTED"
	ErrParseError              ErrorCode = "PARSE_ERROR"
	ErrGeometryUnrepresentable ErrorCode = "GEOMETRY_UNREPRESENTABLE"

	// Service errors
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrNetworkError       ErrorCode = "NETWORK_ERROR"

	// Data errors
	ErrNoResults     ErrorCode = "NO_RESULTS"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// ToolError represents a detailed error structure for MCP tool responses
type ToolError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Query       string   `json:"query,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Guidance    string   `json:"guidance,omitempty"`
}

// Error implements the error interface
func (e ToolError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new ToolError with the given code and message
func NewError(code ErrorCode, message string) *ToolError {
	return &ToolError{
		Code:    string(code),
		Message: message,
	}
}

// WithQuery adds the offending query string to the error
func (e *ToolError) WithQuery(query string) *ToolError {
	e.Query = query
	return e
}

// WithGuidance adds guidance information to the error
func (e *ToolError) WithGuidance(guidance string) *ToolError {
	e.Guidance = guidance
	return e
}

// WithSuggestions adds suggestions to the error
func (e *ToolError) WithSuggestions(suggestions ...string) *ToolError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// ToMCPResult converts the error to an MCP tool result
func (e *ToolError) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		// Fallback if marshaling fails
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}

	return mcp.NewToolResultError(string(errorJSON))
}

// ServiceError creates an error for external service failures
func ServiceError(service string, statusCode int, message string) *ToolError {
	var code ErrorCode
	var guidance string

	switch statusCode {
	case http.StatusTooManyRequests:
		code = ErrRateLimit
		guidance = "The service is rate-limited. Please try again in a few moments."
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = ErrServiceTimeout
		guidance = "The request timed out. Try reducing the search area or simplifying the query."
	case http.StatusBadRequest:
		code = ErrInvalidParameters
		guidance = "The request was invalid. Check your parameters and try again."
	case http.StatusInternalServerError:
		code = ErrInternalError
		guidance = "The server encountered an error. This is likely temporary, please try again later."
	case http.StatusServiceUnavailable:
		code = ErrServiceUnavailable
		guidance = "The service is temporarily unavailable. Please try again later."
	default:
		code = ErrServiceUnavailable
		guidance = "Please try again later or modify your request parameters."
	}

	return NewError(code, fmt.Sprintf("%s service error: %s", service, message)).
		WithGuidance(guidance)
}

// NewValidationError creates an error for parameter validation failures
func NewValidationError(message string) *ToolError {
	return NewError(ErrInvalidParameters, message).
		WithGuidance("Please correct the parameters and try again.")
}

// CodeOf returns the error code carried by err, or ErrInternalError when err
// is not a ToolError.
func CodeOf(err error) ErrorCode {
	var te *ToolError
	if errors.As(err, &te) {
		return ErrorCode(te.Code)
	}
	return ErrInternalError
}
