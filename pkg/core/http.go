// Package core provides shared utilities for the Overpass MCP tools.
package core

import (
	"net/http"
	"time"
)

// RetryOptions configures retry behavior for HTTP requests.
// The schedule is configuration, not hard-coded behavior: callers may widen
// or shrink the budget per request.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions provides sensible defaults for retries
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// NextDelay returns the backoff delay following the given one, doubling by
// Multiplier and capped at MaxDelay.
func (o RetryOptions) NextDelay(delay time.Duration) time.Duration {
	next := time.Duration(float64(delay) * o.Multiplier)
	if next > o.MaxDelay {
		next = o.MaxDelay
	}
	return next
}

// DefaultClient provides a pre-configured HTTP client with secure defaults
var DefaultClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}
