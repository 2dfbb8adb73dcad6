// Package config resolves runtime configuration from the environment,
// optionally seeded from a .env file. Flags in the entrypoint take these
// values as defaults so either mechanism works.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
)

// Config carries the environment-derived settings for the server.
type Config struct {
	// Endpoints is the ordered Overpass endpoint candidate list.
	Endpoints []string

	// UserAgent identifies this client to the upstream service.
	UserAgent string

	// RPS and Burst bound the upstream request rate.
	RPS   float64
	Burst int

	// MaxConcurrent caps simultaneously in-flight subqueries per batch.
	MaxConcurrent int

	// Timeout bounds each upstream request.
	Timeout time.Duration

	// Retry is the per-endpoint retry schedule.
	Retry core.RetryOptions
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{
		Endpoints:     envList("OVERPASS_ENDPOINTS", nil),
		UserAgent:     envString("OVERPASS_USER_AGENT", "osint-mcp-experiment/0.1.0"),
		RPS:           envFloat("OVERPASS_RPS", 1.0),
		Burst:         envInt("OVERPASS_BURST", 1),
		MaxConcurrent: envInt("OVERPASS_MAX_CONCURRENT", 4),
		Timeout:       envDuration("OVERPASS_TIMEOUT", 30*time.Second),
		Retry: core.RetryOptions{
			MaxAttempts:  envInt("OVERPASS_RETRY_ATTEMPTS", core.DefaultRetryOptions.MaxAttempts),
			InitialDelay: envDuration("OVERPASS_RETRY_INITIAL_DELAY", core.DefaultRetryOptions.InitialDelay),
			MaxDelay:     envDuration("OVERPASS_RETRY_MAX_DELAY", core.DefaultRetryOptions.MaxDelay),
			Multiplier:   core.DefaultRetryOptions.Multiplier,
		},
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
