package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SvenST89/osint-mcp-experiment/pkg/config"
	"github.com/SvenST89/osint-mcp-experiment/pkg/monitoring"
	"github.com/SvenST89/osint-mcp-experiment/pkg/overpass"
	"github.com/SvenST89/osint-mcp-experiment/pkg/server"
	"github.com/SvenST89/osint-mcp-experiment/pkg/tracing"
	ver "github.com/SvenST89/osint-mcp-experiment/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	userAgent       string
	endpointList    string

	// REST transport flags
	enableREST bool
	restAddr   string

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string

	// Upstream limits
	overpassRPS    float64
	overpassBurst  int
	maxConcurrent  int
	requestTimeout time.Duration
	retryAttempts  int
)

func main() {
	cfg := config.Load()

	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&userAgent, "user-agent", cfg.UserAgent, "User-Agent string for Overpass API requests")
	flag.StringVar(&endpointList, "endpoints", strings.Join(cfg.Endpoints, ","), "Comma-separated Overpass endpoint URLs in preference order")

	// REST transport flags
	flag.BoolVar(&enableREST, "enable-rest", false, "Enable the REST transport (in addition to stdio)")
	flag.StringVar(&restAddr, "rest-addr", ":7082", "REST server address")

	// Monitoring flags
	flag.BoolVar(&enableMonitoring, "enable-monitoring", true, "Enable Prometheus metrics and health endpoints")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")

	// Overpass limits
	flag.Float64Var(&overpassRPS, "overpass-rps", cfg.RPS, "Overpass rate limit in requests per second")
	flag.IntVar(&overpassBurst, "overpass-burst", cfg.Burst, "Overpass rate limit burst size")
	flag.IntVar(&maxConcurrent, "max-concurrent", cfg.MaxConcurrent, "Maximum simultaneously in-flight subqueries per batch")
	flag.DurationVar(&requestTimeout, "request-timeout", cfg.Timeout, "Per-request upstream timeout")
	flag.IntVar(&retryAttempts, "retry-attempts", cfg.Retry.MaxAttempts, "Retry attempts per endpoint before failover")

	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Show version and exit if requested
	if showVersionFlag {
		fmt.Println(ver.String())
		return
	}

	// Initialize OpenTelemetry tracing
	ctx := context.Background()
	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()

		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	retry := cfg.Retry
	retry.MaxAttempts = retryAttempts

	var endpoints []string
	for _, e := range strings.Split(endpointList, ",") {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}

	client := overpass.NewClient(overpass.Options{
		Endpoints:     endpoints,
		RPS:           overpassRPS,
		Burst:         overpassBurst,
		UserAgent:     userAgent,
		Timeout:       requestTimeout,
		Retry:         retry,
		MaxConcurrent: maxConcurrent,
		Logger:        logger,
	})

	logger.Info("starting Overpass MCP server",
		"version", ver.BuildVersion,
		"log_level", logLevel.String(),
		"user_agent", userAgent,
		"overpass_rps", overpassRPS,
		"overpass_burst", overpassBurst,
		"max_concurrent", maxConcurrent,
		"rest_enabled", enableREST,
		"monitoring_enabled", enableMonitoring,
		"monitoring_addr", monitoringAddr)

	// Create a new server instance
	s, err := server.NewServer(logger, client)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start monitoring server if enabled (Prometheus metrics + health)
	if enableMonitoring {
		healthChecker := monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", healthChecker.HealthHandler())
		mux.HandleFunc("/ready", healthChecker.ReadyHandler())

		monitoringServer := &http.Server{
			Addr:              monitoringAddr,
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second, // Prevent Slowloris attacks
		}

		go func() {
			logger.Info("starting monitoring server", "addr", monitoringAddr)
			if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitoring server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown monitoring server", "error", err)
			}
		}()

		// Track upstream endpoint liveness in the health document
		go watchEndpointHealth(ctx, client, healthChecker)
	}

	// Start the REST transport in the background if enabled
	if enableREST {
		restServer := &http.Server{
			Addr:              restAddr,
			Handler:           server.NewHandler(logger, client),
			ReadHeaderTimeout: 30 * time.Second,
		}

		go func() {
			logger.Info("starting REST server", "addr", restAddr)
			if err := restServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("REST server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := restServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown REST server", "error", err)
			}
		}()
	}

	// Run stdio MCP transport on the main thread (blocking)
	logger.Info("transport_enabled", "type", "stdio", "mode", "blocking")
	if err := s.RunWithContext(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// watchEndpointHealth periodically refreshes endpoint liveness and mirrors it
// into the health document.
func watchEndpointHealth(ctx context.Context, client *overpass.Client, hc *monitoring.HealthChecker) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		client.Pool().Refresh(ctx)
		for _, ep := range client.Pool().Endpoints() {
			status := "unknown"
			switch ep.Liveness() {
			case overpass.LivenessAvailable:
				status = "healthy"
			case overpass.LivenessUnavailable:
				status = "unavailable"
			}
			hc.UpdateConnection(ep.URL, status, 0, nil)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
