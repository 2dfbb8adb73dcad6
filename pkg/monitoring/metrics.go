// Package monitoring provides Prometheus metrics and health reporting for
// the Overpass MCP server.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// ServiceName is the service label used in metrics
	ServiceName = "overpassmcp"
)

var (
	// MCP request metrics
	MCPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overpassmcp_mcp_requests_total",
			Help: "Total number of MCP requests processed",
		},
		[]string{"tool", "status"},
	)

	MCPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overpassmcp_mcp_request_duration_seconds",
			Help:    "MCP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"tool"},
	)

	// Upstream Overpass metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overpassmcp_upstream_requests_total",
			Help: "Total number of Overpass API requests",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overpassmcp_upstream_request_duration_seconds",
			Help:    "Overpass API request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"endpoint"},
	)

	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overpassmcp_upstream_retries_total",
			Help: "Total number of upstream request retries",
		},
		[]string{"endpoint"},
	)

	// Availability probe metrics
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overpassmcp_probes_total",
			Help: "Total number of endpoint availability probes",
		},
		[]string{"endpoint", "result"},
	)

	// Batch execution metrics
	BatchSubqueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overpassmcp_batch_subqueries_total",
			Help: "Total number of batch subqueries by outcome",
		},
		[]string{"status"},
	)

	// Feature assembly metrics
	FeaturesAssembledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overpassmcp_features_assembled_total",
			Help: "Total number of features assembled",
		},
	)

	GeometryOmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overpassmcp_geometry_omissions_total",
			Help: "Total number of elements dropped for unrepresentable geometry",
		},
	)

	RowsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overpassmcp_rows_skipped_total",
			Help: "Total number of malformed response rows skipped",
		},
	)
)

// RecordMCPRequest records an MCP tool invocation
func RecordMCPRequest(tool, status string, duration time.Duration) {
	MCPRequestsTotal.WithLabelValues(tool, status).Inc()
	MCPRequestDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one Overpass API request
func RecordUpstreamRequest(endpoint, status string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordUpstreamRetry records one upstream retry
func RecordUpstreamRetry(endpoint string) {
	UpstreamRetriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordProbe records an availability probe outcome
func RecordProbe(endpoint string, available bool) {
	result := "unavailable"
	if available {
		result = "available"
	}
	ProbesTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordBatchSubquery records one terminated batch subquery
func RecordBatchSubquery(status string) {
	BatchSubqueriesTotal.WithLabelValues(status).Inc()
}

// RecordAssembly records the outcome of one feature assembly pass
func RecordAssembly(features, omitted, skipped int) {
	FeaturesAssembledTotal.Add(float64(features))
	GeometryOmissionsTotal.Add(float64(omitted))
	RowsSkippedTotal.Add(float64(skipped))
}
