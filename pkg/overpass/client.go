package overpass

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
)

const (
	// DefaultUserAgent identifies this client to the Overpass servers
	DefaultUserAgent = "osint-mcp-experiment/0.1.0"

	// DefaultRequestTimeout bounds one upstream request
	DefaultRequestTimeout = 30 * time.Second

	// DefaultMaxConcurrent caps simultaneously in-flight subqueries
	DefaultMaxConcurrent = 4
)

// Options configures a Client.
type Options struct {
	// Endpoints lists interpreter URLs in preference order.
	// Empty means DefaultEndpoints.
	Endpoints []string

	// RPS and Burst configure the request rate limiter shared by all
	// subqueries. Zero RPS means 1 request per second with burst 1.
	RPS   float64
	Burst int

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// Timeout bounds each upstream request.
	Timeout time.Duration

	// Retry is the default retry schedule per endpoint.
	Retry core.RetryOptions

	// MaxConcurrent is the default batch concurrency cap.
	MaxConcurrent int

	// HTTPClient overrides the pooled default client.
	HTTPClient *http.Client

	// Logger may be nil, in which case logging is discarded.
	Logger *slog.Logger
}

// Client executes Overpass subqueries against a pool of candidate endpoints
// with rate limiting, retry and endpoint failover.
type Client struct {
	pool          *Pool
	http          *http.Client
	limiter       *rate.Limiter
	retry         core.RetryOptions
	timeout       time.Duration
	maxConcurrent int
	userAgent     string
	logger        *slog.Logger
}

// NewClient creates a client from the given options.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = core.DefaultClient
	}

	rps := opts.RPS
	if rps <= 0 {
		rps = 1
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	retry := opts.Retry
	if retry.MaxAttempts <= 0 {
		retry = core.DefaultRetryOptions
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		pool:          NewPool(opts.Endpoints, httpClient, logger),
		http:          httpClient,
		limiter:       rate.NewLimiter(rate.Limit(rps), burst),
		retry:         retry,
		timeout:       timeout,
		maxConcurrent: maxConcurrent,
		userAgent:     userAgent,
		logger:        logger,
	}
}

// Pool returns the endpoint pool.
func (c *Client) Pool() *Pool {
	return c.pool
}

// SetRateLimit replaces the request rate limiter.
func (c *Client) SetRateLimit(rps float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// retryFor returns the retry schedule for one subquery, preferring a
// caller-supplied override.
func (c *Client) retryFor(override core.RetryOptions) core.RetryOptions {
	if override.MaxAttempts > 0 {
		return override
	}
	return c.retry
}
