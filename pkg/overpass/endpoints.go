package overpass

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/SvenST89/osint-mcp-experiment/pkg/monitoring"
)

// Liveness is the best-effort availability state of an endpoint candidate.
// It is a hint, not a guarantee: a stale value costs at most one avoidable
// attempt because the executor retries on failure regardless.
type Liveness int32

const (
	LivenessUnknown Liveness = iota
	LivenessAvailable
	LivenessUnavailable
)

// String returns the liveness name
func (l Liveness) String() string {
	switch l {
	case LivenessAvailable:
		return "available"
	case LivenessUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// DefaultEndpoints lists public Overpass API mirrors in preference order.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass.osm.ch/api/interpreter",
}

const (
	// probeTimeout bounds a single availability probe
	probeTimeout = 5 * time.Second

	// probeCacheTTL is how long a probe outcome is trusted
	probeCacheTTL = 30 * time.Second

	// probeCacheSize bounds the probe-outcome cache
	probeCacheSize = 16
)

// Endpoint is one upstream candidate URL with its liveness state.
// Liveness is not persisted across process restarts.
type Endpoint struct {
	URL      string
	liveness atomic.Int32
}

// Liveness returns the current liveness hint.
func (e *Endpoint) Liveness() Liveness {
	return Liveness(e.liveness.Load())
}

// SetLiveness updates the liveness hint.
func (e *Endpoint) SetLiveness(l Liveness) {
	e.liveness.Store(int32(l))
}

// StatusURL derives the Overpass status page URL from the interpreter URL.
func (e *Endpoint) StatusURL() string {
	if strings.HasSuffix(e.URL, "/interpreter") {
		return strings.TrimSuffix(e.URL, "/interpreter") + "/status"
	}
	return e.URL + "/status"
}

// Pool holds the ordered endpoint candidates and probes their availability.
type Pool struct {
	endpoints []*Endpoint
	client    *http.Client
	cache     *expirable.LRU[string, bool]
	logger    *slog.Logger
}

// NewPool creates a pool for the given interpreter URLs in preference order.
// An empty list falls back to DefaultEndpoints.
func NewPool(urls []string, client *http.Client, logger *slog.Logger) *Pool {
	if len(urls) == 0 {
		urls = DefaultEndpoints
	}
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	eps := make([]*Endpoint, len(urls))
	for i, u := range urls {
		eps[i] = &Endpoint{URL: u}
	}
	return &Pool{
		endpoints: eps,
		client:    client,
		cache:     expirable.NewLRU[string, bool](probeCacheSize, nil, probeCacheTTL),
		logger:    logger,
	}
}

// Probe checks whether the endpoint currently advertises a free slot on its
// status page. It never returns an error: any network failure or non-success
// status maps to unavailable. Outcomes are cached briefly.
func (p *Pool) Probe(ctx context.Context, ep *Endpoint) bool {
	if available, ok := p.cache.Get(ep.URL); ok {
		return available
	}

	available := p.probe(ctx, ep)
	p.cache.Add(ep.URL, available)
	monitoring.RecordProbe(ep.URL, available)

	if available {
		ep.SetLiveness(LivenessAvailable)
	} else {
		ep.SetLiveness(LivenessUnavailable)
	}
	return available
}

func (p *Pool) probe(ctx context.Context, ep *Endpoint) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.StatusURL(), nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("availability probe failed", "endpoint", ep.URL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug("availability probe returned error status", "endpoint", ep.URL, "status", resp.StatusCode)
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return false
	}

	return hasFreeSlot(string(body))
}

// hasFreeSlot scans the Overpass status page text for a free-slot marker.
// A busy endpoint reports "Slot available after: <time>", so only the
// "available now" phrasing counts.
func hasFreeSlot(status string) bool {
	return strings.Contains(strings.ToLower(status), "available now")
}

// Refresh probes every candidate concurrently. It is called before each
// batch so the executor starts with fresh liveness hints.
func (p *Pool) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	for _, ep := range p.endpoints {
		wg.Add(1)
		go func(ep *Endpoint) {
			defer wg.Done()
			p.Probe(ctx, ep)
		}(ep)
	}
	wg.Wait()
}

// Candidates returns the endpoints ordered for delivery attempts: candidates
// hinted available or unknown first, unavailable ones last, each group in
// configured preference order. Unavailable endpoints are kept because the
// hint may be stale.
func (p *Pool) Candidates() []*Endpoint {
	out := make([]*Endpoint, 0, len(p.endpoints))
	for _, ep := range p.endpoints {
		if ep.Liveness() != LivenessUnavailable {
			out = append(out, ep)
		}
	}
	for _, ep := range p.endpoints {
		if ep.Liveness() == LivenessUnavailable {
			out = append(out, ep)
		}
	}
	return out
}

// Endpoints returns the configured candidates in preference order.
func (p *Pool) Endpoints() []*Endpoint {
	return p.endpoints
}
