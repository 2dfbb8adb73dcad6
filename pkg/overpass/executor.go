package overpass

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/monitoring"
	"github.com/SvenST89/osint-mcp-experiment/pkg/tracing"
)

// Execute delivers one subquery: it sends the query to the current endpoint
// candidate, retries with exponential backoff on transport errors, upstream
// 5xx and malformed responses, fails over to the next candidate once the
// per-endpoint attempt budget is exhausted, and parses the response into raw
// elements. It fails with UPSTREAM_EXHAUSTED only after every candidate has
// been exhausted.
func (c *Client) Execute(ctx context.Context, sub Subquery) (*SubqueryResult, error) {
	return c.execute(ctx, sub, c.retry, c.timeout)
}

func (c *Client) execute(ctx context.Context, sub Subquery, retry core.RetryOptions, timeout time.Duration) (*SubqueryResult, error) {
	ctx, span := tracing.StartSpan(ctx, "overpass.execute",
		trace.WithAttributes(
			attribute.String(tracing.AttrElementKind, string(sub.Kind)),
			attribute.String(tracing.AttrOutputEncoding, sub.Output),
		),
	)
	defer span.End()

	logger := c.logger.With("kind", sub.Kind, "output", sub.Output)

	var lastErr error
	var delays []time.Duration

	for _, ep := range c.pool.Candidates() {
		delay := retry.InitialDelay

		for attempt := 0; attempt < retry.MaxAttempts; attempt++ {
			if attempt > 0 {
				tracing.AddEvent(ctx, "retry_attempt",
					trace.WithAttributes(
						attribute.Int("attempt", attempt+1),
						attribute.Int64("delay_ms", delay.Milliseconds()),
					),
				)
				logger.Info("retrying subquery",
					"endpoint", ep.URL,
					"attempt", attempt+1,
					"max_attempts", retry.MaxAttempts,
					"delay", delay,
					"last_error", lastErr,
				)

				select {
				case <-time.After(delay):
				case <-ctx.Done():
					span.SetStatus(codes.Error, "subquery cancelled")
					return nil, ctx.Err()
				}
				delays = append(delays, delay)
				monitoring.RecordUpstreamRetry(ep.URL)

				delay = retry.NextDelay(delay)
			}

			result, retryable, err := c.attempt(ctx, ep, sub, timeout)
			if err == nil {
				ep.SetLiveness(LivenessAvailable)
				result.RetryDelays = delays
				span.SetAttributes(
					attribute.String(tracing.AttrEndpointURL, ep.URL),
					attribute.Int("overpass.elements", len(result.Elements)),
					attribute.Int("overpass.rows_skipped", result.Skipped),
				)
				span.SetStatus(codes.Ok, "")
				return result, nil
			}
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, "subquery cancelled")
				return nil, ctx.Err()
			}
			if !retryable {
				span.RecordError(err)
				span.SetStatus(codes.Error, "subquery rejected")
				return nil, err
			}
			lastErr = err
		}

		// Attempt budget for this candidate is spent
		ep.SetLiveness(LivenessUnavailable)
		tracing.AddEvent(ctx, "endpoint_failover",
			trace.WithAttributes(attribute.String(tracing.AttrEndpointURL, ep.URL)),
		)
		logger.Warn("endpoint exhausted, failing over", "endpoint", ep.URL, "last_error", lastErr)
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all endpoints exhausted")

	return nil, core.NewError(core.ErrUpstreamExhausted,
		fmt.Sprintf("all %d endpoint candidates exhausted: %v", len(c.pool.Endpoints()), lastErr)).
		WithQuery(sub.Query).
		WithGuidance("The Overpass mirrors are overloaded or unreachable. Try again later or reduce the search area.")
}

// attempt performs a single delivery attempt. The boolean reports whether
// the failure is eligible for retry.
func (c *Client) attempt(ctx context.Context, ep *Endpoint, sub Subquery, timeout time.Duration) (*SubqueryResult, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, ep.URL,
		strings.NewReader("data="+url.QueryEscape(sub.Query)))
	if err != nil {
		return nil, false, core.NewError(core.ErrInternalError, fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		monitoring.RecordUpstreamRequest(ep.URL, "transport_error", duration)
		return nil, true, core.NewError(core.ErrNetworkError, fmt.Sprintf("request to %s failed: %v", ep.URL, err))
	}
	defer resp.Body.Close()

	monitoring.RecordUpstreamRequest(ep.URL, fmt.Sprintf("%d", resp.StatusCode), duration)

	if resp.StatusCode != http.StatusOK {
		serviceErr := core.ServiceError("Overpass", resp.StatusCode, fmt.Sprintf("HTTP status %d", resp.StatusCode))
		// 5xx and rate limiting are transient; other statuses mean the
		// query itself was rejected
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, serviceErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, core.NewError(core.ErrNetworkError, fmt.Sprintf("failed to read response from %s: %v", ep.URL, err))
	}

	elements, skipped, err := parseResponse(sub, body)
	if err != nil {
		return nil, true, err
	}

	return &SubqueryResult{
		Subquery: sub,
		Elements: elements,
		Skipped:  skipped,
		Endpoint: ep.URL,
	}, false, nil
}
