package overpass

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/monitoring"
	"github.com/SvenST89/osint-mcp-experiment/pkg/tracing"
)

// BatchOptions overrides the client defaults for one batch.
type BatchOptions struct {
	// MaxConcurrent caps simultaneously in-flight subqueries.
	// Zero means the client default.
	MaxConcurrent int

	// Timeout bounds each upstream request. Zero means the client default.
	Timeout time.Duration

	// Retry overrides the retry schedule when MaxAttempts > 0.
	Retry core.RetryOptions
}

// RunBatch executes all subqueries concurrently, at most MaxConcurrent in
// flight at once, and returns once every subquery has terminated. One
// subquery's failure never aborts its siblings. The result sequences
// preserve submission order. If ctx is cancelled no partial result is
// returned, since an unknown share of the batch may not have run at all.
func (c *Client) RunBatch(ctx context.Context, subs []Subquery, opts BatchOptions) (*BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "overpass.batch",
		trace.WithAttributes(attribute.Int("overpass.subqueries", len(subs))),
	)
	defer span.End()

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = c.maxConcurrent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	retry := c.retryFor(opts.Retry)

	// Fresh liveness hints before committing to delivery
	c.pool.Refresh(ctx)

	type outcome struct {
		result *SubqueryResult
		err    error
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	outcomes := make([]outcome, len(subs))

	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub Subquery) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			// Release unconditionally so failures cannot leak capacity
			defer sem.Release(1)

			result, err := c.execute(ctx, sub, retry, timeout)
			outcomes[i] = outcome{result: result, err: err}
		}(i, sub)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "batch cancelled")
		return nil, err
	}

	batch := &BatchResult{}
	for i, out := range outcomes {
		if out.err != nil {
			monitoring.RecordBatchSubquery("failed")
			batch.Failures = append(batch.Failures, SubqueryFailure{
				Index:   i,
				Kind:    subs[i].Kind,
				Code:    string(core.CodeOf(out.err)),
				Message: out.err.Error(),
			})
			continue
		}
		monitoring.RecordBatchSubquery("succeeded")
		batch.Results = append(batch.Results, *out.result)
	}

	span.SetAttributes(
		attribute.Int("overpass.succeeded", len(batch.Results)),
		attribute.Int("overpass.failed", len(batch.Failures)),
	)
	span.SetStatus(codes.Ok, "")

	c.logger.Info("batch complete",
		"subqueries", len(subs),
		"succeeded", len(batch.Results),
		"failed", len(batch.Failures),
		"max_concurrent", maxConcurrent,
	)

	return batch, nil
}
