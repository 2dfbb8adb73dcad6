// Package features assembles parsed OSM elements into the structured,
// sanitized output form returned to callers.
package features

import (
	"context"
	"log/slog"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/geo"
	"github.com/SvenST89/osint-mcp-experiment/pkg/monitoring"
	"github.com/SvenST89/osint-mcp-experiment/pkg/overpass"
	"github.com/SvenST89/osint-mcp-experiment/pkg/sanitize"
	"github.com/SvenST89/osint-mcp-experiment/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Source records which endpoint and query produced a feature.
type Source struct {
	Endpoint string `json:"endpoint,omitempty"`
	Query    string `json:"query,omitempty"`
}

// Feature is the final structured unit returned for one OSM element.
// Geometry and Tags hold only sanitized values: strings, booleans, finite
// numbers, nulls, and sequences or mappings of those.
type Feature struct {
	ID       int64          `json:"id"`
	Kind     string         `json:"kind"`
	Geometry any            `json:"geometry"`
	Tags     map[string]any `json:"tags,omitempty"`
	Source   Source         `json:"source,omitempty"`
}

// RegionResult is the envelope for one region query. Features and Failures
// together account for every submitted subquery.
type RegionResult struct {
	AreaName     string                     `json:"area_name,omitempty"`
	BBox         []float64                  `json:"bbox,omitempty"`
	ElementKinds []overpass.ElementKind     `json:"element_types"`
	Count        int                        `json:"count"`
	Features     []Feature                  `json:"features"`
	Failures     []overpass.SubqueryFailure `json:"failures,omitempty"`

	// Omitted counts elements dropped because their geometry could not be
	// normalized. Skipped counts malformed response rows dropped upstream.
	Omitted int `json:"geometry_omitted,omitempty"`
	Skipped int `json:"rows_skipped,omitempty"`
}

// normalizeGeometry maps a raw element's coordinates onto the closed
// point/line/polygon variant. The shape is chosen by element kind and ring
// closure. A center-only element (CSV rows, center fallbacks) becomes a point.
func normalizeGeometry(el overpass.RawElement) (geo.Geometry, error) {
	switch el.Kind {
	case overpass.KindNode:
		if !el.HasPoint {
			return geo.Geometry{}, core.NewError(core.ErrGeometryUnrepresentable, "node has no coordinate")
		}
		return geo.NewPoint(el.Point.Lat, el.Point.Lon), nil

	case overpass.KindWay:
		if len(el.Coords) >= 2 {
			if geo.IsClosedRing(el.Coords) {
				return geo.NewPolygon([][]geo.Point{el.Coords}), nil
			}
			return geo.NewLine(el.Coords), nil
		}
		if el.HasPoint {
			return geo.NewPoint(el.Point.Lat, el.Point.Lon), nil
		}
		return geo.Geometry{}, core.NewError(core.ErrGeometryUnrepresentable, "way has fewer than two resolvable coordinates")

	case overpass.KindRelation:
		if len(el.Rings) > 0 {
			return geo.NewPolygon(el.Rings), nil
		}
		if el.HasPoint {
			return geo.NewPoint(el.Point.Lat, el.Point.Lon), nil
		}
		return geo.Geometry{}, core.NewError(core.ErrGeometryUnrepresentable, "relation has no member geometry")

	default:
		return geo.Geometry{}, core.NewError(core.ErrGeometryUnrepresentable, "unknown element kind")
	}
}

// Assemble converts a batch's successful elements into sanitized features.
// Elements whose geometry cannot be normalized are dropped and counted in
// RegionResult.Omitted rather than failing the whole assembly.
func Assemble(batch *overpass.BatchResult, logger *slog.Logger) *RegionResult {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out := &RegionResult{
		Features: []Feature{},
		Failures: batch.Failures,
	}

	for _, res := range batch.Results {
		out.Skipped += res.Skipped
		for _, el := range res.Elements {
			g, err := normalizeGeometry(el)
			if err != nil {
				out.Omitted++
				logger.Debug("dropping element with unrepresentable geometry",
					"kind", el.Kind,
					"id", el.ID,
					"error", err)
				continue
			}

			tags, _ := sanitize.Sanitize(el.Tags).(map[string]any)
			out.Features = append(out.Features, Feature{
				ID:       el.ID,
				Kind:     string(el.Kind),
				Geometry: sanitize.Sanitize(g),
				Tags:     tags,
				Source: Source{
					Endpoint: res.Endpoint,
					Query:    res.Subquery.Query,
				},
			})
		}
	}

	out.Count = len(out.Features)
	monitoring.RecordAssembly(out.Count, out.Omitted, out.Skipped)
	return out
}

// QueryRegion is the top-level operation: validate and decompose the
// parameters, run the batch, and assemble the sanitized result. A nil logger
// is replaced with a no-op one. Parameter errors and cancellation fail the
// whole call; individual subquery failures are recorded in the result.
func QueryRegion(ctx context.Context, client *overpass.Client, params overpass.QueryParameters, logger *slog.Logger) (*RegionResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, span := tracing.StartSpan(ctx, "features.QueryRegion")
	defer span.End()

	subs, err := params.Subqueries()
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrSubqueryCount, len(subs)),
		attribute.String(tracing.AttrAreaName, params.AreaName),
	)

	batch, err := client.RunBatch(ctx, subs, overpass.BatchOptions{
		MaxConcurrent: params.MaxConcurrent,
		Timeout:       params.Timeout,
		Retry:         params.Retry,
	})
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	result := Assemble(batch, logger)
	result.AreaName = params.AreaName
	result.BBox = params.BBox
	result.ElementKinds = params.Kinds()

	logger.Info("region query complete",
		"features", result.Count,
		"failures", len(result.Failures),
		"omitted", result.Omitted,
		"skipped", result.Skipped)

	return result, nil
}
