package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/features"
	"github.com/SvenST89/osint-mcp-experiment/pkg/overpass"
)

// QueryRegionInput defines the input parameters for querying a region.
type QueryRegionInput struct {
	Tags          map[string]string `json:"tags"`
	AreaName      string            `json:"area_name,omitempty"`
	BBox          []float64         `json:"bbox,omitempty"`
	ElementTypes  []string          `json:"element_types,omitempty"`
	Output        string            `json:"output,omitempty"`
	CSVFields     []string          `json:"csv_fields,omitempty"`
	MaxConcurrent int               `json:"max_concurrent,omitempty"`
}

// QueryRegionTool returns the tool definition for querying OSM data in a region.
func QueryRegionTool() mcp.Tool {
	return mcp.NewTool("query_region",
		mcp.WithDescription("Query OpenStreetMap data in a region with tag filters. Exactly one of bbox or area_name must be given. Parameters: tags (object of key-value string pairs, use '*' or '' to match any value, '~regex' for a pattern, 'a|b' for alternatives), area_name (string, e.g. a city name), bbox (array of 4 numbers [south, west, north, east]), element_types (array of strings from: node, way, relation; default all), output (string: json or csv), csv_fields (array of strings, CSV output only), max_concurrent (number). Example: tags: {\"amenity\": \"hospital\"}, area_name: \"Berlin\""),
		mcp.WithObject("tags",
			mcp.Required(),
			mcp.Description("Tags to filter by as key-value string pairs. Use '*' or '' to match any value for a key, '~pattern' for a regular expression, 'a|b' for alternative values. Example: {\"amenity\": \"hospital\", \"emergency\": \"*\"}"),
		),
		mcp.WithString("area_name",
			mcp.Description("Named area to query, e.g. a city name. Mutually exclusive with bbox."),
		),
		mcp.WithArray("bbox",
			mcp.Description("Bounding box as [south, west, north, east]. Mutually exclusive with area_name."),
		),
		mcp.WithArray("element_types",
			mcp.Description("Element kinds to include: node, way, relation. Defaults to all three."),
		),
		mcp.WithString("output",
			mcp.Description("Response encoding: json (default) or csv."),
		),
		mcp.WithArray("csv_fields",
			mcp.Description("Column names for CSV output, e.g. [\"::id\", \"::lat\", \"::lon\", \"name\"]."),
		),
		mcp.WithNumber("max_concurrent",
			mcp.Description("Maximum simultaneously in-flight subqueries."),
		),
	)
}

// HandleQueryRegion implements the region query against the Overpass API.
func (r *Registry) HandleQueryRegion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "query_region")

	input, errResult, err := InputParser[QueryRegionInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	params := overpass.QueryParameters{
		Tags:          input.Tags,
		AreaName:      input.AreaName,
		BBox:          input.BBox,
		Output:        input.Output,
		CSVFields:     input.CSVFields,
		MaxConcurrent: input.MaxConcurrent,
	}
	for _, kind := range input.ElementTypes {
		params.ElementKinds = append(params.ElementKinds, overpass.ElementKind(kind))
	}

	result, err := features.QueryRegion(ctx, r.client, params, logger)
	if err != nil {
		logger.Error("region query failed", "error", err)
		var toolErr *core.ToolError
		if errors.As(err, &toolErr) {
			return toolErr.ToMCPResult(), nil
		}
		return ErrorResponse(err.Error()), nil
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	logger.Info("region query served",
		"features", result.Count,
		"failures", len(result.Failures))

	return mcp.NewToolResultText(string(resultBytes)), nil
}
