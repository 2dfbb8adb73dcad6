package overpass

import (
	"fmt"
	"strings"
	"time"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/geo"
	"github.com/SvenST89/osint-mcp-experiment/pkg/overpass/queries"
)

// Input validation limits to prevent runaway queries
const (
	maxTagCount       = 20  // Maximum number of tags per query
	maxTagKeyLength   = 100 // Maximum length of tag keys
	maxTagValueLength = 200 // Maximum length of tag values
)

// QueryParameters describes one region query before decomposition.
// Exactly one of AreaName and BBox must be set.
type QueryParameters struct {
	// Tags filters elements by key-value predicates.
	// See queries.Builder.WithTags for the value conventions.
	Tags map[string]string `json:"tags"`

	// AreaName names the region to query, e.g. a city name.
	AreaName string `json:"area_name,omitempty"`

	// BBox is a bounding box ordered [south, west, north, east].
	BBox []float64 `json:"bbox,omitempty"`

	// ElementKinds selects the OSM primitive kinds to include.
	// Defaults to node, way and relation.
	ElementKinds []ElementKind `json:"element_types,omitempty"`

	// Output selects the response encoding, "json" (default) or "csv".
	Output string `json:"output,omitempty"`

	// CSVFields names the columns for CSV output.
	CSVFields []string `json:"csv_fields,omitempty"`

	// Timeout bounds each upstream request. Zero means the client default.
	Timeout time.Duration `json:"-"`

	// MaxConcurrent caps simultaneously in-flight subqueries.
	// Zero means the client default.
	MaxConcurrent int `json:"max_concurrent,omitempty"`

	// Retry overrides the client's retry schedule when MaxAttempts > 0.
	Retry core.RetryOptions `json:"-"`
}

// Kinds returns the requested element kinds, defaulting to all three.
func (p *QueryParameters) Kinds() []ElementKind {
	if len(p.ElementKinds) == 0 {
		return []ElementKind{KindNode, KindWay, KindRelation}
	}
	return p.ElementKinds
}

// Validate checks the parameter set without touching the network.
func (p *QueryParameters) Validate() error {
	if p.AreaName == "" && len(p.BBox) == 0 {
		return core.NewValidationError("either bbox or area_name must be specified")
	}
	if p.AreaName != "" && len(p.BBox) > 0 {
		return core.NewValidationError("bbox and area_name are mutually exclusive")
	}
	if len(p.BBox) > 0 && len(p.BBox) != 4 {
		return core.NewValidationError(fmt.Sprintf("bbox must have exactly 4 values [south, west, north, east], got %d", len(p.BBox)))
	}
	for _, kind := range p.ElementKinds {
		if !ValidKind(kind) {
			return core.NewValidationError(fmt.Sprintf("unknown element type %q", kind))
		}
	}
	if p.Output != "" && p.Output != queries.OutputJSON && p.Output != queries.OutputCSV {
		return core.NewValidationError(fmt.Sprintf("unsupported output encoding %q", p.Output))
	}
	return validateTags(p.Tags)
}

// validateTags validates tag input to prevent runaway queries and injection
func validateTags(tags map[string]string) error {
	if len(tags) == 0 {
		return core.NewValidationError("at least one tag is required")
	}
	if len(tags) > maxTagCount {
		return core.NewValidationError(fmt.Sprintf("too many tags: %d (maximum: %d)", len(tags), maxTagCount))
	}

	for key, value := range tags {
		if len(key) == 0 {
			return core.NewValidationError("empty tag key")
		}
		if len(key) > maxTagKeyLength {
			return core.NewValidationError(fmt.Sprintf("tag key too long: %d characters (maximum: %d)", len(key), maxTagKeyLength))
		}
		if len(value) > maxTagValueLength {
			return core.NewValidationError(fmt.Sprintf("tag value too long: %d characters (maximum: %d)", len(value), maxTagValueLength))
		}
		if strings.ContainsAny(key, "\x00\r\n\t[]\"") {
			return core.NewValidationError(fmt.Sprintf("tag key %q contains invalid characters", key))
		}
		if strings.ContainsAny(value, "\x00\r\n") {
			return core.NewValidationError(fmt.Sprintf("tag value for %q contains invalid characters", key))
		}
	}

	return nil
}

// BoundingBox converts the raw bbox slice into a typed bounding box.
func (p *QueryParameters) BoundingBox() geo.BoundingBox {
	return geo.BoundingBox{South: p.BBox[0], West: p.BBox[1], North: p.BBox[2], East: p.BBox[3]}
}

// Subqueries validates the parameters and decomposes them into one subquery
// per requested element kind. No network I/O is performed.
func (p *QueryParameters) Subqueries() ([]Subquery, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	output := p.Output
	if output == "" {
		output = queries.OutputJSON
	}

	builder := queries.NewBuilder().WithTags(p.Tags)
	if output == queries.OutputCSV {
		builder.WithOutputCSV(p.CSVFields)
	}
	if p.AreaName != "" {
		builder.WithArea(p.AreaName)
	} else {
		builder.WithBoundingBox(p.BoundingBox())
	}

	kinds := p.Kinds()
	subs := make([]Subquery, 0, len(kinds))
	for _, kind := range kinds {
		ql, err := builder.BuildFor(string(kind))
		if err != nil {
			return nil, err
		}
		subs = append(subs, Subquery{Kind: kind, Query: ql, Output: output})
	}
	return subs, nil
}
