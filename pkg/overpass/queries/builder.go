// Package queries provides utilities for building Overpass QL queries.
package queries

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/geo"
)

// Output encodings understood by the builder.
const (
	OutputJSON = "json"
	OutputCSV  = "csv"
)

// DefaultCSVFields is the column set requested when a CSV query does not
// name its own fields.
var DefaultCSVFields = []string{"::id", "::type", "::lat", "::lon", "name"}

// Builder provides a fluent interface for building Overpass QL queries.
// A single builder describes one spatial region and tag predicate set;
// BuildFor emits one query string per element kind.
type Builder struct {
	output    string
	timeout   int
	csvFields []string
	areaName  string
	bbox      *geo.BoundingBox
	tags      map[string]string
}

// NewBuilder creates a new builder with default settings
func NewBuilder() *Builder {
	return &Builder{
		output:  OutputJSON,
		timeout: 25, // Default Overpass server-side timeout in seconds
	}
}

// WithTimeout sets the server-side query timeout in seconds
func (b *Builder) WithTimeout(seconds int) *Builder {
	b.timeout = seconds
	return b
}

// WithOutputJSON requests structured JSON output with full geometry
func (b *Builder) WithOutputJSON() *Builder {
	b.output = OutputJSON
	return b
}

// WithOutputCSV requests tabular CSV output with the given columns.
// An empty field list falls back to DefaultCSVFields.
func (b *Builder) WithOutputCSV(fields []string) *Builder {
	b.output = OutputCSV
	b.csvFields = fields
	return b
}

// WithArea constrains the query to a named area
func (b *Builder) WithArea(name string) *Builder {
	b.areaName = name
	return b
}

// WithBoundingBox constrains the query to a bounding box
func (b *Builder) WithBoundingBox(bbox geo.BoundingBox) *Builder {
	b.bbox = &bbox
	return b
}

// WithTags sets the tag predicates. Value conventions:
//
//	"*" or ""  - tag key must be present, any value
//	"!"        - tag key must be absent
//	"~expr"    - value matches the regular expression
//	"a|b"      - value is one of the alternatives
//	otherwise  - value matches exactly
func (b *Builder) WithTags(tags map[string]string) *Builder {
	b.tags = tags
	return b
}

// Validate checks that the builder describes a well-formed query.
// Exactly one spatial constraint must be present.
func (b *Builder) Validate() error {
	if b.areaName == "" && b.bbox == nil {
		return core.NewValidationError("either a bounding box or an area name must be specified")
	}
	if b.areaName != "" && b.bbox != nil {
		return core.NewValidationError("bounding box and area name are mutually exclusive")
	}
	if b.bbox != nil {
		if err := b.bbox.Validate(); err != nil {
			return core.NewValidationError(err.Error())
		}
	}
	if b.areaName != "" && strings.ContainsAny(b.areaName, "\"\\\r\n") {
		return core.NewValidationError(fmt.Sprintf("area name %q cannot be resolved into a region qualifier", b.areaName))
	}
	if b.output != OutputJSON && b.output != OutputCSV {
		return core.NewValidationError(fmt.Sprintf("unsupported output encoding %q", b.output))
	}
	return nil
}

// BuildFor generates the complete Overpass QL query string for one element
// kind ("node", "way" or "relation").
func (b *Builder) BuildFor(kind string) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	var query strings.Builder
	query.WriteString(b.header())

	// Resolve the named area into a region qualifier first
	if b.areaName != "" {
		query.WriteString(fmt.Sprintf("area[name=%q][admin_level];", b.areaName))
	}

	query.WriteString("(")
	query.WriteString(kind)
	query.WriteString(b.tagFilters())
	query.WriteString(b.spatialFilter())
	query.WriteString(";);")
	query.WriteString(b.footer())

	return query.String(), nil
}

// header emits the output directive and server timeout
func (b *Builder) header() string {
	if b.output == OutputCSV {
		fields := b.csvFields
		if len(fields) == 0 {
			fields = DefaultCSVFields
		}
		return fmt.Sprintf("[out:csv(%s; true; \"\\t\")][timeout:%d];", strings.Join(fields, ","), b.timeout)
	}
	return fmt.Sprintf("[out:json][timeout:%d];", b.timeout)
}

// footer emits the result directive: full geometry for JSON, a single
// center coordinate per record for CSV.
func (b *Builder) footer() string {
	if b.output == OutputCSV {
		return "out center;"
	}
	return "out geom;"
}

func (b *Builder) spatialFilter() string {
	if b.bbox != nil {
		return fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)", b.bbox.South, b.bbox.West, b.bbox.North, b.bbox.East)
	}
	return "(area)"
}

// tagFilters renders the tag predicates in key order for determinism
func (b *Builder) tagFilters() string {
	keys := make([]string, 0, len(b.tags))
	for key := range b.tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, key := range keys {
		out.WriteString(tagFilter(key, b.tags[key]))
	}
	return out.String()
}

func tagFilter(key, value string) string {
	switch {
	case value == "" || value == "*":
		return fmt.Sprintf("[%s]", key)
	case value == "!":
		return fmt.Sprintf("[!%s]", key)
	case strings.HasPrefix(value, "~"):
		return fmt.Sprintf("[%s~%q]", key, strings.TrimPrefix(value, "~"))
	case strings.Contains(value, "|"):
		// Anchored alternation, e.g. hospital|clinic
		return fmt.Sprintf("[%s~%q]", key, "^("+value+")$")
	default:
		return fmt.Sprintf("[%s=%q]", key, value)
	}
}
