// Package overpass provides the query execution pipeline against the
// Overpass API: query decomposition, endpoint probing, retrying single-query
// delivery and bounded-concurrency batch execution.
package overpass

import (
	"time"

	"github.com/SvenST89/osint-mcp-experiment/pkg/geo"
)

// ElementKind identifies an OSM primitive kind.
type ElementKind string

// The OSM element kinds understood by the pipeline.
const (
	KindNode     ElementKind = "node"
	KindWay      ElementKind = "way"
	KindRelation ElementKind = "relation"
)

// ValidKind reports whether k names a known element kind.
func ValidKind(k ElementKind) bool {
	switch k {
	case KindNode, KindWay, KindRelation:
		return true
	}
	return false
}

// Subquery is one decomposed unit of a caller's request: a single element
// kind with its rendered Overpass QL string.
type Subquery struct {
	Kind   ElementKind
	Query  string
	Output string // queries.OutputJSON or queries.OutputCSV
}

// RawElement is one parsed OSM primitive. It is immutable once produced and
// handed off by value to the feature assembler. Which geometry fields are
// populated depends on the element kind and the response encoding.
type RawElement struct {
	Kind ElementKind
	ID   int64

	// Point coordinate for nodes and for CSV center rows.
	Point    geo.Point
	HasPoint bool

	// Ordered coordinate sequence for ways.
	Coords []geo.Point

	// Coordinate rings gathered from relation member geometry.
	Rings [][]geo.Point

	// Raw tag mapping. Values are of unconstrained scalar type until the
	// sanitizer has seen them.
	Tags map[string]any
}

// SubqueryResult is the outcome of one successfully delivered subquery.
type SubqueryResult struct {
	Subquery Subquery
	Elements []RawElement

	// Skipped counts malformed rows dropped individually from an
	// otherwise-successful response.
	Skipped int

	// RetryDelays records the backoff waits taken before success,
	// in the order they were slept.
	RetryDelays []time.Duration

	// Endpoint is the URL of the candidate that served the response.
	Endpoint string
}

// SubqueryFailure records one subquery that exhausted its delivery options.
type SubqueryFailure struct {
	Index   int         `json:"index"`
	Kind    ElementKind `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// BatchResult collects the outcomes of a batch. Results and Failures
// partition the submitted subqueries and both preserve submission order.
type BatchResult struct {
	Results  []SubqueryResult
	Failures []SubqueryFailure
}
