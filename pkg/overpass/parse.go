package overpass

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/geo"
	"github.com/SvenST89/osint-mcp-experiment/pkg/overpass/queries"
)

// csvSeparator is the Overpass [out:csv] field separator the builder
// requests.
const csvSeparator = '\t'

// parseResponse parses one raw response body into raw elements according to
// the subquery's encoding. Malformed rows are skipped individually and
// counted; a response where zero rows parse while some were present is a
// parse failure eligible for retry.
func parseResponse(sub Subquery, body []byte) ([]RawElement, int, error) {
	var elements []RawElement
	var skipped int
	var err error

	switch sub.Output {
	case queries.OutputCSV:
		elements, skipped, err = parseCSV(sub.Kind, body)
	default:
		elements, skipped, err = parseJSON(body)
	}
	if err != nil {
		return nil, 0, err
	}

	if len(elements) == 0 && skipped > 0 {
		return nil, 0, core.NewError(core.ErrParseError,
			fmt.Sprintf("no rows parsed, %d malformed rows skipped", skipped))
	}
	return elements, skipped, nil
}

// coordinate mirrors the lat/lon objects in Overpass JSON geometry arrays.
type coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// jsonElement mirrors one entry of the Overpass JSON "elements" array.
type jsonElement struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`

	Lat    *float64    `json:"lat,omitempty"`
	Lon    *float64    `json:"lon,omitempty"`
	Center *coordinate `json:"center,omitempty"`

	Geometry []coordinate `json:"geometry,omitempty"`
	Members  []struct {
		Type     string       `json:"type"`
		Role     string       `json:"role"`
		Geometry []coordinate `json:"geometry,omitempty"`
	} `json:"members,omitempty"`

	Tags map[string]any `json:"tags,omitempty"`
}

// parseJSON walks the response's named elements array. Each element is
// decoded individually so one malformed entry does not fail the response.
func parseJSON(body []byte) ([]RawElement, int, error) {
	var envelope struct {
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, core.NewError(core.ErrParseError, fmt.Sprintf("malformed JSON response: %v", err))
	}

	elements := make([]RawElement, 0, len(envelope.Elements))
	skipped := 0

	for _, raw := range envelope.Elements {
		el, ok := parseJSONElement(raw)
		if !ok {
			skipped++
			continue
		}
		elements = append(elements, el)
	}

	return elements, skipped, nil
}

func parseJSONElement(raw json.RawMessage) (RawElement, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	// Keep tag numbers as json.Number so the sanitizer can judge
	// finiteness later
	dec.UseNumber()

	var el jsonElement
	if err := dec.Decode(&el); err != nil {
		return RawElement{}, false
	}

	kind := ElementKind(el.Type)
	if !ValidKind(kind) || el.ID == 0 {
		return RawElement{}, false
	}

	out := RawElement{Kind: kind, ID: el.ID, Tags: el.Tags}

	switch kind {
	case KindNode:
		if el.Lat == nil || el.Lon == nil {
			return RawElement{}, false
		}
		out.Point = geo.Point{Lat: *el.Lat, Lon: *el.Lon}
		out.HasPoint = true
	case KindWay:
		out.Coords = finiteCoords(el.Geometry)
		if len(out.Coords) == 0 && el.Center != nil {
			out.Point = geo.Point{Lat: el.Center.Lat, Lon: el.Center.Lon}
			out.HasPoint = true
		}
	case KindRelation:
		for _, member := range el.Members {
			ring := finiteCoords(member.Geometry)
			if len(ring) > 0 {
				out.Rings = append(out.Rings, ring)
			}
		}
		if len(out.Rings) == 0 && el.Center != nil {
			out.Point = geo.Point{Lat: el.Center.Lat, Lon: el.Center.Lon}
			out.HasPoint = true
		}
	}

	return out, true
}

// finiteCoords copies a geometry sequence, dropping non-finite coordinates.
func finiteCoords(coords []coordinate) []geo.Point {
	out := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		if !isFinite(c.Lat) || !isFinite(c.Lon) {
			continue
		}
		out = append(out, geo.Point{Lat: c.Lat, Lon: c.Lon})
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseCSV splits a tab-separated response with a header row into raw
// elements. Geometry is reconstructed from the ::lat/::lon columns when
// present; rows that fail to parse are skipped individually.
func parseCSV(kind ElementKind, body []byte) ([]RawElement, int, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.Comma = csvSeparator
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, core.NewError(core.ErrParseError, fmt.Sprintf("CSV response is missing its header row: %v", err))
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	var elements []RawElement
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// One bad row does not fail the response
			skipped++
			continue
		}
		el, ok := parseCSVRow(kind, header, columns, row)
		if !ok {
			skipped++
			continue
		}
		elements = append(elements, el)
	}

	return elements, skipped, nil
}

func parseCSVRow(kind ElementKind, header []string, columns map[string]int, row []string) (RawElement, bool) {
	if len(row) != len(header) {
		return RawElement{}, false
	}

	field := func(name string) (string, bool) {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return "", false
		}
		return row[idx], true
	}

	el := RawElement{Kind: kind}

	if raw, ok := field("::type"); ok && raw != "" {
		if k := ElementKind(raw); ValidKind(k) {
			el.Kind = k
		}
	}

	raw, ok := field("::id")
	if !ok {
		return RawElement{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return RawElement{}, false
	}
	el.ID = id

	// Point geometry from the pseudo-columns when both parse
	if rawLat, ok := field("::lat"); ok {
		if rawLon, ok := field("::lon"); ok {
			lat, latErr := strconv.ParseFloat(rawLat, 64)
			lon, lonErr := strconv.ParseFloat(rawLon, 64)
			if latErr == nil && lonErr == nil && isFinite(lat) && isFinite(lon) {
				el.Point = geo.Point{Lat: lat, Lon: lon}
				el.HasPoint = true
			}
		}
	}

	// Remaining columns become tags
	for name, idx := range columns {
		if name == "::id" || name == "::type" || name == "::lat" || name == "::lon" {
			continue
		}
		if idx < len(row) && row[idx] != "" {
			if el.Tags == nil {
				el.Tags = make(map[string]any)
			}
			el.Tags[name] = row[idx]
		}
	}

	return el, true
}
