package overpass

import (
	"encoding/json"
	"testing"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
)

func TestParseJSONNode(t *testing.T) {
	body := []byte(`{
		"elements": [
			{"type": "node", "id": 101, "lat": 52.52, "lon": 13.405, "tags": {"amenity": "hospital", "beds": 300}}
		]
	}`)

	elements, skipped, err := parseResponse(Subquery{Kind: KindNode, Output: "json"}, body)
	if err != nil {
		t.Fatalf("parseResponse failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(elements))
	}

	el := elements[0]
	if el.Kind != KindNode || el.ID != 101 {
		t.Errorf("element = %+v", el)
	}
	if !el.HasPoint || el.Point.Lat != 52.52 || el.Point.Lon != 13.405 {
		t.Errorf("point = %+v, has=%v", el.Point, el.HasPoint)
	}
	if el.Tags["amenity"] != "hospital" {
		t.Errorf("tags = %v", el.Tags)
	}
	// Numbers stay json.Number until sanitization
	if _, ok := el.Tags["beds"].(json.Number); !ok {
		t.Errorf("beds tag = %T, want json.Number", el.Tags["beds"])
	}
}

func TestParseJSONWayGeometry(t *testing.T) {
	body := []byte(`{
		"elements": [
			{"type": "way", "id": 7, "geometry": [
				{"lat": 52.0, "lon": 13.0},
				{"lat": 52.1, "lon": 13.1}
			]},
			{"type": "way", "id": 8, "center": {"lat": 51.0, "lon": 12.0}}
		]
	}`)

	elements, _, err := parseJSON(body)
	if err != nil {
		t.Fatalf("parseJSON failed: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(elements))
	}

	if len(elements[0].Coords) != 2 {
		t.Errorf("way 7 coords = %v", elements[0].Coords)
	}
	if !elements[1].HasPoint || elements[1].Point.Lat != 51.0 {
		t.Errorf("way 8 should fall back to center, got %+v", elements[1])
	}
}

func TestParseJSONRelationRings(t *testing.T) {
	body := []byte(`{
		"elements": [
			{"type": "relation", "id": 9, "members": [
				{"type": "way", "role": "outer", "geometry": [
					{"lat": 0, "lon": 0}, {"lat": 0, "lon": 1}, {"lat": 1, "lon": 1}, {"lat": 0, "lon": 0}
				]},
				{"type": "node", "role": "admin_centre"}
			]}
		]
	}`)

	elements, _, err := parseJSON(body)
	if err != nil {
		t.Fatalf("parseJSON failed: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(elements))
	}
	if len(elements[0].Rings) != 1 || len(elements[0].Rings[0]) != 4 {
		t.Errorf("rings = %v", elements[0].Rings)
	}
}

func TestParseJSONSkipsMalformedElements(t *testing.T) {
	body := []byte(`{
		"elements": [
			{"type": "node", "id": 1, "lat": 52.0, "lon": 13.0},
			{"type": "node", "id": 2},
			{"type": "volcano", "id": 3, "lat": 1, "lon": 1},
			{"type": "node", "id": 4, "lat": 52.1, "lon": 13.1}
		]
	}`)

	elements, skipped, err := parseJSON(body)
	if err != nil {
		t.Fatalf("parseJSON failed: %v", err)
	}
	if len(elements) != 2 {
		t.Errorf("got %d elements, want 2", len(elements))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestParseJSONMalformedBody(t *testing.T) {
	_, _, err := parseJSON([]byte(`<html>rate limited</html>`))
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
	if code := core.CodeOf(err); code != core.ErrParseError {
		t.Errorf("code = %s, want %s", code, core.ErrParseError)
	}
}

func TestParseResponseAllRowsSkipped(t *testing.T) {
	// A response where zero rows parse is itself a parse failure
	body := []byte(`{"elements": [{"type": "node", "id": 1}, {"type": "node", "id": 2}]}`)

	_, _, err := parseResponse(Subquery{Kind: KindNode, Output: "json"}, body)
	if err == nil {
		t.Fatal("expected parse error when no rows parse")
	}
	if code := core.CodeOf(err); code != core.ErrParseError {
		t.Errorf("code = %s, want %s", code, core.ErrParseError)
	}
}

func TestParseCSV(t *testing.T) {
	body := []byte("::id\t::type\t::lat\t::lon\tname\n" +
		"101\tnode\t52.52\t13.405\tCharité\n" +
		"not-a-number\tnode\t52.0\t13.0\tBroken\n" +
		"102\tnode\t52.53\t13.41\t\n")

	elements, skipped, err := parseCSV(KindNode, body)
	if err != nil {
		t.Fatalf("parseCSV failed: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(elements))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}

	el := elements[0]
	if el.ID != 101 || !el.HasPoint {
		t.Errorf("element = %+v", el)
	}
	if el.Point.Lat != 52.52 || el.Point.Lon != 13.405 {
		t.Errorf("point = %+v", el.Point)
	}
	if el.Tags["name"] != "Charité" {
		t.Errorf("tags = %v", el.Tags)
	}

	// Empty columns do not become tags
	if _, ok := elements[1].Tags["name"]; ok {
		t.Errorf("empty name column should be absent, tags = %v", elements[1].Tags)
	}
}

func TestParseCSVRowArityMismatch(t *testing.T) {
	body := []byte("::id\t::lat\t::lon\n" +
		"1\t52.0\n" +
		"2\t52.1\t13.1\n")

	elements, skipped, err := parseCSV(KindNode, body)
	if err != nil {
		t.Fatalf("parseCSV failed: %v", err)
	}
	if len(elements) != 1 || elements[0].ID != 2 {
		t.Errorf("elements = %+v", elements)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestParseCSVMissingHeader(t *testing.T) {
	_, _, err := parseCSV(KindNode, []byte(""))
	if err == nil {
		t.Fatal("expected error for empty CSV body")
	}
	if code := core.CodeOf(err); code != core.ErrParseError {
		t.Errorf("code = %s, want %s", code, core.ErrParseError)
	}
}
