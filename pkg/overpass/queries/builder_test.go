package queries

import (
	"errors"
	"strings"
	"testing"

	"github.com/SvenST89/osint-mcp-experiment/pkg/core"
	"github.com/SvenST89/osint-mcp-experiment/pkg/geo"
)

func TestBuildForBoundingBox(t *testing.T) {
	query, err := NewBuilder().
		WithTags(map[string]string{"amenity": "hospital"}).
		WithBoundingBox(geo.BoundingBox{South: 52.3, West: 13.1, North: 52.7, East: 13.7}).
		BuildFor("node")
	if err != nil {
		t.Fatalf("BuildFor failed: %v", err)
	}

	for _, want := range []string{
		"[out:json]",
		"[timeout:25]",
		`node[amenity="hospital"]`,
		"(52.300000,13.100000,52.700000,13.700000)",
		"out geom;",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}
}

func TestBuildForNamedArea(t *testing.T) {
	query, err := NewBuilder().
		WithTags(map[string]string{"amenity": "hospital"}).
		WithArea("Berlin").
		BuildFor("way")
	if err != nil {
		t.Fatalf("BuildFor failed: %v", err)
	}

	if !strings.Contains(query, `area[name="Berlin"][admin_level];`) {
		t.Errorf("query missing area resolution:\n%s", query)
	}
	if !strings.Contains(query, "(area)") {
		t.Errorf("query missing area filter:\n%s", query)
	}
	if !strings.Contains(query, "way[amenity=\"hospital\"]") {
		t.Errorf("query missing way clause:\n%s", query)
	}
}

func TestBuildForCSV(t *testing.T) {
	query, err := NewBuilder().
		WithTags(map[string]string{"amenity": "hospital"}).
		WithArea("Berlin").
		WithOutputCSV(nil).
		BuildFor("node")
	if err != nil {
		t.Fatalf("BuildFor failed: %v", err)
	}

	if !strings.Contains(query, `[out:csv(::id,::type,::lat,::lon,name; true; "\t")]`) {
		t.Errorf("query missing CSV directive with default fields:\n%s", query)
	}
	if !strings.Contains(query, "out center;") {
		t.Errorf("CSV query must end with out center:\n%s", query)
	}
}

func TestTagFilterConventions(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "Exact match",
			key:      "amenity",
			value:    "hospital",
			expected: `[amenity="hospital"]`,
		},
		{
			name:     "Wildcard star",
			key:      "name",
			value:    "*",
			expected: "[name]",
		},
		{
			name:     "Wildcard empty",
			key:      "name",
			value:    "",
			expected: "[name]",
		},
		{
			name:     "Absence",
			key:      "access",
			value:    "!",
			expected: "[!access]",
		},
		{
			name:     "Regular expression",
			key:      "name",
			value:    "~^St\\.",
			expected: `[name~"^St\\."]`,
		},
		{
			name:     "Alternation is anchored",
			key:      "amenity",
			value:    "hospital|clinic",
			expected: `[amenity~"^(hospital|clinic)$"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tagFilter(tt.key, tt.value); got != tt.expected {
				t.Errorf("tagFilter(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.expected)
			}
		})
	}
}

func TestTagFiltersDeterministic(t *testing.T) {
	b := NewBuilder().WithTags(map[string]string{
		"amenity": "hospital",
		"name":    "*",
		"access":  "!",
	}).WithArea("Berlin")

	first, err := b.BuildFor("node")
	if err != nil {
		t.Fatalf("BuildFor failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := b.BuildFor("node")
		if err != nil {
			t.Fatalf("BuildFor failed: %v", err)
		}
		if again != first {
			t.Fatalf("query not deterministic:\n%s\n%s", first, again)
		}
	}
}

func TestValidateSpatialConstraint(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
	}{
		{
			name:    "Neither bbox nor area",
			builder: NewBuilder().WithTags(map[string]string{"amenity": "hospital"}),
		},
		{
			name: "Both bbox and area",
			builder: NewBuilder().
				WithTags(map[string]string{"amenity": "hospital"}).
				WithArea("Berlin").
				WithBoundingBox(geo.BoundingBox{South: 52.3, West: 13.1, North: 52.7, East: 13.7}),
		},
		{
			name: "Unresolvable area name",
			builder: NewBuilder().
				WithTags(map[string]string{"amenity": "hospital"}).
				WithArea("Ber\"lin"),
		},
		{
			name: "Invalid bounding box",
			builder: NewBuilder().
				WithTags(map[string]string{"amenity": "hospital"}).
				WithBoundingBox(geo.BoundingBox{South: 53, West: 13.1, North: 52, East: 13.7}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.BuildFor("node")
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var toolErr *core.ToolError
			if !errors.As(err, &toolErr) {
				t.Fatalf("expected ToolError, got %T", err)
			}
			if toolErr.Code != string(core.ErrInvalidParameters) {
				t.Errorf("code = %s, want %s", toolErr.Code, core.ErrInvalidParameters)
			}
		})
	}
}
