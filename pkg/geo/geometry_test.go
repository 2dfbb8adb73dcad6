package geo

import (
	"reflect"
	"testing"
)

func TestIsClosedRing(t *testing.T) {
	tests := []struct {
		name     string
		pts      []Point
		expected bool
	}{
		{
			name:     "Empty sequence",
			pts:      nil,
			expected: false,
		},
		{
			name:     "Too short even when closed",
			pts:      []Point{{0, 0}, {1, 1}, {0, 0}},
			expected: false,
		},
		{
			name:     "Closed square",
			pts:      []Point{{0, 0}, {0, 1}, {1, 1}, {0, 0}},
			expected: true,
		},
		{
			name:     "Open line",
			pts:      []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosedRing(tt.pts); got != tt.expected {
				t.Errorf("IsClosedRing() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGeometryCoordinates(t *testing.T) {
	point := NewPoint(52.5, 13.4)
	got := point.Coordinates()
	if !reflect.DeepEqual(got, []any{13.4, 52.5}) {
		t.Errorf("point coordinates = %v, want [13.4 52.5]", got)
	}

	line := NewLine([]Point{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}})
	got = line.Coordinates()
	want := []any{[]any{2.0, 1.0}, []any{4.0, 3.0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("line coordinates = %v, want %v", got, want)
	}

	ring := []Point{{0, 0}, {0, 1}, {1, 1}, {0, 0}}
	poly := NewPolygon([][]Point{ring})
	rings, ok := poly.Coordinates().([]any)
	if !ok || len(rings) != 1 {
		t.Fatalf("polygon coordinates = %v", poly.Coordinates())
	}
	outer, ok := rings[0].([]any)
	if !ok || len(outer) != 4 {
		t.Fatalf("outer ring = %v", rings[0])
	}
}

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name      string
		bbox      BoundingBox
		expectErr bool
	}{
		{
			name: "Valid box",
			bbox: BoundingBox{South: 52.3, West: 13.1, North: 52.7, East: 13.7},
		},
		{
			name:      "South above north",
			bbox:      BoundingBox{South: 53, West: 13.1, North: 52, East: 13.7},
			expectErr: true,
		},
		{
			name:      "West east of east",
			bbox:      BoundingBox{South: 52.3, West: 14, North: 52.7, East: 13},
			expectErr: true,
		},
		{
			name:      "Latitude out of range",
			bbox:      BoundingBox{South: -91, West: 13.1, North: 52.7, East: 13.7},
			expectErr: true,
		},
		{
			name:      "Longitude out of range",
			bbox:      BoundingBox{South: 52.3, West: -181, North: 52.7, East: 13.7},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bbox.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
