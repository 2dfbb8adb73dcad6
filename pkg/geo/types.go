// Package geo provides geographic primitives shared by the Overpass tools.
package geo

import "fmt"

// BoundingBox represents a rectangular geographic region ordered
// south, west, north, east as used by the Overpass API.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Validate checks that the bounding box describes a real region.
func (b BoundingBox) Validate() error {
	if err := ValidateCoords(b.South, b.West); err != nil {
		return err
	}
	if err := ValidateCoords(b.North, b.East); err != nil {
		return err
	}
	if b.South >= b.North {
		return fmt.Errorf("invalid bounding box: south %f must be less than north %f", b.South, b.North)
	}
	if b.West >= b.East {
		return fmt.Errorf("invalid bounding box: west %f must be less than east %f", b.West, b.East)
	}
	return nil
}

// ValidateCoords validates latitude and longitude values.
// Returns an error if the coordinates are invalid.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return nil
}
