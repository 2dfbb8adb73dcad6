package geo

// GeometryType identifies the shape of a Geometry.
type GeometryType string

// The closed set of geometry shapes produced at the output boundary.
const (
	GeometryPoint   GeometryType = "Point"
	GeometryLine    GeometryType = "LineString"
	GeometryPolygon GeometryType = "Polygon"
)

// Point is a single coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Geometry is a tagged variant over point, line and polygon shapes.
// Exactly one of the shape fields is meaningful, selected by Type.
// It replaces dynamic geometry-library dispatch with exhaustive
// switching at the assembly boundary.
type Geometry struct {
	Type  GeometryType
	Point Point     // when Type == GeometryPoint
	Line  []Point   // when Type == GeometryLine
	Rings [][]Point // when Type == GeometryPolygon, outer ring first
}

// NewPoint builds a point geometry.
func NewPoint(lat, lon float64) Geometry {
	return Geometry{Type: GeometryPoint, Point: Point{Lat: lat, Lon: lon}}
}

// NewLine builds a line geometry from an ordered coordinate sequence.
func NewLine(pts []Point) Geometry {
	return Geometry{Type: GeometryLine, Line: pts}
}

// NewPolygon builds a polygon geometry from ordered coordinate rings.
func NewPolygon(rings [][]Point) Geometry {
	return Geometry{Type: GeometryPolygon, Rings: rings}
}

// IsClosedRing reports whether pts starts and ends on the same coordinate
// and has enough points to enclose an area.
func IsClosedRing(pts []Point) bool {
	if len(pts) < 4 {
		return false
	}
	return pts[0] == pts[len(pts)-1]
}

// Coordinates returns the canonical nested-coordinate-sequence form of the
// geometry: a [lon, lat] pair for points, a sequence of pairs for lines and
// a sequence of rings for polygons. The result contains only slices and
// float64 values, independent of this package's types.
func (g Geometry) Coordinates() any {
	switch g.Type {
	case GeometryPoint:
		return pair(g.Point)
	case GeometryLine:
		return sequence(g.Line)
	case GeometryPolygon:
		rings := make([]any, len(g.Rings))
		for i, ring := range g.Rings {
			rings[i] = sequence(ring)
		}
		return rings
	default:
		return nil
	}
}

func pair(p Point) []any {
	return []any{p.Lon, p.Lat}
}

func sequence(pts []Point) []any {
	out := make([]any, len(pts))
	for i, p := range pts {
		out[i] = pair(p)
	}
	return out
}
