// Package sanitize normalizes arbitrary nested values into JSON-safe trees.
//
// Overpass responses carry free-form tag values and geometry coordinates of
// unpredictable origin. JSON cannot represent NaN or infinite floats, so every
// value crossing the output boundary is routed through Sanitize exactly once.
package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/SvenST89/osint-mcp-experiment/pkg/geo"
)

// Sanitize recursively converts v into a JSON-safe equivalent:
//
//   - mappings keep their keys with each value sanitized
//   - ordered sequences keep their length with each element sanitized
//   - finite numbers become int64 or float64; non-finite or unrepresentable
//     numbers become nil
//   - geometries become their canonical nested-coordinate form
//   - strings, booleans and nil pass through unchanged
//
// Sanitize is pure and idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case bool:
		return val
	case geo.Geometry:
		return sanitizeGeometry(val)
	case *geo.Geometry:
		if val == nil {
			return nil
		}
		return sanitizeGeometry(*val)
	case float64:
		return finiteFloat(val)
	case float32:
		return finiteFloat(float64(val))
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return uintValue(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return uintValue(val)
	case json.Number:
		return sanitizeNumber(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Sanitize(elem)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = elem
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Sanitize(elem)
		}
		return out
	default:
		return sanitizeReflect(v)
	}
}

func sanitizeGeometry(g geo.Geometry) any {
	return map[string]any{
		"type":        string(g.Type),
		"coordinates": Sanitize(g.Coordinates()),
	}
}

func finiteFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// uintValue keeps unsigned integers that fit a portable signed integer and
// nulls out the rest.
func uintValue(u uint64) any {
	if u > math.MaxInt64 {
		return nil
	}
	return int64(u)
}

func sanitizeNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
		return finiteFloat(f)
	}
	return nil
}

// sanitizeReflect covers mapping, sequence and numeric shapes that do not
// match the concrete types above, such as []float64 or map[string]int.
func sanitizeReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Sanitize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			out[keyString(key)] = Sanitize(rv.MapIndex(key).Interface())
		}
		return out
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return finiteFloat(rv.Float())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Sanitize(rv.Elem().Interface())
	default:
		return v
	}
}

func keyString(key reflect.Value) string {
	if key.Kind() == reflect.String {
		return key.String()
	}
	return fmt.Sprint(key.Interface())
}
