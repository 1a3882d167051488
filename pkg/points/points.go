package points

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownMethod = errors.New("unknown normalization method")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Method string

const (
	// MethodLiteral divides by the distance from each point to the maximum:
	// x' = (x - xMin) / (xMax - x). Kept for parity with existing overlays.
	MethodLiteral Method = "literal"

	// MethodMinMax is conventional min-max scaling into [0, 1].
	MethodMinMax Method = "minmax"
)

func ParseMethod(val string) (Method, error) {
	switch Method(val) {
	case "", MethodLiteral:
		return MethodLiteral, nil
	case MethodMinMax:
		return MethodMinMax, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, val)
}

type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func (r Rect) Dx() float64 {
	return r.Max.X - r.Min.X
}

func (r Rect) Dy() float64 {
	return r.Max.Y - r.Min.Y
}

// Bounds returns the per-axis extent of points. NaN coordinates are ignored.
func Bounds(points []Point) (Rect, bool) {
	r := Rect{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}

	found := false

	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}

		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)

		found = true
	}

	if !found {
		return Rect{}, false
	}

	return r, true
}

// Normalize rescales points per axis using the batch minimum and maximum.
// A zero denominator yields NaN for that coordinate.
func Normalize(points []Point, method Method) []Point {
	result := make([]Point, len(points))

	bounds, ok := Bounds(points)

	if !ok {
		for i := range result {
			result[i] = Point{X: math.NaN(), Y: math.NaN()}
		}

		return result
	}

	for i, p := range points {
		switch method {
		case MethodMinMax:
			result[i] = Point{
				X: divide(p.X-bounds.Min.X, bounds.Max.X-bounds.Min.X),
				Y: divide(p.Y-bounds.Min.Y, bounds.Max.Y-bounds.Min.Y),
			}

		default:
			result[i] = Point{
				X: divide(p.X-bounds.Min.X, bounds.Max.X-p.X),
				Y: divide(p.Y-bounds.Min.Y, bounds.Max.Y-p.Y),
			}
		}
	}

	return result
}

func divide(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}

	return a / b
}
