package api

import (
	"math"

	"github.com/atlascope/atlascope/pkg/girder"
	"github.com/atlascope/atlascope/pkg/overlay"
	"github.com/atlascope/atlascope/pkg/points"
)

type Item struct {
	girder.Item

	Image bool `json:"image"`
}

type File struct {
	girder.File

	URL string `json:"url"`
}

type Tiles struct {
	girder.TileInfo

	URL string `json:"url"`
}

type Overlay struct {
	Mode overlay.Mode `json:"mode"`

	Shapes []overlay.Shape `json:"shapes"`
}

type Points struct {
	Method points.Method `json:"method"`

	Points []Point `json:"points"`
}

// Point is a normalized coordinate. Undefined values are encoded as null.
type Point struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func toPoints(values []points.Point) []Point {
	result := make([]Point, 0, len(values))

	for _, p := range values {
		result = append(result, Point{
			X: finite(p.X),
			Y: finite(p.Y),
		})
	}

	return result
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}
