package overlay

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/atlascope/atlascope/pkg/feature"
	"github.com/atlascope/atlascope/pkg/points"
)

type Mode string

const (
	ModeEllipse Mode = "ellipse"
	ModeBox     Mode = "box"
)

var ErrUnknownMode = errors.New("unknown overlay mode")

// ParseMode accepts "ellipse" or "box" in any case. Empty input selects ellipse.
func ParseMode(val string) (Mode, error) {
	switch Mode(strings.ToLower(val)) {
	case "", ModeEllipse:
		return ModeEllipse, nil
	case ModeBox:
		return ModeBox, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMode, val)
}

type Kind string

const (
	KindMarker  Kind = "marker"
	KindPolygon Kind = "polygon"

	// KindRegion is the outline of a region of interest. It carries a Polygon
	// but does not represent a detected object.
	KindRegion Kind = "region"
)

type Point = points.Point

type Style struct {
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`

	FillColor   string  `json:"fillColor,omitempty"`
	FillOpacity float64 `json:"fillOpacity"`
}

var (
	DefaultStyle = Style{
		StrokeColor: "#00FF00",
		StrokeWidth: 2,
	}

	DefaultRegionStyle = Style{
		StrokeColor: "#FF0000",
		StrokeWidth: 2,
	}
)

// Shape is a renderable primitive in whole-slide pixel coordinates.
// Exactly one of Marker or Polygon is set, as indicated by Kind.
type Shape struct {
	Kind   Kind   `json:"kind"`
	Region string `json:"region,omitempty"`

	Marker  *Marker  `json:"marker,omitempty"`
	Polygon *Polygon `json:"polygon,omitempty"`

	Style Style `json:"style"`

	Feature *feature.Record `json:"feature,omitempty"`
}

// Marker is an oriented ellipse symbol.
type Marker struct {
	Center Point `json:"center"`

	Radius      float64 `json:"radius"`
	SymbolValue float64 `json:"symbolValue"`
	Rotation    float64 `json:"rotation"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Angle returns the rotation that aligns the major axis with Height, for
// renderers that draw a Width x Height ellipse.
func (m *Marker) Angle() float64 {
	if m.Width <= m.Height {
		return m.Rotation + math.Pi/2
	}

	return m.Rotation
}

// Polygon is a closed outline with corners in clockwise order.
type Polygon struct {
	Points []Point `json:"points"`
	Closed bool    `json:"closed"`
}

// Centroids returns the marker centers and polygon midpoints of shapes.
// Region outlines are skipped.
func Centroids(shapes []Shape) []Point {
	result := make([]Point, 0, len(shapes))

	for _, s := range shapes {
		switch {
		case s.Kind == KindRegion:
			continue

		case s.Marker != nil:
			result = append(result, s.Marker.Center)

		case s.Polygon != nil && len(s.Polygon.Points) > 0:
			var c Point

			for _, p := range s.Polygon.Points {
				c.X += p.X
				c.Y += p.Y
			}

			n := float64(len(s.Polygon.Points))

			result = append(result, Point{X: c.X / n, Y: c.Y / n})
		}
	}

	return result
}

func boxPolygon(b feature.Box) *Polygon {
	return &Polygon{
		Points: []Point{
			{X: b.Xmin, Y: b.Ymin},
			{X: b.Xmin, Y: b.Ymax},
			{X: b.Xmax, Y: b.Ymax},
			{X: b.Xmax, Y: b.Ymin},
		},
		Closed: true,
	}
}
