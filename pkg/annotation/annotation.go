package annotation

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/atlascope/atlascope/pkg/colors"
	"github.com/atlascope/atlascope/pkg/overlay"
)

const (
	DefaultName        = "TCGA Nuclei"
	DefaultDescription = "Interpreted from feature vectors"
)

// Annotation is a large_image annotation document.
// https://girder.github.io/large_image/annotations.html
type Annotation struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Display Display `json:"display"`

	Elements []Element `json:"elements"`
}

type Display struct {
	Visible bool `json:"visible"`
}

type ElementType string

const (
	ElementEllipse  ElementType = "ellipse"
	ElementPolyline ElementType = "polyline"
)

type Element struct {
	Type ElementType `json:"type"`

	LineColor string  `json:"lineColor,omitempty"`
	LineWidth float64 `json:"lineWidth,omitempty"`
	FillColor string  `json:"fillColor,omitempty"`

	Center   []float64 `json:"center,omitempty"`
	Width    float64   `json:"width,omitempty"`
	Height   float64   `json:"height,omitempty"`
	Rotation float64   `json:"rotation,omitempty"`

	Points [][]float64 `json:"points,omitempty"`
	Closed bool        `json:"closed,omitempty"`

	User map[string]any `json:"user,omitempty"`
}

type Options struct {
	Name        string
	Description string
}

// FromShapes converts overlay shapes into annotation elements. Invalid style
// colors are omitted so the server falls back to its defaults.
func FromShapes(shapes []overlay.Shape, options *Options) *Annotation {
	if options == nil {
		options = new(Options)
	}

	a := &Annotation{
		Name:        options.Name,
		Description: options.Description,

		Display: Display{
			Visible: true,
		},

		Elements: []Element{},
	}

	if a.Name == "" {
		a.Name = DefaultName
		a.Description = DefaultDescription
	}

	for _, s := range shapes {
		var e Element

		switch {
		case s.Marker != nil:
			e = Element{
				Type: ElementEllipse,

				Center:   []float64{s.Marker.Center.X, s.Marker.Center.Y, 0},
				Width:    s.Marker.Width,
				Height:   s.Marker.Height,
				Rotation: s.Marker.Angle(),
			}

			if s.Feature != nil {
				e.User = map[string]any{
					"id": s.Feature.ID,
				}

				for k, v := range s.Feature.Values {
					e.User[k] = v
				}
			}

		case s.Polygon != nil:
			e = Element{
				Type: ElementPolyline,

				Closed: s.Polygon.Closed,
			}

			for _, p := range s.Polygon.Points {
				e.Points = append(e.Points, []float64{p.X, p.Y, 0})
			}

		default:
			continue
		}

		e.LineWidth = s.Style.StrokeWidth
		e.LineColor = color(s.Style.StrokeColor)

		if s.Style.FillOpacity > 0 {
			e.FillColor = fill(s.Style.FillColor, s.Style.FillOpacity)
		}

		a.Elements = append(a.Elements, e)
	}

	return a
}

func (a *Annotation) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(a)
}

func color(hex string) string {
	c, ok := colors.HexToRGB(hex)

	if !ok {
		return ""
	}

	return colors.RGBToHex(c)
}

func fill(hex string, opacity float64) string {
	c, ok := colors.HexToRGB(hex)

	if !ok {
		return ""
	}

	r, g, b := c.Bytes()
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", r, g, b, min(max(opacity, 0), 1))
}
