package render

import (
	"errors"
	"io"
	"math"

	"github.com/atlascope/atlascope/pkg/colors"
	"github.com/atlascope/atlascope/pkg/overlay"
	"github.com/atlascope/atlascope/pkg/points"

	"github.com/gogpu/gg"
)

var ErrEmpty = errors.New("nothing to render")

type Renderer struct {
	width   int
	height  int
	padding float64

	background colors.RGB
}

type Option func(*Renderer)

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

func WithPadding(padding float64) Option {
	return func(r *Renderer) {
		r.padding = padding
	}
}

func WithBackground(hex string) Option {
	return func(r *Renderer) {
		if c, ok := colors.HexToRGB(hex); ok {
			r.background = c
		}
	}
}

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		width:   1024,
		height:  1024,
		padding: 16,

		background: colors.RGB{R: 1, G: 1, B: 1},
	}

	for _, option := range options {
		option(r)
	}

	if r.width <= 0 || r.height <= 0 {
		return nil, errors.New("invalid canvas size")
	}

	if r.padding < 0 || 2*r.padding >= float64(min(r.width, r.height)) {
		return nil, errors.New("invalid padding")
	}

	return r, nil
}

// Render draws shapes scaled uniformly into the canvas and writes a PNG.
func (r *Renderer) Render(w io.Writer, shapes []overlay.Shape) error {
	bounds, ok := points.Bounds(extent(shapes))

	if !ok {
		return ErrEmpty
	}

	dc := gg.NewContext(r.width, r.height)
	defer dc.Close()

	dc.ClearWithColor(gg.RGB(r.background.R, r.background.G, r.background.B))

	t := r.fit(bounds)

	for _, s := range shapes {
		if err := r.draw(dc, t, s); err != nil {
			return err
		}
	}

	return dc.EncodePNG(w)
}

type transform struct {
	scale  float64
	origin points.Point
	offset points.Point
}

func (t transform) apply(p points.Point) (float64, float64) {
	return (p.X-t.origin.X)*t.scale + t.offset.X, (p.Y-t.origin.Y)*t.scale + t.offset.Y
}

func (r *Renderer) fit(bounds points.Rect) transform {
	w := float64(r.width) - 2*r.padding
	h := float64(r.height) - 2*r.padding

	scale := 1.0

	if dx, dy := bounds.Dx(), bounds.Dy(); dx > 0 || dy > 0 {
		scale = math.Inf(1)

		if dx > 0 {
			scale = w / dx
		}

		if dy > 0 {
			scale = math.Min(scale, h/dy)
		}
	}

	return transform{
		scale:  scale,
		origin: bounds.Min,
		offset: points.Point{
			X: r.padding + (w-bounds.Dx()*scale)/2,
			Y: r.padding + (h-bounds.Dy()*scale)/2,
		},
	}
}

func (r *Renderer) draw(dc *gg.Context, t transform, s overlay.Shape) error {
	switch {
	case s.Marker != nil:
		m := s.Marker
		x, y := t.apply(m.Center)

		dc.Push()
		defer dc.Pop()

		dc.RotateAbout(m.Angle(), x, y)
		dc.DrawEllipse(x, y, math.Max(m.Width*t.scale/2, 0.5), math.Max(m.Height*t.scale/2, 0.5))

	case s.Polygon != nil && len(s.Polygon.Points) > 1:
		for i, p := range s.Polygon.Points {
			x, y := t.apply(p)

			if i == 0 {
				dc.MoveTo(x, y)
				continue
			}

			dc.LineTo(x, y)
		}

		if s.Polygon.Closed {
			dc.ClosePath()
		}

	default:
		return nil
	}

	if c, ok := colors.HexToRGB(s.Style.FillColor); ok && s.Style.FillOpacity > 0 {
		dc.SetRGBA(c.R, c.G, c.B, s.Style.FillOpacity)

		if err := dc.FillPreserve(); err != nil {
			return err
		}
	}

	stroke, ok := colors.HexToRGB(s.Style.StrokeColor)

	if !ok {
		stroke, _ = colors.HexToRGB(overlay.DefaultStyle.StrokeColor)
	}

	dc.SetRGB(stroke.R, stroke.G, stroke.B)
	dc.SetLineWidth(math.Max(s.Style.StrokeWidth, 1))

	return dc.Stroke()
}

func extent(shapes []overlay.Shape) []points.Point {
	var result []points.Point

	for _, s := range shapes {
		switch {
		case s.Marker != nil:
			result = append(result, s.Marker.Center)
		case s.Polygon != nil:
			result = append(result, s.Polygon.Points...)
		}
	}

	return result
}
