package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/atlascope/atlascope/pkg/roi"
)

var (
	ErrMissingColumn      = errors.New("missing column")
	ErrInvalidValue       = errors.New("invalid value")
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// DefaultScale compensates for analysis performed at half native resolution.
const DefaultScale = 2.0

// Row is one detected object keyed by column name.
type Row map[string]any

// Record is a decoded object in whole-slide pixel coordinates.
type Record struct {
	ID int `json:"id"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Radius float64 `json:"radius"`

	Rotation    float64 `json:"rotation"`
	AspectRatio float64 `json:"aspectRatio"`

	Major       float64 `json:"major"`
	Minor       float64 `json:"minor"`
	Orientation float64 `json:"orientation"`

	Values Row `json:"values,omitempty"`
}

// Validate reports ErrDegenerateGeometry for non-positive extents and
// non-finite position, extent or rotation.
func (r *Record) Validate() error {
	if !finite(r.X, r.Y, r.Width, r.Height, r.Rotation) {
		return fmt.Errorf("%w: object %d x=%g y=%g width=%g height=%g rotation=%g", ErrDegenerateGeometry, r.ID, r.X, r.Y, r.Width, r.Height, r.Rotation)
	}

	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: object %d width=%g height=%g", ErrDegenerateGeometry, r.ID, r.Width, r.Height)
	}

	return nil
}

// Validate reports ErrDegenerateGeometry for empty, inverted or non-finite boxes.
func (b Box) Validate() error {
	if !finite(b.Xmin, b.Xmax, b.Ymin, b.Ymax) || b.Xmax <= b.Xmin || b.Ymax <= b.Ymin {
		return fmt.Errorf("%w: box %v", ErrDegenerateGeometry, b)
	}

	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// Box is an axis-aligned object extent in whole-slide pixel coordinates.
type Box struct {
	Xmin float64 `json:"xmin"`
	Xmax float64 `json:"xmax"`
	Ymin float64 `json:"ymin"`
	Ymax float64 `json:"ymax"`
}

type Decoder struct {
	schema *Schema

	scale   float64
	payload bool
}

type Option func(*Decoder)

// WithScale sets the factor applied to local coordinates before the region offset.
func WithScale(scale float64) Option {
	return func(d *Decoder) {
		d.scale = scale
	}
}

// WithoutPayload drops the original row values from decoded records.
func WithoutPayload() Option {
	return func(d *Decoder) {
		d.payload = false
	}
}

func NewDecoder(schema *Schema, options ...Option) *Decoder {
	d := &Decoder{
		schema: schema,

		scale:   DefaultScale,
		payload: true,
	}

	for _, option := range options {
		option(d)
	}

	if d.scale == 0 {
		d.scale = DefaultScale
	}

	return d
}

func (d *Decoder) Schema() *Schema {
	return d.schema
}

func (d *Decoder) Decode(id int, values []any, region roi.Region) (*Record, error) {
	s := d.schema

	cx, err := s.Float(values, FieldCentroidX)

	if err != nil {
		return nil, err
	}

	cy, err := s.Float(values, FieldCentroidY)

	if err != nil {
		return nil, err
	}

	major, err := s.Float(values, FieldMajorAxisLength)

	if err != nil {
		return nil, err
	}

	minor, err := s.Float(values, FieldMinorAxisLength)

	if err != nil {
		return nil, err
	}

	orientation, err := s.Float(values, FieldOrientation)

	if err != nil {
		return nil, err
	}

	width := minor * d.scale
	height := major * d.scale

	rotation := -orientation

	if width <= height {
		rotation += math.Pi / 2
	}

	r := &Record{
		ID: id,

		X: cx*d.scale + float64(region.Left),
		Y: cy*d.scale + float64(region.Top),

		Width:  width,
		Height: height,
		Radius: math.Max(width, height),

		Rotation:    rotation,
		AspectRatio: math.Min(width, height) / math.Max(width, height),

		Major:       major,
		Minor:       minor,
		Orientation: orientation,
	}

	if d.payload {
		r.Values = make(Row, len(s.columns))

		for i, c := range s.columns {
			if i < len(values) {
				r.Values[c] = payloadValue(values[i])
			}
		}
	}

	return r, nil
}

func (d *Decoder) DecodeBox(values []any, region roi.Region) (Box, error) {
	var local [4]float64

	for i, f := range BoxFields {
		val, err := d.schema.Float(values, f)

		if err != nil {
			return Box{}, err
		}

		local[i] = val
	}

	left := float64(region.Left)
	top := float64(region.Top)

	return Box{
		Xmin: local[0]*d.scale + left,
		Xmax: local[1]*d.scale + left,
		Ymin: local[2]*d.scale + top,
		Ymax: local[3]*d.scale + top,
	}, nil
}

// DecodeRow decodes a single flat row, parsing its region column with parser.
func DecodeRow(row Row, aliases Aliases, parser roi.Parser, options ...Option) (*Record, error) {
	columns := make([]string, 0, len(row))

	for c := range row {
		columns = append(columns, c)
	}

	slices.Sort(columns)

	values := make([]any, len(columns))

	for i, c := range columns {
		values[i] = row[c]
	}

	schema, err := aliases.Resolve(columns, EllipseFields...)

	if err != nil {
		return nil, err
	}

	var region roi.Region

	if schema.Has(FieldRegion) {
		name, err := schema.String(values, FieldRegion)

		if err != nil {
			return nil, err
		}

		if region, err = parser.Parse(name); err != nil {
			return nil, err
		}
	}

	return NewDecoder(schema, options...).Decode(0, values, region)
}

// payloadValue replaces non-finite floats with nil so records stay JSON encodable.
func payloadValue(val any) any {
	switch v := val.(type) {
	case float64:
		if !finite(v) {
			return nil
		}
	case float32:
		if !finite(float64(v)) {
			return nil
		}
	}

	return val
}

func toFloat(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()

		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, v.String())
		}

		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, v)
		}

		return f, nil
	case nil:
		return 0, fmt.Errorf("%w: null", ErrInvalidValue)
	}

	return 0, fmt.Errorf("%w: %T", ErrInvalidValue, val)
}
