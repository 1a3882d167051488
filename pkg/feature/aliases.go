package feature

import (
	"fmt"
	"slices"
)

type Field int

const (
	FieldCentroidX Field = iota
	FieldCentroidY
	FieldMajorAxisLength
	FieldMinorAxisLength
	FieldOrientation

	FieldXmin
	FieldXmax
	FieldYmin
	FieldYmax

	FieldRegion

	fieldCount
)

var fieldNames = [fieldCount]string{
	"CentroidX",
	"CentroidY",
	"MajorAxisLength",
	"MinorAxisLength",
	"Orientation",
	"Xmin",
	"Xmax",
	"Ymin",
	"Ymax",
	"Region",
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("Field(%d)", int(f))
	}

	return fieldNames[f]
}

var (
	EllipseFields = []Field{FieldCentroidX, FieldCentroidY, FieldMajorAxisLength, FieldMinorAxisLength, FieldOrientation}
	BoxFields     = []Field{FieldXmin, FieldXmax, FieldYmin, FieldYmax}
)

// Aliases maps logical fields to the column names of one schema variant.
type Aliases struct {
	CentroidX       string `yaml:"centroid_x" json:"centroidX"`
	CentroidY       string `yaml:"centroid_y" json:"centroidY"`
	MajorAxisLength string `yaml:"major_axis_length" json:"majorAxisLength"`
	MinorAxisLength string `yaml:"minor_axis_length" json:"minorAxisLength"`
	Orientation     string `yaml:"orientation" json:"orientation"`

	Xmin string `yaml:"xmin" json:"xmin"`
	Xmax string `yaml:"xmax" json:"xmax"`
	Ymin string `yaml:"ymin" json:"ymin"`
	Ymax string `yaml:"ymax" json:"ymax"`

	Region string `yaml:"region" json:"region"`
}

var UnconstrainedAliases = Aliases{
	CentroidX:       "Unconstrained.Identifier.CentroidX",
	CentroidY:       "Unconstrained.Identifier.CentroidY",
	MajorAxisLength: "Size.MajorAxisLength",
	MinorAxisLength: "Size.MinorAxisLength",
	Orientation:     "Orientation.Orientation",

	Xmin: "Unconstrained.Identifier.Xmin",
	Xmax: "Unconstrained.Identifier.Xmax",
	Ymin: "Unconstrained.Identifier.Ymin",
	Ymax: "Unconstrained.Identifier.Ymax",

	Region: "roiname",
}

var IdentifierAliases = Aliases{
	CentroidX:       "Identifier.CentroidX",
	CentroidY:       "Identifier.CentroidY",
	MajorAxisLength: "Size.MajorAxisLength",
	MinorAxisLength: "Size.MinorAxisLength",
	Orientation:     "Orientation.Orientation",

	Xmin: "Identifier.Xmin",
	Xmax: "Identifier.Xmax",
	Ymin: "Identifier.Ymin",
	Ymax: "Identifier.Ymax",

	Region: "roiname",
}

func (a Aliases) Column(f Field) string {
	switch f {
	case FieldCentroidX:
		return a.CentroidX
	case FieldCentroidY:
		return a.CentroidY
	case FieldMajorAxisLength:
		return a.MajorAxisLength
	case FieldMinorAxisLength:
		return a.MinorAxisLength
	case FieldOrientation:
		return a.Orientation
	case FieldXmin:
		return a.Xmin
	case FieldXmax:
		return a.Xmax
	case FieldYmin:
		return a.Ymin
	case FieldYmax:
		return a.Ymax
	case FieldRegion:
		return a.Region
	}

	return ""
}

// Merge fills empty entries of a from fallback.
func (a Aliases) Merge(fallback Aliases) Aliases {
	pick := func(val, def string) string {
		if val != "" {
			return val
		}

		return def
	}

	return Aliases{
		CentroidX:       pick(a.CentroidX, fallback.CentroidX),
		CentroidY:       pick(a.CentroidY, fallback.CentroidY),
		MajorAxisLength: pick(a.MajorAxisLength, fallback.MajorAxisLength),
		MinorAxisLength: pick(a.MinorAxisLength, fallback.MinorAxisLength),
		Orientation:     pick(a.Orientation, fallback.Orientation),

		Xmin: pick(a.Xmin, fallback.Xmin),
		Xmax: pick(a.Xmax, fallback.Xmax),
		Ymin: pick(a.Ymin, fallback.Ymin),
		Ymax: pick(a.Ymax, fallback.Ymax),

		Region: pick(a.Region, fallback.Region),
	}
}

// DetectAliases returns the preset whose centroid columns appear in columns.
func DetectAliases(columns []string) (Aliases, bool) {
	for _, a := range []Aliases{UnconstrainedAliases, IdentifierAliases} {
		if slices.Contains(columns, a.CentroidX) && slices.Contains(columns, a.CentroidY) {
			return a, true
		}
	}

	return Aliases{}, false
}

// Schema holds column indexes resolved once per batch.
type Schema struct {
	columns []string
	index   [fieldCount]int
}

// Resolve looks up the columns of the requested fields. Fields not requested
// are resolved opportunistically and stay unavailable when absent.
func (a Aliases) Resolve(columns []string, fields ...Field) (*Schema, error) {
	s := &Schema{
		columns: columns,
	}

	for f := range fieldCount {
		s.index[f] = -1

		if name := a.Column(f); name != "" {
			s.index[f] = slices.Index(columns, name)
		}
	}

	for _, f := range fields {
		if s.index[f] < 0 {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingColumn, a.Column(f), f)
		}
	}

	return s, nil
}

func (s *Schema) Columns() []string {
	return s.columns
}

func (s *Schema) Has(f Field) bool {
	return s.index[f] >= 0
}

func (s *Schema) Index(f Field) int {
	return s.index[f]
}

func (s *Schema) Value(values []any, f Field) (any, error) {
	idx := s.index[f]

	if idx < 0 || idx >= len(values) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
	}

	return values[idx], nil
}

func (s *Schema) Float(values []any, f Field) (float64, error) {
	val, err := s.Value(values, f)

	if err != nil {
		return 0, err
	}

	result, err := toFloat(val)

	if err != nil {
		return 0, fmt.Errorf("%s: %w", f, err)
	}

	return result, nil
}

func (s *Schema) String(values []any, f Field) (string, error) {
	val, err := s.Value(values, f)

	if err != nil {
		return "", err
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	return "", fmt.Errorf("%w: %s is %T", ErrInvalidValue, f, val)
}
