package overlay

import (
	"fmt"

	"github.com/atlascope/atlascope/pkg/feature"
	"github.com/atlascope/atlascope/pkg/roi"
	"github.com/atlascope/atlascope/pkg/table"
)

// DefaultRadiusScale divides the major axis length into the marker radius.
const DefaultRadiusScale = 7.0

// Group is a batch of records sharing one region identifier.
type Group struct {
	Name   string
	Tokens []roi.Token

	Columns []string
	Records [][]any

	// IDs holds the position of each record in its source table. When
	// empty, records are numbered from zero within the group.
	IDs []int
}

func (g Group) id(i int) int {
	if i < len(g.IDs) {
		return g.IDs[i]
	}

	return i
}

type Builder struct {
	mode Mode

	aliases feature.Aliases
	parser  roi.Parser
	scale   float64

	radiusScale float64

	style       Style
	regionStyle *Style

	payload bool

	onError func(error) error
}

type Option func(*Builder)

func WithMode(mode Mode) Option {
	return func(b *Builder) {
		b.mode = mode
	}
}

func WithAliases(aliases feature.Aliases) Option {
	return func(b *Builder) {
		b.aliases = aliases
	}
}

func WithParser(parser roi.Parser) Option {
	return func(b *Builder) {
		b.parser = parser
	}
}

func WithScale(scale float64) Option {
	return func(b *Builder) {
		b.scale = scale
	}
}

func WithRadiusScale(scale float64) Option {
	return func(b *Builder) {
		b.radiusScale = scale
	}
}

func WithStyle(style Style) Option {
	return func(b *Builder) {
		b.style = style
	}
}

// WithRegionOutline adds one rectangle per group tracing its region bounds.
func WithRegionOutline(style Style) Option {
	return func(b *Builder) {
		b.regionStyle = &style
	}
}

// WithPayload attaches the decoded record, including the original row values,
// to each ellipse shape.
func WithPayload(payload bool) Option {
	return func(b *Builder) {
		b.payload = payload
	}
}

// WithErrorHandler decides what happens to a row or group that fails to decode.
// Returning nil skips it, returning an error aborts the build.
func WithErrorHandler(handler func(error) error) Option {
	return func(b *Builder) {
		b.onError = handler
	}
}

// SkipErrors is an error handler that drops every failing row or group.
func SkipErrors(error) error {
	return nil
}

func New(options ...Option) *Builder {
	b := &Builder{
		mode: ModeEllipse,

		aliases: feature.UnconstrainedAliases,
		scale:   feature.DefaultScale,

		radiusScale: DefaultRadiusScale,

		style: DefaultStyle,

		onError: func(err error) error {
			return err
		},
	}

	for _, option := range options {
		option(b)
	}

	if b.radiusScale == 0 {
		b.radiusScale = DefaultRadiusScale
	}

	return b
}

func (b *Builder) Mode() Mode {
	return b.mode
}

// GroupTable splits a flat table into groups on the region column, in order
// of first appearance.
func (b *Builder) GroupTable(t *table.Table) ([]Group, error) {
	if t.Len() == 0 {
		return nil, nil
	}

	idx := t.Index(b.aliases.Region)

	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", feature.ErrMissingColumn, b.aliases.Region)
	}

	var groups []Group
	index := map[string]int{}

	for i, r := range t.Records {
		name := ""

		if idx < len(r) {
			switch v := r[idx].(type) {
			case string:
				name = v
			case []byte:
				name = string(v)
			case nil:
			default:
				name = fmt.Sprint(v)
			}
		}

		g, ok := index[name]

		if !ok {
			g = len(groups)
			index[name] = g

			groups = append(groups, Group{
				Name:   name,
				Tokens: b.parser.Tokens(name),

				Columns: t.Columns,
			})
		}

		groups[g].Records = append(groups[g].Records, r)
		groups[g].IDs = append(groups[g].IDs, i)
	}

	return groups, nil
}

// BuildTable groups a flat table and builds its shapes.
func (b *Builder) BuildTable(t *table.Table) ([]Shape, error) {
	groups, err := b.GroupTable(t)

	if err != nil {
		return nil, err
	}

	return b.Build(groups)
}

// Build produces the shapes of all groups. Empty input yields an empty slice.
func (b *Builder) Build(groups []Group) ([]Shape, error) {
	result := []Shape{}

	for _, g := range groups {
		if len(g.Records) == 0 {
			continue
		}

		shapes, err := b.buildGroup(g)

		if err != nil {
			return nil, err
		}

		result = append(result, shapes...)
	}

	return result, nil
}

func (b *Builder) buildGroup(g Group) ([]Shape, error) {
	region, err := b.parser.Parse(g.Name)

	if err != nil {
		return nil, b.onError(fmt.Errorf("region %q: %w", g.Name, err))
	}

	fields := feature.EllipseFields

	if b.mode == ModeBox {
		fields = feature.BoxFields
	}

	schema, err := b.aliases.Resolve(g.Columns, fields...)

	if err != nil {
		return nil, b.onError(err)
	}

	options := []feature.Option{
		feature.WithScale(b.scale),
	}

	if !b.payload {
		options = append(options, feature.WithoutPayload())
	}

	decoder := feature.NewDecoder(schema, options...)

	var result []Shape

	if b.regionStyle != nil {
		if err := region.Validate(); err != nil {
			if err := b.onError(fmt.Errorf("region %q: %w", g.Name, err)); err != nil {
				return nil, err
			}
		} else {
			result = append(result, b.regionShape(g.Name, region))
		}
	}

	for i, values := range g.Records {
		var shape Shape
		var err error

		switch b.mode {
		case ModeBox:
			shape, err = b.boxShape(decoder, values, region)
		default:
			shape, err = b.ellipseShape(decoder, g.id(i), values, region)
		}

		if err != nil {
			if err := b.onError(fmt.Errorf("region %q row %d: %w", g.Name, g.id(i), err)); err != nil {
				return nil, err
			}

			continue
		}

		shape.Region = g.Name
		result = append(result, shape)
	}

	return result, nil
}

func (b *Builder) ellipseShape(d *feature.Decoder, id int, values []any, region roi.Region) (Shape, error) {
	r, err := d.Decode(id, values, region)

	if err != nil {
		return Shape{}, err
	}

	if err := r.Validate(); err != nil {
		return Shape{}, err
	}

	s := Shape{
		Kind: KindMarker,

		Marker: &Marker{
			Center: Point{X: r.X, Y: r.Y},

			Radius:      r.Major / b.radiusScale,
			SymbolValue: r.Minor / r.Major,
			Rotation:    -r.Orientation,

			Width:  r.Width,
			Height: r.Height,
		},

		Style: b.style,
	}

	if b.payload {
		s.Feature = r
	}

	return s, nil
}

func (b *Builder) boxShape(d *feature.Decoder, values []any, region roi.Region) (Shape, error) {
	box, err := d.DecodeBox(values, region)

	if err != nil {
		return Shape{}, err
	}

	if err := box.Validate(); err != nil {
		return Shape{}, err
	}

	return Shape{
		Kind:    KindPolygon,
		Polygon: boxPolygon(box),
		Style:   b.style,
	}, nil
}

func (b *Builder) regionShape(name string, region roi.Region) Shape {
	return Shape{
		Kind:   KindRegion,
		Region: name,

		Polygon: boxPolygon(feature.Box{
			Xmin: float64(region.Left),
			Xmax: float64(region.Right),
			Ymin: float64(region.Top),
			Ymax: float64(region.Bottom),
		}),

		Style: *b.regionStyle,
	}
}
