package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atlascope/atlascope/pkg/colors"
	"github.com/atlascope/atlascope/pkg/feature"
	"github.com/atlascope/atlascope/pkg/overlay"
	"github.com/atlascope/atlascope/pkg/points"
	"github.com/atlascope/atlascope/pkg/roi"
	"github.com/atlascope/atlascope/pkg/table"
)

type schemaConfig struct {
	Variant string `yaml:"variant"`

	Aliases *feature.Aliases `yaml:"aliases"`

	RegionSkip *int     `yaml:"region_skip"`
	Scale      *float64 `yaml:"scale"`
}

type schemaSettings struct {
	detect  bool
	aliases feature.Aliases

	parser roi.Parser
	scale  float64
}

func (cfg *Config) registerSchema(f *configFile) error {
	s := schemaSettings{
		aliases: feature.UnconstrainedAliases,
		scale:   feature.DefaultScale,
	}

	c := f.Schema

	if c == nil {
		c = &schemaConfig{}
	}

	switch strings.ToLower(c.Variant) {
	case "", "unconstrained":
		s.aliases = feature.UnconstrainedAliases

	case "identifier":
		s.aliases = feature.IdentifierAliases

	case "auto":
		s.detect = true
		s.aliases = feature.Aliases{}

	default:
		return errors.New("invalid schema variant: " + c.Variant)
	}

	if c.Aliases != nil {
		s.aliases = c.Aliases.Merge(s.aliases)
	}

	if c.RegionSkip != nil {
		if *c.RegionSkip < 0 {
			return errors.New("invalid region skip")
		}

		s.parser.Skip = *c.RegionSkip
	}

	if c.Scale != nil {
		if *c.Scale <= 0 {
			return errors.New("invalid scale")
		}

		s.scale = *c.Scale
	}

	cfg.schema = s
	return nil
}

type overlayConfig struct {
	Mode string `yaml:"mode"`

	RadiusScale *float64 `yaml:"radius_scale"`

	Color     string   `yaml:"color"`
	LineWidth *float64 `yaml:"line_width"`

	FillColor   string  `yaml:"fill_color"`
	FillOpacity float64 `yaml:"fill_opacity"`

	RegionColor string `yaml:"region_color"`

	Payload    *bool `yaml:"payload"`
	SkipErrors bool  `yaml:"skip_errors"`
}

type overlaySettings struct {
	mode overlay.Mode

	radiusScale float64

	style       overlay.Style
	regionStyle *overlay.Style

	payload    bool
	skipErrors bool
}

func (cfg *Config) registerOverlay(f *configFile) error {
	s := overlaySettings{
		mode: overlay.ModeEllipse,

		radiusScale: overlay.DefaultRadiusScale,

		style:   overlay.DefaultStyle,
		payload: true,
	}

	c := f.Overlay

	if c == nil {
		c = &overlayConfig{}
	}

	if c.Mode != "" {
		mode, err := overlay.ParseMode(c.Mode)

		if err != nil {
			return err
		}

		s.mode = mode
	}

	if c.RadiusScale != nil {
		if *c.RadiusScale <= 0 {
			return errors.New("invalid radius scale")
		}

		s.radiusScale = *c.RadiusScale
	}

	if c.Color != "" {
		if !colors.Valid(c.Color) {
			return fmt.Errorf("invalid overlay color: %q", c.Color)
		}

		s.style.StrokeColor = c.Color
	}

	if c.LineWidth != nil {
		s.style.StrokeWidth = *c.LineWidth
	}

	if c.FillColor != "" {
		if !colors.Valid(c.FillColor) {
			return fmt.Errorf("invalid fill color: %q", c.FillColor)
		}

		s.style.FillColor = c.FillColor
		s.style.FillOpacity = c.FillOpacity
	}

	if c.RegionColor != "" {
		if !colors.Valid(c.RegionColor) {
			return fmt.Errorf("invalid region color: %q", c.RegionColor)
		}

		style := overlay.DefaultRegionStyle
		style.StrokeColor = c.RegionColor

		s.regionStyle = &style
	}

	if c.Payload != nil {
		s.payload = *c.Payload
	}

	s.skipErrors = c.SkipErrors

	cfg.overlay = s
	return nil
}

func (cfg *Config) Mode() overlay.Mode {
	return cfg.overlay.mode
}

// Builder returns an overlay builder for mode. An empty mode selects the
// configured default. With schema variant "auto", the column aliases are
// detected from t.
func (cfg *Config) Builder(mode overlay.Mode, t *table.Table) (*overlay.Builder, error) {
	if mode == "" {
		mode = cfg.overlay.mode
	}

	aliases := cfg.schema.aliases

	if cfg.schema.detect {
		if t == nil {
			return nil, errors.New("schema detection requires a table")
		}

		detected, ok := feature.DetectAliases(t.Columns)

		if !ok {
			return nil, fmt.Errorf("%w: no known centroid columns", feature.ErrMissingColumn)
		}

		aliases = cfg.schema.aliases.Merge(detected)
	}

	options := []overlay.Option{
		overlay.WithMode(mode),
		overlay.WithAliases(aliases),
		overlay.WithParser(cfg.schema.parser),
		overlay.WithScale(cfg.schema.scale),
		overlay.WithRadiusScale(cfg.overlay.radiusScale),
		overlay.WithStyle(cfg.overlay.style),
		overlay.WithPayload(cfg.overlay.payload),
	}

	if cfg.overlay.regionStyle != nil {
		options = append(options, overlay.WithRegionOutline(*cfg.overlay.regionStyle))
	}

	if cfg.overlay.skipErrors {
		options = append(options, overlay.WithErrorHandler(overlay.SkipErrors))
	}

	return overlay.New(options...), nil
}

type pointsConfig struct {
	Method string `yaml:"method"`
}

type pointsSettings struct {
	method points.Method
}

func (cfg *Config) registerPoints(f *configFile) error {
	var val string

	if f.Points != nil {
		val = f.Points.Method
	}

	method, err := points.ParseMethod(val)

	if err != nil {
		return err
	}

	cfg.points = pointsSettings{
		method: method,
	}

	return nil
}

// PointsMethod returns the configured normalization method.
func (cfg *Config) PointsMethod() points.Method {
	return cfg.points.method
}
