package config

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/atlascope/atlascope/pkg/limiter"
	"github.com/atlascope/atlascope/pkg/otel"
	"github.com/atlascope/atlascope/pkg/table"
	"github.com/atlascope/atlascope/pkg/table/csv"
	"github.com/atlascope/atlascope/pkg/table/multi"
	"github.com/atlascope/atlascope/pkg/table/parquet"

	"golang.org/x/time/rate"
)

func (cfg *Config) RegisterTable(id string, p table.Provider) {
	if cfg.tables == nil {
		cfg.tables = make(map[string]table.Provider)
	}

	if _, ok := cfg.tables[""]; !ok {
		cfg.tables[""] = p
	}

	cfg.tables[id] = p
}

func (cfg *Config) Table(id string) (table.Provider, error) {
	if cfg.tables != nil {
		if p, ok := cfg.tables[id]; ok {
			return p, nil
		}
	}

	return nil, errors.New("table reader not found: " + id)
}

// ReadFeatures reads a feature table. When props is set, its columns are
// joined onto the rows of meta.
func (cfg *Config) ReadFeatures(ctx context.Context, meta table.Input, props *table.Input) (*table.Table, error) {
	p, err := cfg.Table("")

	if err != nil {
		return nil, err
	}

	result, err := p.Read(ctx, meta)

	if err != nil {
		return nil, err
	}

	if props == nil {
		return result, nil
	}

	extra, err := p.Read(ctx, *props)

	if err != nil {
		return nil, err
	}

	return csv.Merge(result, extra), nil
}

type tableConfig struct {
	Type string `yaml:"type"`

	Limit *int `yaml:"limit"`

	BatchSize int    `yaml:"batch_size"`
	Comma     string `yaml:"comma"`
}

type tableContext struct {
	Limiter *rate.Limiter
}

var defaultTables = []struct {
	id     string
	config tableConfig
}{
	{"parquet", tableConfig{Type: "parquet"}},
	{"csv", tableConfig{Type: "csv"}},
}

func (cfg *Config) registerTables(f *configFile) error {
	var ids []string
	var configs map[string]tableConfig

	if f.Tables.IsZero() {
		configs = map[string]tableConfig{}

		for _, t := range defaultTables {
			ids = append(ids, t.id)
			configs[t.id] = t.config
		}
	} else {
		if err := f.Tables.Decode(&configs); err != nil {
			return err
		}

		// mapping keys and values alternate in Content
		for i := 0; i < len(f.Tables.Content); i += 2 {
			ids = append(ids, f.Tables.Content[i].Value)
		}
	}

	var providers []table.Provider

	for _, id := range ids {
		config, ok := configs[id]

		if !ok {
			continue
		}

		context := tableContext{
			Limiter: createLimiter(config.Limit),
		}

		p, err := cfg.createTable(config)

		if err != nil {
			return err
		}

		if _, ok := p.(limiter.TableProvider); !ok {
			p = limiter.NewTableProvider(context.Limiter, p)
		}

		if _, ok := p.(otel.TableProvider); !ok {
			p = otel.NewTableProvider(id, p)
		}

		providers = append(providers, p)
	}

	cfg.tables = nil
	cfg.RegisterTable("", multi.New(providers...))

	for i, id := range ids {
		if i < len(providers) {
			cfg.RegisterTable(id, providers[i])
		}
	}

	return nil
}

func (cfg *Config) createTable(c tableConfig) (table.Provider, error) {
	switch strings.ToLower(c.Type) {
	case "parquet":
		return parquetTable(c, cfg)

	case "csv":
		return csvTable(c, cfg)

	default:
		return nil, errors.New("invalid table type: " + c.Type)
	}
}

func parquetTable(c tableConfig, cfg *Config) (table.Provider, error) {
	var options []parquet.Option

	options = append(options, parquet.WithClient(cfg.HTTPClient()))

	if c.BatchSize != 0 {
		options = append(options, parquet.WithBatchSize(c.BatchSize))
	}

	return parquet.New(options...)
}

func csvTable(c tableConfig, cfg *Config) (table.Provider, error) {
	var options []csv.Option

	options = append(options, csv.WithClient(cfg.HTTPClient()))

	if c.Comma != "" {
		r, size := utf8.DecodeRuneInString(c.Comma)

		if size != len(c.Comma) || r == utf8.RuneError {
			return nil, errors.New("invalid csv comma: " + c.Comma)
		}

		options = append(options, csv.WithComma(r))
	}

	return csv.New(options...)
}
