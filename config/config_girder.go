package config

import (
	"errors"
	"net/http"

	"github.com/atlascope/atlascope/pkg/girder"
	"github.com/atlascope/atlascope/pkg/limiter"
	"github.com/atlascope/atlascope/pkg/otel"

	"golang.org/x/time/rate"
)

type girderConfig struct {
	URL string `yaml:"url"`

	Limit *int `yaml:"limit"`

	PageSize    int `yaml:"page_size"`
	CacheSize   int `yaml:"cache_size"`
	Concurrency int `yaml:"concurrency"`

	client *girder.Client
	http   *http.Client
}

func (cfg *Config) registerGirder(f *configFile) error {
	if f.Girder == nil || f.Girder.URL == "" {
		return nil
	}

	c := *f.Girder
	c.http = newHTTPClient(createLimiter(c.Limit))

	client, err := createGirder(c)

	if err != nil {
		return err
	}

	c.client = client
	cfg.girder = &c

	return nil
}

// Girder returns the asset API client, if one is configured.
func (cfg *Config) Girder() (*girder.Client, error) {
	if cfg.girder == nil || cfg.girder.client == nil {
		return nil, errors.New("girder not configured")
	}

	return cfg.girder.client, nil
}

// HTTPClient returns the client used for file downloads, sharing the Girder
// rate limit when one is configured.
func (cfg *Config) HTTPClient() *http.Client {
	if cfg.girder != nil && cfg.girder.http != nil {
		return cfg.girder.http
	}

	return newHTTPClient(nil)
}

func createGirder(cfg girderConfig) (*girder.Client, error) {
	options := []girder.Option{
		girder.WithClient(cfg.http),
	}

	if cfg.PageSize != 0 {
		options = append(options, girder.WithPageSize(cfg.PageSize))
	}

	if cfg.CacheSize != 0 {
		options = append(options, girder.WithCache(cfg.CacheSize))
	}

	if cfg.Concurrency != 0 {
		options = append(options, girder.WithConcurrency(cfg.Concurrency))
	}

	return girder.New(cfg.URL, options...)
}

func newHTTPClient(l *rate.Limiter) *http.Client {
	return &http.Client{
		Transport: otel.NewTransport(limiter.NewTransport(l, nil)),
	}
}
