package config

import (
	"bytes"
	"os"

	"github.com/atlascope/atlascope/pkg/table"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address string

	girder *girderConfig
	tables map[string]table.Provider

	schema  schemaSettings
	overlay overlaySettings
	points  pointsSettings
}

// Parse reads a configuration file. An empty path yields the defaults.
func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	return load(file)
}

func load(file *configFile) (*Config, error) {
	c := &Config{
		Address: ":8080",
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if err := c.registerGirder(file); err != nil {
		return nil, err
	}

	if err := c.registerTables(file); err != nil {
		return nil, err
	}

	if err := c.registerSchema(file); err != nil {
		return nil, err
	}

	if err := c.registerOverlay(file); err != nil {
		return nil, err
	}

	if err := c.registerPoints(file); err != nil {
		return nil, err
	}

	return c, nil
}

type configFile struct {
	Address string `yaml:"address"`

	Girder *girderConfig `yaml:"girder"`

	Tables yaml.Node `yaml:"tables"`

	Schema  *schemaConfig  `yaml:"schema"`
	Overlay *overlayConfig `yaml:"overlay"`
	Points  *pointsConfig  `yaml:"points"`
}

func parseFile(path string) (*configFile, error) {
	if path == "" {
		return &configFile{}, nil
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	return parseData(data)
}

func parseData(data []byte) (*configFile, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}
