// Package config holds build metadata and the CLI defaults file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Set at build time by `dev build`.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	AdapterGeneric = "generic"
	AdapterMCP2221 = "mcp2221"
	AdapterNanoPi  = "nanopi"
	AdapterSim     = "sim"
)

const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Config is the content of the defaults file. Command line flags take
// precedence over every field.
type Config struct {
	// Adapter is one of generic, mcp2221, nanopi or sim.
	Adapter string `yaml:"adapter"`
	// Device is the host bus name for the generic adapter, e.g. /dev/i2c-1.
	Device string `yaml:"device"`
	// Bus is the board bus number for the nanopi adapter; -1 picks the default.
	Bus int `yaml:"bus"`
	// Order is the register byte order: native, big or little.
	Order  string `yaml:"order"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Adapter: AdapterMCP2221,
		Device:  "/dev/i2c-1",
		Bus:     -1,
		Order:   "native",
		Format:  FormatText,
	}
}

// Load reads the defaults file at path over Default. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterGeneric, AdapterMCP2221, AdapterNanoPi, AdapterSim:
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	switch c.Format {
	case FormatText, FormatYAML, FormatJSON:
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	return nil
}

// BuildInfo renders the injected build metadata.
func BuildInfo() string {
	return fmt.Sprintf("%s-%s-%s", Version, Date, Commit)
}
