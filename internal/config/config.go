// Package config loads the appsreg configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "appsreg.yaml"

// Storage back ends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config is the appsreg configuration.
type Config struct {
	// Registry is the URL of the shared registry document. Empty means offline.
	Registry string `yaml:"registry"`

	// Offline skips the network even when Registry is set.
	Offline bool `yaml:"offline"`

	// Timeout bounds the network fetch, e.g. "10s".
	Timeout string `yaml:"timeout"`

	// Bundled is the bundled defaults file (.json or .js).
	Bundled string `yaml:"bundled"`

	Storage StorageConfig `yaml:"storage"`
	Export  ExportConfig  `yaml:"export"`

	// UpdatedBy is stamped into exported metadata when unset.
	UpdatedBy string `yaml:"updated_by"`
}

// StorageConfig selects where local overrides live.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// Path is the directory (file) or database file (sqlite).
	Path string `yaml:"path"`
}

// ExportConfig controls artifact output.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Timeout: "15s",
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    ".appsreg",
		},
		Export: ExportConfig{Dir: "dist"},
	}
}

// Load reads path over the defaults. A missing file at the default location
// is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Relative paths are relative to the config file.
	base := filepath.Dir(path)
	cfg.Bundled = resolve(base, cfg.Bundled)
	cfg.Storage.Path = resolve(base, cfg.Storage.Path)
	cfg.Export.Dir = resolve(base, cfg.Export.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty means zero, the library default.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "." {
		return p
	}
	return filepath.Join(base, p)
}
