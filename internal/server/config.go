package server

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gameforge/internal/enrich"
)

// Config is the serve-mode configuration, loaded from a YAML file.
type Config struct {
	Addr              string `yaml:"addr"`
	RunsDir           string `yaml:"runs_dir"`
	DBPath            string `yaml:"db_path"`
	MaxConcurrentRuns int64  `yaml:"max_concurrent_runs"`

	// Enrichment, when set, is the default model backend for requests that
	// do not carry their own.
	Enrichment *enrich.Config `yaml:"enrichment"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML config file and fills unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("server: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("server: parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.RunsDir == "" {
		c.RunsDir = "runs"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.RunsDir, "gameforge.db")
	}
	if c.MaxConcurrentRuns <= 0 {
		c.MaxConcurrentRuns = 2
	}
}
