// Package config loads the YAML configuration cmd/mmqueue reads for queue
// paths, sizes, and the ambient listener addresses, per SPEC_FULL.md §4.15.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of a queue configuration file. CLI flags
// override any of these after Load.
type Config struct {
	IndexPath         string `yaml:"index_path"`
	DataPath          string `yaml:"data_path"`
	ControlPath       string `yaml:"control_path"`
	NewSemName        string `yaml:"new_sem_name"`
	RegSemName        string `yaml:"reg_sem_name"`
	IndexInitialBytes int64  `yaml:"index_initial_bytes"`
	DataInitialBytes  int64  `yaml:"data_initial_bytes"`
	MaxConsumers      uint32 `yaml:"max_consumers"`
	LogLevel          string `yaml:"log_level"`
	HealthAddr        string `yaml:"health_addr"`
	MetricsAddr       string `yaml:"metrics_addr"`
}

// applyDefaults fills in the zero-valued fields, mirroring the teacher
// repo's SizePercentPair-style config structs' defaulting convention.
func (c *Config) applyDefaults() {
	if c.IndexPath == "" {
		c.IndexPath = "index.mm"
	}
	if c.DataPath == "" {
		c.DataPath = "data.mm"
	}
	if c.ControlPath == "" {
		c.ControlPath = "control.mm"
	}
	if c.NewSemName == "" {
		c.NewSemName = "mmqueue_new"
	}
	if c.RegSemName == "" {
		c.RegSemName = "mmqueue_reg"
	}
	if c.IndexInitialBytes <= 0 {
		c.IndexInitialBytes = 64 * 1024
	}
	if c.DataInitialBytes <= 0 {
		c.DataInitialBytes = 1024 * 1024
	}
	if c.MaxConsumers == 0 {
		c.MaxConsumers = 16
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load reads and parses the YAML file at path, applying defaults to any
// field the file left unset.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// Default returns a Config with every default applied and no file read,
// for callers driven entirely by CLI flags.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}
