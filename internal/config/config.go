// Package config loads cli-bloom configuration from defaults, an optional
// .cli-bloom.yaml file, and CLI_BLOOM_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/odespesse/cli-bloom/internal/errors"
)

// DefaultErrorRate is the target false-positive rate used when none is
// configured. Matches the historical default of the tool.
const DefaultErrorRate = 0.00001

// Config represents the complete cli-bloom configuration.
//
// The configured error rate only seeds newly constructed indexes; a restored
// snapshot always keeps the rate it was built with, and the index itself
// never reads configuration directly.
type Config struct {
	Index   IndexConfig   `yaml:"index" json:"index"`
	Ingest  IngestConfig  `yaml:"ingest" json:"ingest"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures index construction.
type IndexConfig struct {
	// ErrorRate is the target false-positive probability for new indexes.
	// Must be strictly between 0 and 1.
	ErrorRate float64 `yaml:"error_rate" json:"error_rate"`
}

// IngestConfig configures directory ingestion.
type IngestConfig struct {
	// Workers bounds concurrent file reads during directory ingestion.
	// 1 means fully serial. Insertions are always applied serially in
	// sorted-name order regardless of this value.
	Workers int `yaml:"workers" json:"workers"`
}

// SearchConfig configures the search engine layer.
type SearchConfig struct {
	// CacheSize is the number of query results kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Index: IndexConfig{
			ErrorRate: DefaultErrorRate,
		},
		Ingest: IngestConfig{
			Workers: 1,
		},
		Search: SearchConfig{
			CacheSize: 128,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Project config (.cli-bloom.yaml in dir)
//  3. Environment variables (CLI_BLOOM_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .cli-bloom.yaml or .cli-bloom.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".cli-bloom.yaml", ".cli-bloom.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigError("failed to read config file "+path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return errors.ConfigError("failed to parse config file "+path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Index.ErrorRate != 0 {
		c.Index.ErrorRate = other.Index.ErrorRate
	}
	if other.Ingest.Workers != 0 {
		c.Ingest.Workers = other.Ingest.Workers
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies CLI_BLOOM_* environment variables.
// Environment variables have the highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CLI_BLOOM_ERROR_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Index.ErrorRate = rate
		}
	}
	if v := os.Getenv("CLI_BLOOM_INGEST_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Ingest.Workers = workers
		}
	}
	if v := os.Getenv("CLI_BLOOM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CLI_BLOOM_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate checks the final configuration for invalid values.
func (c *Config) Validate() error {
	if c.Index.ErrorRate <= 0 || c.Index.ErrorRate >= 1 {
		return errors.ConfigError(
			"index.error_rate must be strictly between 0 and 1", nil).
			WithDetail("error_rate", strconv.FormatFloat(c.Index.ErrorRate, 'g', -1, 64))
	}
	if c.Ingest.Workers < 1 {
		return errors.ConfigError("ingest.workers must be at least 1", nil)
	}
	if c.Search.CacheSize < 1 {
		return errors.ConfigError("search.cache_size must be at least 1", nil)
	}
	return nil
}
