// Package config handles configuration loading from an optional YAML
// file plus environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML values like "30s" or "2h" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RetryConfig controls the backoff policy applied to capacity
// activation and deactivation calls.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	BaseInterval Duration `yaml:"base_interval"`
	MaxInterval  Duration `yaml:"max_interval"`
}

// RunConfig controls pipeline run polling.
type RunConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	MaxWait      Duration `yaml:"max_wait"`
}

// Config holds all configuration values for the orchestrator.
type Config struct {
	// HTTP server port for the orchestrator API
	HTTPPort int `yaml:"http_port"`

	// Path to the YAML inventory declaration document
	InventoryPath string `yaml:"inventory_path"`

	// Base URL of the capacity management API
	CapacityAPIURL string `yaml:"capacity_api_url"`

	// Base URL of the pipeline execution service
	PipelineURL string `yaml:"pipeline_url"`

	// Postgres connection string for the history store. Empty means
	// history is kept in memory only.
	DatabaseURL string `yaml:"database_url"`

	// OTLP trace collector endpoint. Empty disables trace export.
	OTELEndpoint string `yaml:"otel_endpoint"`

	Retry RetryConfig `yaml:"retry"`
	Run   RunConfig   `yaml:"run"`

	// CI branch name to target environment (DEV/TEST/PROD)
	Branches map[string]string `yaml:"branches"`
}

func defaults() *Config {
	return &Config{
		HTTPPort: 8080,
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseInterval: Duration(5 * time.Second),
			MaxInterval:  Duration(2 * time.Minute),
		},
		Run: RunConfig{
			PollInterval: Duration(15 * time.Second),
			MaxWait:      Duration(2 * time.Hour),
		},
		Branches: map[string]string{
			"main": "PROD",
			"test": "TEST",
			"dev":  "DEV",
		},
	}
}

// Load reads configuration from the YAML file at path (if non-empty),
// then applies environment variable overrides. Environment variable
// references in the file are expanded before parsing; unknown
// variables are left untouched.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.Expand(string(raw), func(name string) string {
			if v, ok := os.LookupEnv(name); ok {
				return v
			}
			return "${" + name + "}"
		})
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.HTTPPort = p
	}
	if v := os.Getenv("INVENTORY_PATH"); v != "" {
		cfg.InventoryPath = v
	}
	if v := os.Getenv("CAPACITY_API_URL"); v != "" {
		cfg.CapacityAPIURL = v
	}
	if v := os.Getenv("PIPELINE_URL"); v != "" {
		cfg.PipelineURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("OTEL_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}

	if cfg.InventoryPath == "" {
		return nil, fmt.Errorf("inventory_path is required")
	}
	if cfg.CapacityAPIURL == "" {
		return nil, fmt.Errorf("capacity_api_url is required")
	}
	if cfg.PipelineURL == "" {
		return nil, fmt.Errorf("pipeline_url is required")
	}

	return cfg, nil
}
