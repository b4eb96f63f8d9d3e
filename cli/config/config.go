// Package config handles CLI configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	DefaultEndpoint string                    `yaml:"default_endpoint"`
	ChunkSize       int                       `yaml:"chunk_size"`
	ReadTimeout     Duration                  `yaml:"read_timeout"`
	Endpoints       map[string]EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig holds configuration for a named endpoint.
type EndpointConfig struct {
	BaseURL  string `yaml:"base_url"`
	TokenRef string `yaml:"token_ref,omitempty"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.brook/config.yaml
// - Windows: %USERPROFILE%\.brook\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".brook", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Endpoints: make(map[string]EndpointConfig),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Ensure Endpoints map is initialized
	if cfg.Endpoints == nil {
		cfg.Endpoints = make(map[string]EndpointConfig)
	}

	return cfg, nil
}

// GetEndpoint returns the endpoint config for the given name.
// Returns nil if the endpoint is not configured.
func (c *Config) GetEndpoint(name string) *EndpointConfig {
	if c.Endpoints == nil {
		return nil
	}
	if ec, ok := c.Endpoints[name]; ok {
		return &ec
	}
	return nil
}
