// Package config loads the process-wide server configuration. Configuration
// is read once at startup and never mutated afterwards.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds the REST listener settings.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
}

// ModelConfig describes the model backend the adapter talks to.
type ModelConfig struct {
	Kind     string `yaml:"kind"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
}

// StorageConfig holds context persistence settings. An empty path keeps
// contexts in memory only.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Load reads a YAML file and returns a Config. Environment variables
// referenced as ${VAR} or $VAR in the YAML are expanded before parsing so
// API keys can be kept in the environment (e.g. loaded from a .env file)
// rather than committed in the config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Model.Kind == "" {
		c.Model.Kind = "generic"
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Model.Endpoint == "" {
		return fmt.Errorf("config: model endpoint is required")
	}

	return nil
}
