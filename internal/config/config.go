package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Config holds all configuration for the relay client.
type Config struct {
	// Proxy defines the relay routing settings. Both fields default
	// to empty; relay routing is strictly opt-in.
	Proxy ProxyConfig `yaml:"proxy"`

	// Logging defines the logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics defines the metrics endpoint settings.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ProxyConfig defines the relay endpoint and credential. The section
// lives under the fixed top-level "proxy" key.
type ProxyConfig struct {
	// Endpoint is the absolute URL of the forward relay.
	Endpoint string `yaml:"endpoint"`

	// Authorization is the opaque credential presented to the relay.
	Authorization string `yaml:"authorization"`
}

// IsComplete reports whether both proxy fields are set.
func (p ProxyConfig) IsComplete() bool {
	return p.Endpoint != "" && p.Authorization != ""
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is the log output format (json, console).
	Format string `yaml:"format"`

	// Output is the output destination (stdout, stderr).
	Output string `yaml:"output"`
}

// MetricsConfig defines metrics endpoint settings.
type MetricsConfig struct {
	// Enabled turns on the Prometheus metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Address is the listen address for the metrics endpoint.
	Address string `yaml:"address"`

	// Path is the HTTP path of the metrics endpoint.
	Path string `yaml:"path"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
			Path:    "/metrics",
		},
	}
}

var validLogLevels = map[string]bool{
	"": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"": true, "json": true, "console": true,
}

// Validate checks the configuration for structural errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Proxy.Endpoint != "" {
		u, err := url.Parse(cfg.Proxy.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid proxy endpoint %q: %w", cfg.Proxy.Endpoint, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("proxy endpoint %q is not an absolute URL", cfg.Proxy.Endpoint)
		}
	}

	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level %q", cfg.Logging.Level)
	}
	if !validLogFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid log format %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Address == "" {
			return fmt.Errorf("metrics enabled but no address configured")
		}
		if _, _, err := net.SplitHostPort(cfg.Metrics.Address); err != nil {
			return fmt.Errorf("invalid metrics address %q: %w", cfg.Metrics.Address, err)
		}
		if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return fmt.Errorf("metrics path %q must start with /", cfg.Metrics.Path)
		}
	}

	return nil
}
