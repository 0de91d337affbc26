package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Proxy.Endpoint)
	assert.Empty(t, cfg.Proxy.Authorization)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestProxyConfig_IsComplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		proxy    ProxyConfig
		expected bool
	}{
		{
			name:     "both set",
			proxy:    ProxyConfig{Endpoint: "https://relay.example.com/", Authorization: "key"},
			expected: true,
		},
		{
			name:     "endpoint only",
			proxy:    ProxyConfig{Endpoint: "https://relay.example.com/"},
			expected: false,
		},
		{
			name:     "authorization only",
			proxy:    ProxyConfig{Authorization: "key"},
			expected: false,
		},
		{
			name:     "both empty",
			proxy:    ProxyConfig{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.proxy.IsComplete())
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name: "valid proxy endpoint",
			mutate: func(cfg *Config) {
				cfg.Proxy.Endpoint = "https://relay.example.com/"
				cfg.Proxy.Authorization = "key"
			},
		},
		{
			name: "relative proxy endpoint",
			mutate: func(cfg *Config) {
				cfg.Proxy.Endpoint = "/relative/path"
			},
			wantErr: "not an absolute URL",
		},
		{
			name: "endpoint without host",
			mutate: func(cfg *Config) {
				cfg.Proxy.Endpoint = "https://"
			},
			wantErr: "not an absolute URL",
		},
		{
			name: "invalid log level",
			mutate: func(cfg *Config) {
				cfg.Logging.Level = "verbose"
			},
			wantErr: "invalid log level",
		},
		{
			name: "invalid log format",
			mutate: func(cfg *Config) {
				cfg.Logging.Format = "xml"
			},
			wantErr: "invalid log format",
		},
		{
			name: "metrics enabled without address",
			mutate: func(cfg *Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Address = ""
			},
			wantErr: "no address",
		},
		{
			name: "metrics with bad address",
			mutate: func(cfg *Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Address = "localhost"
			},
			wantErr: "invalid metrics address",
		},
		{
			name: "metrics path without slash",
			mutate: func(cfg *Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Path = "metrics"
			},
			wantErr: "must start with /",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()

	assert.Error(t, Validate(nil))
}
