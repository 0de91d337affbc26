package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avarelay/internal/config"
	"github.com/vyrodovalexey/avarelay/internal/observability"
)

const (
	testEndpoint = "https://relay.example.com/"
	testAuth     = "test-key"
	testTarget   = "https://example.com/a"
)

func newRelayedClient(t *testing.T) *Client {
	t.Helper()

	client, err := New(testEndpoint, testAuth, WithLogger(observability.NopLogger()))
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Parallel()

	client := newRelayedClient(t)

	require.True(t, client.Proxied())
	require.NotNil(t, client.Proxy())
	assert.Equal(t, testEndpoint, client.Proxy().Endpoint())
	assert.Equal(t, testAuth, client.Proxy().Authorization())
	assert.Equal(t, ModeRelay, client.Mode())
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		endpoint      string
		authorization string
		wantErr       error
	}{
		{
			name:          "empty endpoint",
			endpoint:      "",
			authorization: testAuth,
			wantErr:       ErrEmptyEndpoint,
		},
		{
			name:          "empty authorization",
			endpoint:      testEndpoint,
			authorization: "",
			wantErr:       ErrEmptyAuthorization,
		},
		{
			name:          "relative endpoint",
			endpoint:      "/relative/path",
			authorization: testAuth,
			wantErr:       ErrInvalidEndpoint,
		},
		{
			name:          "endpoint without host",
			endpoint:      "https://",
			authorization: testAuth,
			wantErr:       ErrInvalidEndpoint,
		},
		{
			name:          "authorization with control characters",
			endpoint:      testEndpoint,
			authorization: "bad\nvalue",
			wantErr:       ErrInvalidAuthorization,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := New(tt.endpoint, tt.authorization)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsRelayError(err))
		})
	}
}

func TestNew_UnparsableEndpoint(t *testing.T) {
	t.Parallel()

	client, err := New("ht tp://relay.example.com/", testAuth)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, IsRelayError(err))
}

func TestDefault(t *testing.T) {
	t.Parallel()

	client := Default()

	assert.False(t, client.Proxied())
	assert.Nil(t, client.Proxy())
	assert.Equal(t, ModeDirect, client.Mode())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		proxy       config.ProxyConfig
		wantProxied bool
	}{
		{
			name:        "both set",
			proxy:       config.ProxyConfig{Endpoint: testEndpoint, Authorization: testAuth},
			wantProxied: true,
		},
		{
			name:        "endpoint only",
			proxy:       config.ProxyConfig{Endpoint: testEndpoint},
			wantProxied: false,
		},
		{
			name:        "authorization only",
			proxy:       config.ProxyConfig{Authorization: testAuth},
			wantProxied: false,
		},
		{
			name:        "both empty",
			proxy:       config.ProxyConfig{},
			wantProxied: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Proxy = tt.proxy

			client, err := NewFromConfig(cfg, WithLogger(observability.NopLogger()))
			require.NoError(t, err)
			require.NotNil(t, client)

			assert.Equal(t, tt.wantProxied, client.Proxied())
			if tt.wantProxied {
				assert.Equal(t, testEndpoint, client.Proxy().Endpoint())
				assert.Equal(t, testAuth, client.Proxy().Authorization())
			}
		})
	}
}

func TestNewFromConfig_NilConfig(t *testing.T) {
	t.Parallel()

	client, err := NewFromConfig(nil, WithLogger(observability.NopLogger()))
	require.NoError(t, err)
	assert.False(t, client.Proxied())
}

func TestNewFromConfig_InvalidEndpoint(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Proxy = config.ProxyConfig{Endpoint: "/not-absolute", Authorization: testAuth}

	// A complete but broken proxy section must not silently fall back
	// to direct mode.
	client, err := NewFromConfig(cfg, WithLogger(observability.NopLogger()))
	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

// verbAccessors returns every verb-named builder plus the expected
// method for each.
func verbAccessors(client *Client) map[string]func(string) *RequestBuilder {
	return map[string]func(string) *RequestBuilder{
		http.MethodGet:    client.Get,
		http.MethodPost:   client.Post,
		http.MethodHead:   client.Head,
		http.MethodPut:    client.Put,
		http.MethodDelete: client.Delete,
		http.MethodPatch:  client.Patch,
	}
}

func TestClient_VerbBuilders_Relayed(t *testing.T) {
	t.Parallel()

	client := newRelayedClient(t)

	for method, build := range verbAccessors(client) {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			req, err := build(testTarget).Build(context.Background())
			require.NoError(t, err)

			assert.Equal(t, method, req.Method)
			assert.Equal(t, testEndpoint, req.URL.String())
			assert.Equal(t, testTarget, req.Header.Get(HeaderForwardedFor))
			assert.Equal(t, testAuth, req.Header.Get(HeaderAuthorization))
		})
	}
}

func TestClient_Request_Relayed(t *testing.T) {
	t.Parallel()

	client := newRelayedClient(t)

	req, err := client.Request(http.MethodOptions, testTarget).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodOptions, req.Method)
	assert.Equal(t, testEndpoint, req.URL.String())
	assert.Equal(t, testTarget, req.Header.Get(HeaderForwardedFor))
	assert.Equal(t, testAuth, req.Header.Get(HeaderAuthorization))
}

func TestClient_VerbBuilders_Direct(t *testing.T) {
	t.Parallel()

	client := Default()

	for method, build := range verbAccessors(client) {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			req, err := build(testTarget).Build(context.Background())
			require.NoError(t, err)

			assert.Equal(t, method, req.Method)
			assert.Equal(t, testTarget, req.URL.String())
			assert.Empty(t, req.Header.Get(HeaderForwardedFor))
			assert.Empty(t, req.Header.Get(HeaderAuthorization))
		})
	}
}

func TestClient_Request_Direct(t *testing.T) {
	t.Parallel()

	client := Default()

	req, err := client.Request(http.MethodOptions, testTarget).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testTarget, req.URL.String())
	assert.Empty(t, req.Header.Get(HeaderForwardedFor))
	assert.Empty(t, req.Header.Get(HeaderAuthorization))
}

func TestClient_WithDefaultHeaders_PreservesMode(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	headers.Set("X-Api-Version", "2")

	relayed := newRelayedClient(t)
	relayedClone := relayed.WithDefaultHeaders(headers)

	require.True(t, relayedClone.Proxied())
	assert.Equal(t, testEndpoint, relayedClone.Proxy().Endpoint())
	assert.Equal(t, testAuth, relayedClone.Proxy().Authorization())

	direct := Default()
	directClone := direct.WithDefaultHeaders(headers)

	assert.False(t, directClone.Proxied())
}

func TestClient_WithDefaultHeaders_OriginalUnchanged(t *testing.T) {
	t.Parallel()

	client := newRelayedClient(t)

	headers := http.Header{}
	headers.Set("X-Api-Version", "2")
	clone := client.WithDefaultHeaders(headers)

	assert.NotSame(t, client, clone)
	assert.NotSame(t, client.httpClient, clone.httpClient)
	assert.Empty(t, client.defaultHeaders)

	// Original still builds requests correctly.
	req, err := client.Get(testTarget).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testEndpoint, req.URL.String())
}

func TestClient_WithDefaultHeaders_Applied(t *testing.T) {
	t.Parallel()

	var gotVersion, gotForwarded string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("X-Api-Version")
		gotForwarded = r.Header.Get(HeaderForwardedFor)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	headers := http.Header{}
	headers.Set("X-Api-Version", "2")

	client := Default(WithLogger(observability.NopLogger())).WithDefaultHeaders(headers)

	resp, err := client.Get(server.URL).Send(context.Background())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "2", gotVersion)
	assert.Empty(t, gotForwarded)
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	client := Default()
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)

	clone := client.WithDefaultHeaders(http.Header{"X-Api-Version": []string{"2"}})
	assert.Equal(t, 30*time.Second, clone.httpClient.Timeout)
}

func TestRelayError(t *testing.T) {
	t.Parallel()

	err := NewRelayError("new", testEndpoint, "endpoint must be an absolute URL", ErrInvalidEndpoint)

	assert.Contains(t, err.Error(), "new")
	assert.Contains(t, err.Error(), testEndpoint)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	assert.True(t, IsRelayError(err))
	assert.False(t, IsRelayError(errors.New("plain")))
}
