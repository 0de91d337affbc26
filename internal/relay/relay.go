package relay

import (
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpguts"

	"github.com/vyrodovalexey/avarelay/internal/config"
	"github.com/vyrodovalexey/avarelay/internal/observability"
)

// Header names carrying relay routing information. These are a fixed
// contract with the counterpart relay server. X-Forwarded-For carries
// the caller's original destination URL, not a client address.
const (
	HeaderForwardedFor  = "X-Forwarded-For"
	HeaderAuthorization = "X-Authorization"
)

// requestTimeout is applied to every request, relayed or not.
const requestTimeout = 30 * time.Second

// tracerName is the instrumentation scope for outbound request spans.
const tracerName = "github.com/vyrodovalexey/avarelay/internal/relay"

// Mode label values for logs and metrics.
const (
	// ModeDirect means requests go straight to their stated URL.
	ModeDirect = "direct"
	// ModeRelay means requests are redirected to the relay endpoint.
	ModeRelay = "relay"
)

// Proxy holds the relay endpoint and credential. Immutable after
// construction.
type Proxy struct {
	endpoint      *url.URL
	rawEndpoint   string
	authorization string
}

// Endpoint returns the relay endpoint URL as given at construction.
func (p *Proxy) Endpoint() string {
	return p.rawEndpoint
}

// Authorization returns the relay credential.
func (p *Proxy) Authorization() string {
	return p.authorization
}

// Client is an HTTP client that optionally routes every request
// through a forward relay. The mode is fixed for the client's
// lifetime; a Client is immutable after construction and safe for
// concurrent use.
type Client struct {
	proxy          *Proxy
	httpClient     *http.Client
	baseTransport  http.RoundTripper
	defaultHeaders http.Header
	logger         observability.Logger
	metrics        *observability.Metrics
	tracer         trace.Tracer
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics collector for the client.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithTransport sets the base transport used for dispatch.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.baseTransport = rt
	}
}

// New creates a relay-mode client for the given endpoint and
// credential. The endpoint must parse as an absolute URL and the
// credential must be a valid header value; construction fails
// otherwise, so misconfiguration never proceeds silently.
func New(endpoint, authorization string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, NewRelayError("new", "", "endpoint must not be empty", ErrEmptyEndpoint)
	}
	if authorization == "" {
		return nil, NewRelayError("new", endpoint, "authorization must not be empty", ErrEmptyAuthorization)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, NewRelayError("new", endpoint, "failed to parse endpoint", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, NewRelayError("new", endpoint, "endpoint must be an absolute URL", ErrInvalidEndpoint)
	}

	if !httpguts.ValidHeaderFieldValue(authorization) {
		return nil, NewRelayError("new", endpoint, "authorization is not a valid header value", ErrInvalidAuthorization)
	}

	c := newClient(opts)
	c.proxy = &Proxy{
		endpoint:      u,
		rawEndpoint:   endpoint,
		authorization: authorization,
	}
	return c, nil
}

// Default creates a direct-mode client.
func Default(opts ...Option) *Client {
	return newClient(opts)
}

// NewFromConfig creates a client from the proxy section of the
// configuration. When both endpoint and authorization are set it
// delegates to New; when either is empty or the section is absent it
// logs a warning naming the empty fields and falls back to direct
// mode. Relay routing is strictly opt-in.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	c := newClient(opts)

	if cfg == nil {
		c.logger.Warn("no relay config found, using direct connection")
		return c, nil
	}

	proxy := cfg.Proxy
	if proxy.IsComplete() {
		return New(proxy.Endpoint, proxy.Authorization, opts...)
	}

	if proxy.Endpoint == "" && proxy.Authorization == "" {
		c.logger.Warn("no relay config found, using direct connection")
		return c, nil
	}

	c.logger.Warn("relay config incomplete, using direct connection",
		observability.String("endpoint", setOrEmpty(proxy.Endpoint)),
		observability.String("authorization", setOrEmpty(proxy.Authorization)),
	)
	return c, nil
}

// setOrEmpty reports field presence without leaking its value.
func setOrEmpty(v string) string {
	if v == "" {
		return "empty"
	}
	return "set"
}

// newClient builds a direct-mode client with options applied.
func newClient(opts []Option) *Client {
	c := &Client{
		logger: observability.NopLogger(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.httpClient = buildHTTPClient(c.baseTransport, c.defaultHeaders)
	return c
}

// buildHTTPClient builds the underlying http.Client with the fixed
// request timeout and optional default headers.
func buildHTTPClient(base http.RoundTripper, headers http.Header) *http.Client {
	transport := base
	if len(headers) > 0 {
		transport = &headerTransport{base: base, headers: headers}
	}
	return &http.Client{
		Timeout:   requestTimeout,
		Transport: transport,
	}
}

// WithDefaultHeaders returns a new client sharing the same relay
// routing state, with the transport rebuilt to attach the given
// headers to every subsequent request. The receiver is not modified
// and remains usable.
func (c *Client) WithDefaultHeaders(headers http.Header) *Client {
	clone := &Client{
		proxy:          c.proxy,
		baseTransport:  c.baseTransport,
		defaultHeaders: cloneHeader(headers),
		logger:         c.logger,
		metrics:        c.metrics,
		tracer:         c.tracer,
	}
	clone.httpClient = buildHTTPClient(clone.baseTransport, clone.defaultHeaders)
	return clone
}

// Proxied reports whether the client is in relay mode.
func (c *Client) Proxied() bool {
	return c.proxy != nil
}

// Proxy returns the relay routing state, or nil in direct mode.
func (c *Client) Proxy() *Proxy {
	return c.proxy
}

// Mode returns the routing mode label.
func (c *Client) Mode() string {
	if c.proxy != nil {
		return ModeRelay
	}
	return ModeDirect
}

// Get builds a GET request for the given URL.
func (c *Client) Get(target string) *RequestBuilder {
	return c.Request(http.MethodGet, target)
}

// Post builds a POST request for the given URL.
func (c *Client) Post(target string) *RequestBuilder {
	return c.Request(http.MethodPost, target)
}

// Head builds a HEAD request for the given URL.
func (c *Client) Head(target string) *RequestBuilder {
	return c.Request(http.MethodHead, target)
}

// Put builds a PUT request for the given URL.
func (c *Client) Put(target string) *RequestBuilder {
	return c.Request(http.MethodPut, target)
}

// Delete builds a DELETE request for the given URL.
func (c *Client) Delete(target string) *RequestBuilder {
	return c.Request(http.MethodDelete, target)
}

// Patch builds a PATCH request for the given URL.
func (c *Client) Patch(target string) *RequestBuilder {
	return c.Request(http.MethodPatch, target)
}

// Request builds a request for the given method and URL. All verb
// accessors funnel through here: in relay mode the request targets
// the relay endpoint and carries the original destination URL in
// X-Forwarded-For and the credential in X-Authorization; in direct
// mode it targets the URL exactly as given with no injected headers.
// Callers must not overwrite the injected headers.
func (c *Client) Request(method, target string) *RequestBuilder {
	rb := &RequestBuilder{
		client: c,
		method: method,
		target: target,
		header: make(http.Header),
		query:  make(url.Values),
	}

	if c.proxy != nil {
		rb.target = c.proxy.rawEndpoint
		rb.header.Set(HeaderForwardedFor, target)
		rb.header.Set(HeaderAuthorization, c.proxy.authorization)
	}

	c.logger.Debug("request built",
		observability.String("method", method),
		observability.String("mode", c.Mode()),
		observability.String("url", target),
	)

	if c.metrics != nil {
		c.metrics.RecordRequestBuilt(method, c.Mode())
	}

	return rb
}

// cloneHeader deep-copies an http.Header.
func cloneHeader(h http.Header) http.Header {
	clone := make(http.Header, len(h))
	for k, vals := range h {
		clone[k] = append([]string(nil), vals...)
	}
	return clone
}
