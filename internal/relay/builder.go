package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avarelay/internal/observability"
)

// HeaderRequestID carries a correlation identifier on every outbound
// request.
const HeaderRequestID = "X-Request-Id"

// RequestBuilder accumulates an outbound request in memory. No
// network I/O happens until Send. The zero value is not usable;
// builders are obtained from a Client.
type RequestBuilder struct {
	client *Client
	method string
	target string
	header http.Header
	query  url.Values
	body   io.Reader
	err    error
}

// Header adds a header to the request.
func (rb *RequestBuilder) Header(key, value string) *RequestBuilder {
	rb.header.Add(key, value)
	return rb
}

// Query adds a query parameter to the request URL.
func (rb *RequestBuilder) Query(key, value string) *RequestBuilder {
	rb.query.Add(key, value)
	return rb
}

// Body sets the request body.
func (rb *RequestBuilder) Body(r io.Reader) *RequestBuilder {
	rb.body = r
	return rb
}

// JSON marshals v as the request body and sets the Content-Type
// header.
func (rb *RequestBuilder) JSON(v any) *RequestBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		rb.err = fmt.Errorf("failed to marshal JSON body: %w", err)
		return rb
	}
	rb.body = bytes.NewReader(data)
	rb.header.Set("Content-Type", "application/json")
	return rb
}

// Build materializes the accumulated request as an *http.Request.
func (rb *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if rb.err != nil {
		return nil, rb.err
	}

	req, err := http.NewRequestWithContext(ctx, rb.method, rb.target, rb.body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", rb.method, err)
	}

	if len(rb.query) > 0 {
		q := req.URL.Query()
		for k, vals := range rb.query {
			for _, v := range vals {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	for k, vals := range rb.header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	return req, nil
}

// Send builds the request and dispatches it through the client's
// transport. Network failures propagate unchanged from the underlying
// http.Client.
func (rb *RequestBuilder) Send(ctx context.Context) (*http.Response, error) {
	c := rb.client
	mode := c.Mode()

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("relay.%s", rb.method),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	req, err := rb.Build(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("http.method", rb.method),
		attribute.String("http.url", req.URL.String()),
		attribute.String("relay.mode", mode),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if c.metrics != nil {
			c.metrics.RecordRequestError(rb.method, mode)
		}
		c.logger.Error("request failed",
			observability.String("method", rb.method),
			observability.String("mode", mode),
			observability.Duration("duration", duration),
			observability.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
	}

	if c.metrics != nil {
		c.metrics.RecordRequestDuration(rb.method, mode, resp.StatusCode, duration)
	}

	c.logger.Debug("request dispatched",
		observability.String("method", rb.method),
		observability.String("mode", mode),
		observability.Int("status", resp.StatusCode),
		observability.Duration("duration", duration),
	)

	return resp, nil
}
