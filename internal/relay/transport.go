package relay

import "net/http"

// headerTransport wraps an http.RoundTripper and attaches a fixed set
// of default headers to every request. Headers already present on the
// request are left untouched, so per-request values win over defaults.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

// RoundTrip implements http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone so the caller's request is not modified.
	req = req.Clone(req.Context())

	for k, vals := range t.headers {
		if _, ok := req.Header[k]; ok {
			continue
		}
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
