// Package relay provides an HTTP client that can transparently route
// outbound requests through a configured forward relay.
//
// A Client is either in direct mode or relay mode, fixed at
// construction. In direct mode every request goes straight to its
// stated URL. In relay mode every request is sent to the relay
// endpoint instead, with the caller's original destination URL
// carried in the X-Forwarded-For header and the relay credential in
// the X-Authorization header. Both header names are a fixed contract
// with the counterpart relay server.
//
// # Usage
//
// Explicit construction:
//
//	client, err := relay.New("https://relay.example.com/", "secret-key")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get("https://example.com/a").Send(ctx)
//
// Construction from configuration, falling back to direct mode when
// the proxy section is absent or incomplete:
//
//	client, err := relay.NewFromConfig(cfg,
//	    relay.WithLogger(logger),
//	    relay.WithMetrics(metrics),
//	)
//
// Request builders accumulate headers, query parameters, and a body
// in memory; no network I/O happens until Send. Callers must not
// overwrite the two injected relay headers.
package relay
