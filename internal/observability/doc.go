// Package observability provides logging and metrics functionality
// for the relay client.
//
// This package implements structured logging via zap and Prometheus
// metrics collection for outbound HTTP requests.
//
// # Logging
//
// The Logger interface provides structured logging:
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("request built",
//	    observability.String("method", "GET"),
//	    observability.String("mode", "relay"),
//	)
//
// # Metrics
//
// Prometheus metrics for outbound requests:
//
//	metrics := observability.NewMetrics("relay")
//	http.Handle("/metrics", metrics.Handler())
package observability
