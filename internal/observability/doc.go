// Package observability provides logging, metrics, and tracing for the
// managed proxy.
//
// # Logging
//
// The Logger interface wraps zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("registration completed",
//	    observability.Int("server", 0),
//	    observability.String("context", "GET /a/:id"),
//	)
//
// # Metrics
//
// Prometheus metrics for proxied requests, registrations, and the
// interception pipeline live on a dedicated registry:
//
//	metrics := observability.NewMetrics("managedproxy")
//	http.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
// OpenTelemetry tracing with OTLP gRPC export. A disabled tracer still
// hands out spans from the global provider, so callers never nil-check.
package observability
