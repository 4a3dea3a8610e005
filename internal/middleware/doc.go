// Package middleware provides the gin middleware installed in front of the
// managed routes.
//
// # Middleware Components
//
//   - Recovery: panic recovery with stack trace logging
//   - RequestID: unique request identifier injection
//   - Logging: structured access logging with the resolved route
//   - Metrics: request counters and latency histograms
//   - Tracing: server spans continued from incoming trace headers
//   - RateLimit: token bucket limiting, global or per client IP
//   - BodyParser: JSON and form request bodies parsed for later rewriting
//
// # Usage
//
//	engine.Use(
//	    middleware.Recovery(logger),
//	    middleware.RequestID(),
//	    middleware.Tracing(tracer),
//	    middleware.Logging(logger),
//	    middleware.Metrics(metrics),
//	    middleware.BodyParser(maxBodySize, logger),
//	)
package middleware
