// Package util provides shared types and helpers for managedproxy.
//
// # Error Conventions
//
// Sentinel errors (errors.New) describe stable conditions that callers
// check with errors.Is. Structured error types carry context:
//
//   - ConfigError: registration and configuration failures. Always fatal
//     for the affected server or route.
//   - ForwardingError: the upstream could not be reached for one request.
//   - HandlerError: a user hook failed while handling one request.
//
// Each structured type implements Error, Unwrap and Is.
//
// # Context Helpers
//
//	ctx = util.ContextWithRequestID(ctx, "req-123")
//	requestID := util.RequestIDFromContext(ctx)
//
// # Validation
//
//	err := util.ValidateURL("https://example.com")
package util
