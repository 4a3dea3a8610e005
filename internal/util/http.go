package util

import (
	"fmt"
	"net/http"
)

// ServerError signals that an upstream answered with a 5xx status. The
// circuit breaker counts it as a failure even though the round trip itself
// succeeded.
type ServerError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.StatusCode)
}

// NewServerError creates a new ServerError with the given status code.
func NewServerError(statusCode int) *ServerError {
	return &ServerError{StatusCode: statusCode}
}

// IsRedirectStatus reports whether code is one of the redirect statuses that
// carry a Location header.
func IsRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// HopHeaders lists response headers that must not be copied verbatim once
// the body has been decoded and buffered.
var HopHeaders = []string{
	"Content-Encoding",
	"Transfer-Encoding",
	"Content-Length",
}
