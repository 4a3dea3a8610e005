package middleware

// unmatchedRoute labels requests that no managed route handled.
const unmatchedRoute = "unmatched"

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"
)

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"

	// ContentTypeForm is the URL-encoded form content type.
	ContentTypeForm = "application/x-www-form-urlencoded"
)
