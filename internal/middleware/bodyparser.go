package middleware

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/proxy"
	"github.com/vyrodovalexey/managedproxy/internal/toolkit"
)

// ErrBodyTooLarge is reported when a request body exceeds the parser limit.
var ErrBodyTooLarge = errors.New("request body too large")

// BodyParser returns a middleware that parses JSON and URL-encoded form
// bodies and stores the result under proxy.ParsedBodyKey. The raw body is
// restored so handlers that ignore the parsed value still see it. Bodies
// over maxSize are rejected with 413; a zero maxSize disables the limit.
// Unparseable bodies are forwarded untouched.
func BodyParser(maxSize int64, logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		mediaType, _, err := mime.ParseMediaType(c.GetHeader(HeaderContentType))
		if err != nil || (mediaType != ContentTypeJSON && mediaType != ContentTypeForm) {
			c.Next()
			return
		}

		if maxSize > 0 && c.Request.ContentLength > maxSize {
			rejectTooLarge(c, logger, maxSize)
			return
		}

		raw, err := readBody(c.Request.Body, maxSize)
		_ = c.Request.Body.Close()
		if errors.Is(err, ErrBodyTooLarge) {
			rejectTooLarge(c, logger, maxSize)
			return
		}
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("failed to read request body",
				observability.Error(err),
			)
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		if parsed, ok := parseBody(mediaType, raw); ok {
			c.Set(proxy.ParsedBodyKey, parsed)
		} else {
			logger.WithContext(c.Request.Context()).Debug("request body not parsed",
				observability.String("content_type", mediaType),
			)
		}

		c.Next()
	}
}

func readBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxSize {
		return nil, ErrBodyTooLarge
	}
	return raw, nil
}

func parseBody(mediaType string, raw []byte) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	switch mediaType {
	case ContentTypeJSON:
		v, err := toolkit.DecodeJSON[any](raw)
		if err != nil {
			return nil, false
		}
		return v, true
	case ContentTypeForm:
		v, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

func rejectTooLarge(c *gin.Context, logger observability.Logger, maxSize int64) {
	logger.WithContext(c.Request.Context()).Warn("request body too large",
		observability.Int64("content_length", c.Request.ContentLength),
		observability.Int64("max_size", maxSize),
		observability.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request entity too large"})
}
