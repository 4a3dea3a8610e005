package proxy

import (
	"errors"
	"io"
	"net/http"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// errHandled tells the reverse proxy that the pipeline already wrote the
// client response.
var errHandled = errors.New("response handled by interception pipeline")

// writeError maps a forwarding or hook failure to a JSON error response.
func (m *Manager) writeError(w http.ResponseWriter, r *http.Request, server int, err error) {
	if errors.Is(err, errHandled) {
		return
	}

	logger := m.logger.WithContext(r.Context()).With(
		observability.Int("server", server),
		observability.String("method", r.Method),
		observability.String("path", r.URL.Path),
		observability.Error(err),
	)

	status := http.StatusBadGateway
	body := `{"error":"bad gateway","message":"failed to proxy request"}`

	switch {
	case errors.Is(err, util.ErrHandlerFailed):
		logger.Error("response hook failed")
		status = http.StatusInternalServerError
		body = `{"error":"internal server error","message":"response handler failed"}`
	case errors.Is(err, util.ErrCircuitOpen):
		logger.Warn("circuit breaker open")
		m.metrics.RecordForwardingError(server)
		status = http.StatusServiceUnavailable
		body = `{"error":"service unavailable","message":"upstream circuit breaker open"}`
	default:
		logger.Error("proxy error")
		m.metrics.RecordForwardingError(server)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
