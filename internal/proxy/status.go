package proxy

import (
	"net/http"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// IsStatusOK reports whether code is 200 or 304. Other codes are logged.
func (m *Manager) IsStatusOK(code int) bool {
	if code == http.StatusOK || code == http.StatusNotModified {
		return true
	}
	m.logger.Warn("unexpected upstream status", observability.Int("status", code))
	return false
}

// ShouldUseCache reports whether code tells the client to use its cached
// copy.
func (m *Manager) ShouldUseCache(code int) bool {
	return code == http.StatusNotModified
}
