package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestChecker_Readiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		checks map[string]Status
		want   Status
	}{
		{name: "no checks", want: StatusHealthy},
		{name: "all healthy", checks: map[string]Status{"a": StatusHealthy, "b": StatusHealthy}, want: StatusHealthy},
		{name: "degraded", checks: map[string]Status{"a": StatusHealthy, "b": StatusDegraded}, want: StatusDegraded},
		{name: "unhealthy wins", checks: map[string]Status{"a": StatusUnhealthy, "b": StatusDegraded}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewChecker("v1")
			for name, status := range tt.checks {
				c.RegisterCheck(name, func() Check { return Check{Status: status} })
			}

			resp := c.Readiness()
			assert.Equal(t, tt.want, resp.Status)
			assert.Equal(t, "v1", resp.Version)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestChecker_Names(t *testing.T) {
	t.Parallel()

	c := NewChecker("")
	c.RegisterCheck("views", func() Check { return Check{Status: StatusHealthy} })
	c.RegisterCheck("registry", func() Check { return Check{Status: StatusHealthy} })
	assert.Equal(t, []string{"registry", "views"}, c.Names())
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	c := NewChecker("v2")
	ready := true
	c.RegisterCheck("registry", func() Check {
		if ready {
			return Check{Status: StatusHealthy}
		}
		return Check{Status: StatusUnhealthy, Message: "no servers"}
	})

	engine := gin.New()
	engine.GET("/healthz", LivenessHandler())
	engine.GET("/readyz", c.ReadinessHandler())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ready = false
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, "no servers", resp.Checks["registry"].Message)
}
