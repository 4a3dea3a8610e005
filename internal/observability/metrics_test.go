package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")

	m.RecordIntercept("self_handle")
	m.RecordIntercept("self_handle")
	m.RecordIntercept("redirect")
	m.RecordRegistration(true)
	m.RecordRegistration(false)
	m.RecordForwardingError(1)
	m.RecordHookError("onResponse")
	m.RecordRequest("GET", "GET /a/:id", 200, 10*time.Millisecond)
	m.SetCircuitBreakerState("server-0", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.interceptTotal.WithLabelValues("self_handle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.interceptTotal.WithLabelValues("redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forwardingErrors.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hookErrors.WithLabelValues("onResponse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "GET /a/:id", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.circuitBreaker.WithLabelValues("server-0")))
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIntercept("ignored")
		m.RecordRegistration(true)
		m.RecordRequest("GET", "x", 200, time.Second)
		m.RecordForwardingError(0)
		m.RecordHookError("onRedirect")
		m.SetCircuitBreakerState("x", 0)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.RecordIntercept("ignored")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `managedproxy_intercept_total{branch="ignored"} 1`)
}

func TestTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(context.Background(), TracerConfig{})
	require.NoError(t, err)

	ctx, span := tracer.StartSpan(context.Background(), "intercept.ignored")
	assert.NotNil(t, ctx)
	span.End()
	assert.NoError(t, tracer.Shutdown(context.Background()))

	var nilTracer *Tracer
	_, span = nilTracer.StartSpan(context.Background(), "x")
	assert.False(t, span.IsRecording())
	assert.NoError(t, nilTracer.Shutdown(context.Background()))
}

func TestCreateSampler(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AlwaysOnSampler", createSampler(1).Description())
	assert.Equal(t, "AlwaysOffSampler", createSampler(0).Description())
	assert.Contains(t, createSampler(0.5).Description(), "TraceIDRatioBased")
}
