package proxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/registry"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// Breaker defaults applied to zero BreakerOptions fields.
const (
	defaultBreakerThreshold = 5
)

// breakerTransport counts transport errors and 5xx responses against a
// gobreaker circuit and fails fast while it is open.
type breakerTransport struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker
}

func (m *Manager) newBreakerTransport(name string, opts *registry.BreakerOptions, next http.RoundTripper) *breakerTransport {
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = defaultBreakerThreshold
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: opts.MaxRequests,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.Info("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			m.metrics.SetCircuitBreakerState(name, int(to))

			_, span := m.tracer.StartSpan(context.Background(), "circuitbreaker.state_change",
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			span.AddEvent("state_change", trace.WithAttributes(
				attribute.String("circuitbreaker.name", name),
				attribute.String("circuitbreaker.from", from.String()),
				attribute.String("circuitbreaker.to", to.String()),
			))
			span.End()
		},
	}

	return &breakerTransport{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.cb.Execute(func() (any, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, util.NewServerError(resp.StatusCode)
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, util.NewCircuitOpenError(t.cb.Name(), t.cb.State().String())
	}
	if resp, ok := result.(*http.Response); ok && resp != nil {
		return resp, nil
	}
	return nil, err
}
