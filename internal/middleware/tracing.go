package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// Tracing returns a middleware that starts a server span per request,
// continuing any trace carried in the incoming headers.
func Tracing(tracer *observability.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := observability.ExtractTraceContext(c.Request.Context(), c.Request.Header)
		ctx, span := tracer.StartSpan(ctx, fmt.Sprintf("HTTP %s", c.Request.Method),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("url.path", c.Request.URL.Path),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			ctx = util.ContextWithTraceID(ctx, sc.TraceID().String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.response.status_code", status),
			attribute.String("http.route", routeOf(c)),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
		}
	}
}
