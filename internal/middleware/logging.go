package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/proxy"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// Logging returns a middleware that logs HTTP requests.
func Logging(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(util.ContextWithStartTime(c.Request.Context(), start))

		c.Next()

		ctx := c.Request.Context()
		fields := []observability.Field{
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
			observability.String("query", c.Request.URL.RawQuery),
			observability.Int("status", c.Writer.Status()),
			observability.Int("size", c.Writer.Size()),
			observability.Duration("duration", util.ElapsedTime(ctx)),
			observability.String("remote_addr", c.ClientIP()),
			observability.String("user_agent", c.Request.UserAgent()),
			observability.String("route", routeOf(c)),
		}
		if id, ok := util.ServerIDFromContext(ctx); ok {
			fields = append(fields, observability.Int("server_id", id))
		}
		if params := util.PathParamsFromContext(ctx); len(params) > 0 {
			fields = append(fields, observability.Any("params", params))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, observability.String("errors", c.Errors.String()))
		}

		logger.WithContext(ctx).Info("http request", fields...)
	}
}

func routeOf(c *gin.Context) string {
	if route := util.RouteFromContext(c.Request.Context()); route != "" {
		return route
	}
	if route := c.GetString(proxy.RouteKey); route != "" {
		return route
	}
	return unmatchedRoute
}
