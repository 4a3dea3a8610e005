package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, RouteFromContext(ctx))
	assert.Nil(t, PathParamsFromContext(ctx))
	assert.Zero(t, ElapsedTime(ctx))
	_, ok := ServerIDFromContext(ctx)
	assert.False(t, ok)

	ctx = ContextWithRequestID(ctx, "rid")
	ctx = ContextWithTraceID(ctx, "tid")
	ctx = ContextWithServerID(ctx, 3)
	ctx = ContextWithRoute(ctx, "GET /a/:id")
	ctx = ContextWithPathParams(ctx, map[string]string{"id": "9"})
	ctx = ContextWithStartTime(ctx, time.Now().Add(-time.Second))

	assert.Equal(t, "rid", RequestIDFromContext(ctx))
	assert.Equal(t, "tid", TraceIDFromContext(ctx))
	id, ok := ServerIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, 3, id)
	assert.Equal(t, "GET /a/:id", RouteFromContext(ctx))
	assert.Equal(t, "9", PathParamsFromContext(ctx)["id"])
	assert.GreaterOrEqual(t, ElapsedTime(ctx), time.Second)
}
