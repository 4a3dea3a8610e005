package proxy

import (
	"context"
	"net/http"

	"github.com/vyrodovalexey/managedproxy/internal/registry"
	"github.com/vyrodovalexey/managedproxy/internal/router"
)

// exchangeState travels with the client request through the reverse proxy
// so the Rewrite and ModifyResponse callbacks see the route they serve.
type exchangeState struct {
	instance   *registry.Instance
	key        router.ContextKey
	options    registry.RequestOptions
	writer     http.ResponseWriter
	request    *http.Request
	parsedBody any
}

type stateKey struct{}

func withState(ctx context.Context, st *exchangeState) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

func stateFrom(ctx context.Context) (*exchangeState, bool) {
	st, ok := ctx.Value(stateKey{}).(*exchangeState)
	return st, ok
}
