// Package toolkit provides the result builders handed to response hooks.
package toolkit

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vyrodovalexey/managedproxy/internal/hooks"
	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/views"
)

// HTMLContentType is set by RenderView.
const HTMLContentType = "text/html; charset=utf-8"

// Toolkit implements hooks.Toolkit.
type Toolkit struct {
	renderer views.Renderer
	logger   observability.Logger
}

// Option is a functional option for configuring the toolkit.
type Option func(*Toolkit)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(t *Toolkit) {
		t.logger = logger
	}
}

// New creates a toolkit. renderer may be nil, in which case every
// RenderView call fails with 500.
func New(renderer views.Renderer, opts ...Option) *Toolkit {
	t := &Toolkit{
		renderer: renderer,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ hooks.Toolkit = (*Toolkit)(nil)

// RenderView renders view with data and sets an HTML content type on w.
// A rendering failure is logged and yields an empty 500 result.
func (t *Toolkit) RenderView(ctx context.Context, w http.ResponseWriter, view string, data any) hooks.Result {
	if w != nil {
		w.Header().Set("Content-Type", HTMLContentType)
	}

	if t.renderer == nil {
		t.logger.WithContext(ctx).Error("no view renderer configured",
			observability.String("view", view),
		)
		return t.ErrorCode(http.StatusInternalServerError, "Internal server error")
	}

	body, err := t.renderer.Render(view, data)
	if err != nil {
		t.logger.WithContext(ctx).Error("failed to render view",
			observability.String("view", view),
			observability.Error(err),
		)
		return t.ErrorCode(http.StatusInternalServerError, "Internal server error")
	}

	return hooks.Result{
		Body:   body,
		Status: hooks.Status{Code: http.StatusOK, Message: "OK"},
	}
}

// ErrorCode returns an empty result with the given status.
func (t *Toolkit) ErrorCode(code int, message string) hooks.Result {
	return hooks.Result{Status: hooks.Status{Code: code, Message: message}}
}

// RespondUnmodified returns an empty 304 result.
func (t *Toolkit) RespondUnmodified() hooks.Result {
	return hooks.Result{Status: hooks.Status{Code: http.StatusNotModified}}
}

// ParseJSON decodes buf into v.
func (t *Toolkit) ParseJSON(buf []byte, v any) error {
	return json.Unmarshal(buf, v)
}

// DecodeJSON decodes buf into a new T.
func DecodeJSON[T any](buf []byte) (T, error) {
	var v T
	err := json.Unmarshal(buf, &v)
	return v, err
}
