package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vyrodovalexey/managedproxy/internal/hooks"
)

// Response action names.
const (
	ResponseRender      = "render"
	ResponseStatus      = "status"
	ResponseUnmodified  = "unmodified"
	ResponsePassthrough = "passthrough"
)

// Redirect action names.
const (
	RedirectJSON   = "json"
	RedirectStatus = "status"
)

// ResponseSpec selects and parameterizes a response action.
type ResponseSpec struct {
	Action  string
	View    string
	Status  int
	Message string
}

// RedirectSpec selects and parameterizes a redirect action.
type RedirectSpec struct {
	Action string
	Status int
}

// ViewData is the data passed to views by the render action.
type ViewData struct {
	Body   any
	Params map[string]string
	Status int
	Route  string
}

// IsResponseAction reports whether name is a known response action.
func IsResponseAction(name string) bool {
	switch name {
	case ResponseRender, ResponseStatus, ResponseUnmodified, ResponsePassthrough:
		return true
	}
	return false
}

// IsRedirectAction reports whether name is a known redirect action.
func IsRedirectAction(name string) bool {
	return name == RedirectJSON || name == RedirectStatus
}

// Response builds the response hook described by spec.
func Response(spec ResponseSpec) (hooks.Handler, error) {
	switch spec.Action {
	case ResponseRender:
		if spec.View == "" {
			return nil, fmt.Errorf("action %q requires a view", spec.Action)
		}
		return render(spec.View), nil
	case ResponseStatus:
		if spec.Status < 100 || spec.Status > 599 {
			return nil, fmt.Errorf("action %q: invalid status %d", spec.Action, spec.Status)
		}
		code, message := spec.Status, spec.Message
		return hooks.RespondFunc(func(_ context.Context, ev *hooks.RespondEvent) (hooks.Result, error) {
			return ev.Toolkit.ErrorCode(code, message), nil
		}), nil
	case ResponseUnmodified:
		return hooks.RespondFunc(func(_ context.Context, ev *hooks.RespondEvent) (hooks.Result, error) {
			return ev.Toolkit.RespondUnmodified(), nil
		}), nil
	case ResponsePassthrough:
		return hooks.RespondFunc(func(_ context.Context, ev *hooks.RespondEvent) (hooks.Result, error) {
			return hooks.Result{
				Body:   ev.Body,
				Status: hooks.Status{Code: ev.StatusCode},
			}, nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown response action %q", spec.Action)
	}
}

func render(view string) hooks.Handler {
	return hooks.RespondFunc(func(ctx context.Context, ev *hooks.RespondEvent) (hooks.Result, error) {
		var body any
		if len(ev.Body) > 0 {
			if err := ev.Toolkit.ParseJSON(ev.Body, &body); err != nil {
				return hooks.Result{}, fmt.Errorf("decode upstream body: %w", err)
			}
		}
		return ev.Toolkit.RenderView(ctx, ev.Writer, view, ViewData{
			Body:   body,
			Params: ev.Params,
			Status: ev.StatusCode,
			Route:  ev.Route,
		}), nil
	})
}

// Redirect builds the redirect hook described by spec.
func Redirect(spec RedirectSpec) (hooks.Handler, error) {
	switch spec.Action {
	case RedirectJSON:
		return hooks.RedirectFunc(func(_ context.Context, ev *hooks.RedirectEvent) (hooks.Result, error) {
			body, err := json.Marshal(map[string]string{"location": ev.Location})
			if err != nil {
				return hooks.Result{}, err
			}
			if ev.Writer != nil {
				ev.Writer.Header().Set("Content-Type", "application/json")
			}
			return hooks.Result{
				Body:   body,
				Status: hooks.Status{Code: http.StatusOK},
			}, nil
		}), nil
	case RedirectStatus:
		if spec.Status < 100 || spec.Status > 599 {
			return nil, fmt.Errorf("action %q: invalid status %d", spec.Action, spec.Status)
		}
		code := spec.Status
		return hooks.RedirectFunc(func(_ context.Context, ev *hooks.RedirectEvent) (hooks.Result, error) {
			if ev.Writer != nil && code >= 300 && code < 400 && ev.Location != "" {
				ev.Writer.Header().Set("Location", ev.Location)
			}
			return ev.Toolkit.ErrorCode(code, ""), nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown redirect action %q", spec.Action)
	}
}
