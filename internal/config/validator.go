package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/managedproxy/internal/actions"
	"github.com/vyrodovalexey/managedproxy/internal/router"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// ValidationError is a single problem at a config path.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is every problem found by Validate.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed with %d error(s):\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors reports whether any error was collected.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Is lets errors.Is match util.ErrConfigInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

type validator struct {
	errors ValidationErrors
}

func (v *validator) addError(path, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks cfg and returns ValidationErrors when anything is wrong.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationErrors{{Message: "configuration is nil"}}
	}

	v := &validator{}
	v.validateListen("listen", cfg.Listen)
	v.validateLogging(cfg.Logging)
	if cfg.MaxBodySize < 0 {
		v.addError("maxBodySize", "must not be negative")
	}
	if cfg.Metrics.Enabled {
		v.validateListen("metrics.listen", cfg.Metrics.Listen)
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			v.addError("metrics.path", "must start with /")
		}
	}
	if cfg.Tracing.Enabled && (cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1) {
		v.addError("tracing.samplingRate", "must be between 0 and 1")
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.Burst <= 0) {
		v.addError("rateLimit", "requestsPerSecond and burst must be positive")
	}
	if len(cfg.Servers) == 0 {
		v.addError("servers", "at least one server is required")
	}

	seen := make(map[router.ContextKey]string)
	needsViews := false
	for i := range cfg.Servers {
		if v.validateServer(fmt.Sprintf("servers[%d]", i), &cfg.Servers[i], seen) {
			needsViews = true
		}
	}
	if needsViews && cfg.Views.Dir == "" {
		v.addError("views.dir", "required when a route uses the render action")
	}

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *validator) validateListen(path, addr string) {
	if err := util.ValidateListenAddress(addr); err != nil {
		v.addError(path, "%v", err)
	}
}

func (v *validator) validateLogging(l LoggingConfig) {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", "must be one of debug, info, warn, error")
	}
	switch l.Format {
	case "json", "console":
	default:
		v.addError("logging.format", "must be json or console")
	}
}

// validateServer reports whether any route renders a view.
func (v *validator) validateServer(path string, s *ServerConfig, seen map[router.ContextKey]string) bool {
	if err := util.ValidateURL(s.Target); err != nil {
		v.addError(path+".target", "%v", err)
	}
	for name := range s.Headers {
		if err := util.ValidateHeaderName(name); err != nil {
			v.addError(path+".headers", "%v", err)
		}
	}
	if cb := s.CircuitBreaker; cb != nil && cb.Enabled {
		if cb.Interval < 0 || cb.Timeout < 0 {
			v.addError(path+".circuitBreaker", "durations must not be negative")
		}
	}

	renders := false
	dynamic := make(map[string]string)
	for j := range s.Routes {
		rp := fmt.Sprintf("%s.routes[%d]", path, j)
		if v.validateRoute(rp, &s.Routes[j], seen, dynamic) {
			renders = true
		}
	}
	return renders
}

// validateRoute reports whether the route renders a view. dynamic holds the
// dynamic paths already declared on the same server.
func (v *validator) validateRoute(path string, r *RouteConfig, seen map[router.ContextKey]string, dynamic map[string]string) bool {
	if err := util.ValidateMethod(r.Method); err != nil {
		v.addError(path+".method", "%v", err)
	}
	switch {
	case r.Path == "":
		v.addError(path+".path", "is required")
	case r.Path == "/":
		v.addError(path+".path", "the root path cannot be registered")
	case !strings.HasPrefix(r.Path, "/"):
		v.addError(path+".path", "must start with /")
	default:
		normalized := router.Normalize(r.Path)
		key := router.Encode(r.Method, normalized)
		dyn := router.IsDynamic(normalized)
		switch prev, ok := seen[key]; {
		case ok:
			v.addError(path, "duplicate route %s %s, already declared at %s", strings.ToUpper(r.Method), r.Path, prev)
		case dyn && dynamic[normalized] != "":
			v.addError(path+".path", "dynamic path %s already declared at %s", r.Path, dynamic[normalized])
		default:
			seen[key] = path
			if dyn {
				dynamic[normalized] = path
			}
		}
		if dyn {
			if _, err := router.Compile(normalized); err != nil {
				v.addError(path+".path", "%v", err)
			}
		}
	}

	if r.TargetOverride != "" {
		if err := util.ValidateURL(r.TargetOverride); err != nil {
			v.addError(path+".targetOverride", "%v", err)
		}
	}
	switch r.ProtocolRewrite {
	case "", "http", "https":
	default:
		v.addError(path+".protocolRewrite", "must be http or https")
	}

	if r.SelfHandleResponse && r.Response == nil {
		v.addError(path+".response", "required when selfHandleResponse is true")
	}
	if !r.SelfHandleResponse && r.Response != nil {
		v.addError(path+".response", "only used when selfHandleResponse is true")
	}
	if r.FollowRedirects != nil && !*r.FollowRedirects && r.Redirect == nil {
		v.addError(path+".redirect", "required when followRedirects is false")
	}

	renders := false
	if r.Response != nil {
		if _, err := actions.Response(r.Response.Spec()); err != nil {
			v.addError(path+".response", "%v", err)
		}
		renders = r.Response.Action == actions.ResponseRender
	}
	if r.Redirect != nil {
		if _, err := actions.Redirect(r.Redirect.Spec()); err != nil {
			v.addError(path+".redirect", "%v", err)
		}
	}
	return renders
}
