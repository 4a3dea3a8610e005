package registry

import (
	"strings"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/router"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// Register validates and stores a route on server id. It fails with a
// ConfigError when the route is malformed, already registered, or its
// options are inconsistent; a failed call leaves the table unchanged.
func (r *Registry) Register(id ServerID, method, path string, reg Registration) (key router.ContextKey, err error) {
	defer func() {
		r.metrics.RecordRegistration(err == nil)
		if err != nil {
			r.logger.Error("registration failed",
				observability.Int("server", int(id)),
				observability.String("method", method),
				observability.String("path", path),
				observability.Error(err),
			)
		}
	}()

	if method == "" {
		return "", util.NewConfigError("method", "method is required")
	}
	if err := util.ValidateMethod(method); err != nil {
		return "", util.NewConfigErrorWithCause("method", err.Error(), err)
	}
	if path == "" {
		return "", util.NewConfigError("path", "path is required")
	}
	if !strings.HasPrefix(path, "/") {
		return "", util.NewConfigError("path", "path must start with /")
	}

	inst, err := r.Get(id)
	if err != nil {
		return "", util.NewConfigErrorWithCause("server", err.Error(), err)
	}

	path = router.Normalize(path)
	key = router.Encode(method, path)

	table := inst.HandlerTable
	table.mu.Lock()
	defer table.mu.Unlock()

	if router.IsDynamic(path) {
		if table.hasPatternLocked(path) {
			return "", util.NewConfigError("path", "dynamic route "+path+" already registered")
		}
		matcher, cerr := router.Compile(path)
		if cerr != nil {
			return "", util.NewConfigErrorWithCause("path", cerr.Error(), cerr)
		}
		patternKey := key
		table.appendPatternLocked(patternKey, matcher)
		defer func() {
			if err != nil {
				table.removePatternLocked(patternKey)
			}
		}()
	}

	if _, exists := table.entries[key]; exists {
		return "", util.NewConfigError("path", "context "+key.String()+" already registered")
	}

	opts := RequestOptions{}
	if reg.Request != nil {
		opts = *reg.Request
	}
	opts.FollowRedirects = Bool(opts.Follow())

	if err := validateOptions(opts, reg); err != nil {
		return "", err
	}

	entry := &HandlerEntry{Request: &RequestHalf{Options: opts}}
	if reg.OnResponse != nil || reg.OnRedirect != nil {
		entry.Response = &ResponseHalf{
			OnResponse: reg.OnResponse,
			OnRedirect: reg.OnRedirect,
		}
	}
	table.entries[key] = entry

	r.logger.Info("registration completed",
		observability.Int("server", int(id)),
		observability.String("context", key.String()),
		observability.Bool("self_handle", opts.SelfHandleResponse),
		observability.Bool("follow_redirects", opts.Follow()),
	)
	return key, nil
}

// validateOptions enforces the consistency rules between request options
// and hooks.
func validateOptions(opts RequestOptions, reg Registration) error {
	if opts.SelfHandleResponse && reg.OnResponse == nil {
		return util.NewConfigError("onResponse", "selfHandleResponse requires an onResponse handler")
	}
	if !opts.SelfHandleResponse && reg.OnResponse != nil {
		return util.NewConfigError("onResponse", "onResponse is only used with selfHandleResponse")
	}
	if !opts.Follow() && reg.OnRedirect == nil {
		return util.NewConfigError("onRedirect", "followRedirects=false requires an onRedirect handler")
	}
	switch opts.ProtocolRewrite {
	case "", ProtocolHTTP, ProtocolHTTPS:
	default:
		return util.NewConfigError("protocolRewrite", "must be http or https, got "+opts.ProtocolRewrite)
	}
	if opts.TargetOverride != "" {
		if err := util.ValidateURL(opts.TargetOverride); err != nil {
			return util.NewConfigErrorWithCause("targetOverride", err.Error(), err)
		}
	}
	return nil
}
