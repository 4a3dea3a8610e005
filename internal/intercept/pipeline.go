package intercept

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/managedproxy/internal/hooks"
	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/registry"
	"github.com/vyrodovalexey/managedproxy/internal/router"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// Branch names, also used as metric label values.
const (
	BranchRedirect   = "redirect"
	BranchSelfHandle = "self_handle"
	BranchIgnored    = "ignored"
)

// Hook names used in errors and metrics.
const (
	HookOnResponse = "onResponse"
	HookOnRedirect = "onRedirect"
)

// Exchange is one upstream response together with the client request that
// caused it.
type Exchange struct {
	Instance *registry.Instance
	// Request is the client request, not the outgoing one.
	Request  *http.Request
	Response *http.Response
	Writer   http.ResponseWriter
}

// Pipeline dispatches upstream responses to route hooks.
type Pipeline struct {
	toolkit hooks.Toolkit
	logger  observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// Option is a functional option for configuring the pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// New creates a pipeline that hands tk to every hook.
func New(tk hooks.Toolkit, opts ...Option) *Pipeline {
	p := &Pipeline{
		toolkit: tk,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle runs the pipeline for one upstream response. It returns true when
// the client response has been written. Errors from hooks are wrapped in
// util.HandlerError; errors reading the upstream body in
// util.ForwardingError.
func (p *Pipeline) Handle(ex *Exchange) (handled bool, err error) {
	res := router.Resolve(ex.Instance.HandlerTable, ex.Request.Method, ex.Request.URL.Path)
	entry, ok := ex.Instance.Lookup(res.Key)
	if !ok {
		p.metrics.RecordIntercept(BranchIgnored)
		return false, nil
	}

	opts := entry.Options()
	branch := BranchIgnored
	switch {
	case ex.Response.StatusCode == http.StatusSwitchingProtocols:
	case isRedirect(ex.Response):
		branch = BranchRedirect
	case opts.SelfHandleResponse:
		branch = BranchSelfHandle
	}

	p.metrics.RecordIntercept(branch)
	ctx, span := p.tracer.StartSpan(ex.Request.Context(), "intercept."+branch,
		trace.WithAttributes(
			attribute.Int("managedproxy.server", int(ex.Instance.ID)),
			attribute.String("managedproxy.route", res.Key.String()),
			attribute.Int("http.response.status_code", ex.Response.StatusCode),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger := p.logger.WithContext(ctx).With(
		observability.Int("server", int(ex.Instance.ID)),
		observability.String("context", res.Key.String()),
	)
	logger.Debug("intercepting upstream response",
		observability.String("branch", branch),
		observability.Int("status", ex.Response.StatusCode),
	)

	base := hooks.Exchange{
		ServerID: int(ex.Instance.ID),
		Route:    res.Key.String(),
		Params:   res.Params,
		Request:  ex.Request,
		Writer:   ex.Writer,
		Toolkit:  p.toolkit,
	}

	switch branch {
	case BranchRedirect:
		return p.redirect(ctx, ex, entry, base)
	case BranchSelfHandle:
		return p.selfHandle(ctx, ex, entry, base)
	default:
		p.rewriteCookies(ex.Response.Header, opts)
		return false, nil
	}
}

func isRedirect(resp *http.Response) bool {
	return util.IsRedirectStatus(resp.StatusCode) && resp.Header.Get("Location") != ""
}

func (p *Pipeline) redirect(ctx context.Context, ex *Exchange, entry *registry.HandlerEntry, base hooks.Exchange) (bool, error) {
	opts := entry.Options()
	var upstreamURL *url.URL
	if ex.Response.Request != nil {
		upstreamURL = ex.Response.Request.URL
	}
	location, err := rewriteLocation(ex.Response.Header.Get("Location"), upstreamURL, ex.Request, opts)
	if err != nil {
		return false, util.NewForwardingError(int(ex.Instance.ID), ex.Instance.Target.String(), "invalid upstream Location", err)
	}

	if opts.Follow() {
		http.Redirect(ex.Writer, ex.Request, location, ex.Response.StatusCode)
		return true, nil
	}

	result, err := entry.OnRedirect().Handle(ctx, &hooks.RedirectEvent{
		Exchange:   base,
		StatusCode: ex.Response.StatusCode,
		Location:   location,
	})
	if err != nil {
		p.metrics.RecordHookError(HookOnRedirect)
		return false, util.NewHandlerError(base.Route, HookOnRedirect, err)
	}
	if result.Status.Code != 0 {
		finalize(ex.Writer, result, ex.Response.StatusCode)
	}
	return true, nil
}

func (p *Pipeline) selfHandle(ctx context.Context, ex *Exchange, entry *registry.HandlerEntry, base hooks.Exchange) (bool, error) {
	upstream := ex.Response

	body, closeDecoder, err := decoder(upstream.Header.Get("Content-Encoding"), upstream.Body)
	if err != nil {
		return false, util.NewForwardingError(int(ex.Instance.ID), ex.Instance.Target.String(), "decoding upstream body", err)
	}
	var buf bytes.Buffer
	_, err = io.Copy(&buf, body)
	if cerr := closeDecoder(); err == nil {
		err = cerr
	}
	if err != nil {
		return false, util.NewForwardingError(int(ex.Instance.ID), ex.Instance.Target.String(), "reading upstream body", err)
	}

	dst := ex.Writer.Header()
	saved := dst.Clone()
	for name, values := range upstream.Header {
		if isStrippedHeader(name) {
			continue
		}
		dst[name] = append([]string(nil), values...)
	}
	rewriteSetCookies(dst, stripCookieDomain)

	var result hooks.Result
	if upstream.StatusCode == http.StatusNotModified {
		result = p.toolkit.RespondUnmodified()
	} else {
		result, err = entry.OnResponse().Handle(ctx, &hooks.RespondEvent{
			Exchange:   base,
			Body:       buf.Bytes(),
			StatusCode: upstream.StatusCode,
			Header:     upstream.Header,
		})
		if err != nil {
			resetHeader(dst, saved)
			p.metrics.RecordHookError(HookOnResponse)
			return false, util.NewHandlerError(base.Route, HookOnResponse, err)
		}
	}

	finalize(ex.Writer, result, upstream.StatusCode)
	return true, nil
}

// rewriteCookies applies the route's cookie domain and path rewrites to a
// streamed response.
func (p *Pipeline) rewriteCookies(h http.Header, opts registry.RequestOptions) {
	if opts.CookieDomainRewrite != "" {
		rewriteSetCookies(h, func(v string) string {
			return rewriteCookieAttr(v, "domain", opts.CookieDomainRewrite, false)
		})
	}
	if opts.CookiePathRewrite != "" {
		rewriteSetCookies(h, func(v string) string {
			return rewriteCookieAttr(v, "path", opts.CookiePathRewrite, false)
		})
	}
}

// resetHeader replaces the contents of h with saved.
func resetHeader(h, saved http.Header) {
	for name := range h {
		delete(h, name)
	}
	for name, values := range saved {
		h[name] = values
	}
}

func isStrippedHeader(name string) bool {
	for _, h := range util.HopHeaders {
		if http.CanonicalHeaderKey(name) == h {
			return true
		}
	}
	return false
}

// finalize writes result to w. A zero result status falls back to the
// upstream status. net/http always sends the standard reason phrase, so
// Status.Message is not sent on the wire.
func finalize(w http.ResponseWriter, result hooks.Result, upstreamStatus int) {
	code := result.Status.Code
	if code == 0 {
		code = upstreamStatus
	}
	if bodyAllowed(code) {
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
	} else {
		w.Header().Del("Content-Length")
	}
	w.WriteHeader(code)
	if bodyAllowed(code) && len(result.Body) > 0 {
		_, _ = w.Write(result.Body)
	}
}

func bodyAllowed(code int) bool {
	return code >= 200 && code != http.StatusNoContent && code != http.StatusNotModified
}
