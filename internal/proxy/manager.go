package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/managedproxy/internal/intercept"
	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/registry"
	"github.com/vyrodovalexey/managedproxy/internal/router"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// RouteKey is the gin context key holding the resolved route of a proxied
// request, for logging and metrics.
const RouteKey = "managedproxy.route"

// Manager creates proxy servers and the gin middleware that serves their
// routes.
type Manager struct {
	registry      *registry.Registry
	pipeline      *intercept.Pipeline
	logger        observability.Logger
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	transport     http.RoundTripper
	flushInterval time.Duration

	mu         sync.RWMutex
	forwarders map[registry.ServerID]*httputil.ReverseProxy
}

// Option is a functional option for configuring the manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer *observability.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// WithTransport sets the upstream transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithFlushInterval sets the flush interval for streamed responses.
func WithFlushInterval(interval time.Duration) Option {
	return func(m *Manager) {
		m.flushInterval = interval
	}
}

// NewManager creates a manager over reg. Upstream responses are run through
// pipeline.
func NewManager(reg *registry.Registry, pipeline *intercept.Pipeline, opts ...Option) *Manager {
	m := &Manager{
		registry:   reg,
		pipeline:   pipeline,
		logger:     observability.NopLogger(),
		transport:  http.DefaultTransport,
		forwarders: make(map[registry.ServerID]*httputil.ReverseProxy),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Create adds a proxy server and builds its reverse proxy.
func (m *Manager) Create(opts registry.ProxyOptions) (registry.ServerID, error) {
	id, err := m.registry.Create(opts)
	if err != nil {
		return 0, err
	}
	inst, err := m.registry.Get(id)
	if err != nil {
		return 0, err
	}

	transport := m.transport
	if opts.CircuitBreaker != nil {
		transport = m.newBreakerTransport(inst.Name(), opts.CircuitBreaker, transport)
	}

	rp := &httputil.ReverseProxy{
		Rewrite:       m.rewrite,
		Transport:     transport,
		FlushInterval: m.flushInterval,
		ModifyResponse: func(resp *http.Response) error {
			return m.modifyResponse(resp)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			m.writeError(w, r, int(id), err)
		},
	}

	m.mu.Lock()
	m.forwarders[id] = rp
	m.mu.Unlock()

	return id, nil
}

// RegisterAndGetMiddleware registers a route on server id and returns the
// gin middleware serving it.
func (m *Manager) RegisterAndGetMiddleware(
	id registry.ServerID,
	method, path string,
	reg registry.Registration,
) (gin.HandlerFunc, error) {
	m.mu.RLock()
	rp, ok := m.forwarders[id]
	m.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("%w: %d", registry.ErrServerNotFound, id)
		return nil, util.NewConfigErrorWithCause("server", err.Error(), err)
	}

	key, err := m.registry.Register(id, method, path, reg)
	if err != nil {
		return nil, err
	}
	inst, err := m.registry.Get(id)
	if err != nil {
		return nil, err
	}

	return m.routeMiddleware(inst, key, rp), nil
}

func resolutionKey(id registry.ServerID) string {
	return fmt.Sprintf("managedproxy.resolution.%d", id)
}

func (m *Manager) routeMiddleware(inst *registry.Instance, key router.ContextKey, rp *httputil.ReverseProxy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var res router.Resolution
		if cached, ok := c.Get(resolutionKey(inst.ID)); ok {
			res = cached.(router.Resolution)
		} else {
			res = inst.Resolve(c.Request.Method, c.Request.URL.Path)
			c.Set(resolutionKey(inst.ID), res)
		}
		if res.Key != key {
			c.Next()
			return
		}

		entry, ok := inst.Lookup(key)
		if !ok {
			c.Next()
			return
		}

		c.Set(RouteKey, key.String())

		ctx := util.ContextWithServerID(c.Request.Context(), int(inst.ID))
		ctx = util.ContextWithRoute(ctx, key.String())
		if len(res.Params) > 0 {
			ctx = util.ContextWithPathParams(ctx, res.Params)
		}

		st := &exchangeState{
			instance: inst,
			key:      key,
			options:  entry.Options(),
			writer:   c.Writer,
		}
		if body, ok := c.Get(ParsedBodyKey); ok {
			st.parsedBody = body
		}
		req := c.Request.WithContext(withState(ctx, st))
		st.request = req
		c.Request = req

		rp.ServeHTTP(c.Writer, req)
		c.Abort()
	}
}

// rewrite builds the outgoing request from the route and server options.
func (m *Manager) rewrite(pr *httputil.ProxyRequest) {
	st, ok := stateFrom(pr.In.Context())
	if !ok {
		return
	}

	target := st.instance.Target
	if st.options.TargetOverride != "" {
		if u, err := url.Parse(st.options.TargetOverride); err == nil {
			target = u
		}
	}
	pr.SetURL(target)

	opts := st.instance.Options
	if !opts.ChangeOrigin {
		pr.Out.Host = pr.In.Host
	}
	if opts.XForwarded {
		pr.SetXForwarded()
	}
	for name, value := range opts.Headers {
		pr.Out.Header.Set(name, value)
	}

	if st.parsedBody != nil {
		if err := writeParsedBody(pr.Out, st.parsedBody); err != nil {
			m.logger.WithContext(pr.In.Context()).Warn("parsed body not re-encoded",
				observability.String("context", st.key.String()),
				observability.Error(err),
			)
		}
	}

	observability.InjectTraceContext(pr.Out.Context(), pr.Out)
}

func (m *Manager) modifyResponse(resp *http.Response) error {
	st, ok := stateFrom(resp.Request.Context())
	if !ok {
		return nil
	}

	handled, err := m.pipeline.Handle(&intercept.Exchange{
		Instance: st.instance,
		Request:  st.request,
		Response: resp,
		Writer:   st.writer,
	})
	if err != nil {
		return err
	}
	if handled {
		return errHandled
	}
	return nil
}
