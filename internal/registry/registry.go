package registry

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/router"
	"github.com/vyrodovalexey/managedproxy/internal/util"
)

// ErrServerNotFound is returned for an unknown server id.
var ErrServerNotFound = errors.New("proxy server not found")

// Instance is a proxy server: its upstream target and route table.
type Instance struct {
	*HandlerTable

	ID      ServerID
	Target  *url.URL
	Options ProxyOptions

	logger observability.Logger
}

// Resolve maps a request to its route context. A miss is logged and falls
// back to the literal path.
func (i *Instance) Resolve(method, path string) router.Resolution {
	res := router.Resolve(i.HandlerTable, method, path)
	if res.Fallback {
		i.logger.Warn("no registered route matched",
			observability.Int("server", int(i.ID)),
			observability.String("context", res.Key.String()),
		)
	}
	return res
}

// Name returns the configured name, or "server-<id>".
func (i *Instance) Name() string {
	if i.Options.Name != "" {
		return i.Options.Name
	}
	return fmt.Sprintf("server-%d", i.ID)
}

// Registry holds every proxy server instance.
type Registry struct {
	mu        sync.RWMutex
	instances []*Instance
	logger    observability.Logger
	metrics   *observability.Metrics
}

// Option is a functional option for configuring the registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics sink for registration outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create adds a server instance for opts.Target and returns its id.
func (r *Registry) Create(opts ProxyOptions) (ServerID, error) {
	if opts.Target == "" {
		return 0, util.NewConfigError("target", "target is required")
	}
	if err := util.ValidateURL(opts.Target); err != nil {
		return 0, util.NewConfigErrorWithCause("target", err.Error(), err)
	}
	target, err := url.Parse(opts.Target)
	if err != nil {
		return 0, util.NewConfigErrorWithCause("target", "invalid target", err)
	}
	for name := range opts.Headers {
		if err := util.ValidateHeaderName(name); err != nil {
			return 0, util.NewConfigErrorWithCause("headers", err.Error(), err)
		}
	}

	r.mu.Lock()
	id := ServerID(len(r.instances))
	inst := &Instance{
		HandlerTable: newHandlerTable(),
		ID:           id,
		Target:       target,
		Options:      opts,
	}
	inst.logger = r.logger.With(observability.String("server_name", inst.Name()))
	r.instances = append(r.instances, inst)
	r.mu.Unlock()

	r.logger.Info("proxy server created",
		observability.Int("server", int(id)),
		observability.String("target", target.String()),
	)
	return id, nil
}

// Get returns the instance for id.
func (r *Registry) Get(id ServerID) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || int(id) >= len(r.instances) {
		return nil, fmt.Errorf("%w: %d", ErrServerNotFound, id)
	}
	return r.instances[id], nil
}

// Len returns the number of instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// Each calls fn for every instance in id order.
func (r *Registry) Each(fn func(*Instance)) {
	r.mu.RLock()
	list := append([]*Instance(nil), r.instances...)
	r.mu.RUnlock()
	for _, inst := range list {
		fn(inst)
	}
}
