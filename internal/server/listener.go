package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// Listener serves an http.Handler on one address.
type Listener struct {
	name    string
	addr    string
	server  *http.Server
	handler http.Handler
	logger  observability.Logger
	running atomic.Bool

	mu    sync.RWMutex
	bound net.Addr
}

// ListenerOption is a functional option for configuring a listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the logger for the listener.
func WithListenerLogger(logger observability.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

// NewListener creates a listener for addr.
func NewListener(name, addr string, handler http.Handler, opts ...ListenerOption) *Listener {
	l := &Listener{
		name:    name,
		addr:    addr,
		handler: handler,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the listener name.
func (l *Listener) Name() string {
	return l.name
}

// Addr returns the bound address once started, otherwise the configured
// address.
func (l *Listener) Addr() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.bound != nil {
		return l.bound.String()
	}
	return l.addr
}

// Start binds the address and serves in the background.
func (l *Listener) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("listener %s is already running", l.name)
	}

	// WriteTimeout stays unset so long upstream responses can stream.
	l.server = &http.Server{
		Addr:              l.addr,
		Handler:           l.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		l.running.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", l.addr, err)
	}

	l.mu.Lock()
	l.bound = ln.Addr()
	l.mu.Unlock()

	l.logger.Info("listener started",
		observability.String("name", l.name),
		observability.String("address", ln.Addr().String()),
	)

	go l.serve(ln)
	return nil
}

func (l *Listener) serve(ln net.Listener) {
	if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.logger.Error("listener error",
			observability.String("name", l.name),
			observability.Error(err),
		)
	}
}

// Stop shuts the listener down gracefully, closing it when ctx expires.
func (l *Listener) Stop(ctx context.Context) error {
	if !l.running.CompareAndSwap(true, false) {
		return nil
	}

	l.logger.Info("stopping listener", observability.String("name", l.name))

	if err := l.server.Shutdown(ctx); err != nil {
		if closeErr := l.server.Close(); closeErr != nil {
			return fmt.Errorf("failed to close listener %s: %w", l.name, closeErr)
		}
		return fmt.Errorf("failed to shutdown listener %s: %w", l.name, err)
	}
	return nil
}
