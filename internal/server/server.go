package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/managedproxy/internal/health"
	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// State represents the server state.
type State int32

const (
	// StateStopped indicates the server is stopped.
	StateStopped State = iota
	// StateStarting indicates the server is starting.
	StateStarting
	// StateRunning indicates the server is running.
	StateRunning
	// StateStopping indicates the server is stopping.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Probe paths. HealthPath is served by every server; ReadyPath only when a
// health checker is configured.
const (
	HealthPath = "/healthz"
	ReadyPath  = "/readyz"
)

var ginModeOnce sync.Once

// Server is the front HTTP server.
type Server struct {
	engine    *gin.Engine
	proxy     *Listener
	metrics   *Listener
	logger    observability.Logger
	state     atomic.Int32
	startTime time.Time

	shutdownTimeout time.Duration
	metricsAddr     string
	metricsHandler  http.Handler
	checker         *health.Checker
}

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// WithMetricsListener serves m on addr at path.
func WithMetricsListener(addr, path string, m *observability.Metrics) Option {
	return func(s *Server) {
		mux := http.NewServeMux()
		mux.Handle(path, m.Handler())
		s.metricsAddr = addr
		s.metricsHandler = mux
	}
}

// WithHealthChecker serves checker on ReadyPath and adds a "server" check
// that is healthy while the server is running.
func WithHealthChecker(checker *health.Checker) Option {
	return func(s *Server) {
		s.checker = checker
	}
}

// New creates a server for listen. Middlewares are installed on the engine
// in order; managed routes are added later with Use.
func New(listen string, opts ...Option) *Server {
	ginModeOnce.Do(func() {
		if os.Getenv(gin.EnvGinMode) == "" {
			gin.SetMode(gin.ReleaseMode)
		}
	})

	s := &Server{
		logger:          observability.NopLogger(),
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.RedirectTrailingSlash = false
	s.engine.RedirectFixedPath = false
	s.engine.GET(HealthPath, health.LivenessHandler())
	if s.checker != nil {
		s.checker.RegisterCheck("server", func() health.Check {
			if st := s.State(); st != StateRunning {
				return health.Check{Status: health.StatusUnhealthy, Message: st.String()}
			}
			return health.Check{Status: health.StatusHealthy}
		})
		s.engine.GET(ReadyPath, s.checker.ReadinessHandler())
	}
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	s.proxy = NewListener("proxy", listen, s.engine, WithListenerLogger(s.logger))
	if s.metricsHandler != nil {
		s.metrics = NewListener("metrics", s.metricsAddr, s.metricsHandler, WithListenerLogger(s.logger))
	}
	s.state.Store(int32(StateStopped))
	return s
}

// Use appends middlewares to the engine. Managed route middlewares run
// before the 404 fallback.
func (s *Server) Use(handlers ...gin.HandlerFunc) {
	s.engine.Use(handlers...)
}

// Engine returns the gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the proxy listener address.
func (s *Server) Addr() string {
	return s.proxy.Addr()
}

// State returns the current server state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Uptime returns the time since Start.
func (s *Server) Uptime() time.Duration {
	if s.State() != StateRunning {
		return 0
	}
	return time.Since(s.startTime)
}

// Start starts the proxy and metrics listeners.
func (s *Server) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("server is not in stopped state")
	}

	if err := s.proxy.Start(ctx); err != nil {
		s.state.Store(int32(StateStopped))
		return err
	}
	if s.metrics != nil {
		if err := s.metrics.Start(ctx); err != nil {
			_ = s.proxy.Stop(ctx)
			s.state.Store(int32(StateStopped))
			return err
		}
	}

	s.startTime = time.Now()
	s.state.Store(int32(StateRunning))
	s.logger.Info("server started", observability.String("address", s.proxy.Addr()))
	return nil
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return fmt.Errorf("server is not running")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	err := s.proxy.Stop(ctx)
	if s.metrics != nil {
		if merr := s.metrics.Stop(ctx); err == nil {
			err = merr
		}
	}

	s.state.Store(int32(StateStopped))
	s.logger.Info("server stopped")
	return err
}
