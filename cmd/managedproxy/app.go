package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/managedproxy/internal/actions"
	"github.com/vyrodovalexey/managedproxy/internal/config"
	"github.com/vyrodovalexey/managedproxy/internal/health"
	"github.com/vyrodovalexey/managedproxy/internal/intercept"
	"github.com/vyrodovalexey/managedproxy/internal/middleware"
	"github.com/vyrodovalexey/managedproxy/internal/observability"
	"github.com/vyrodovalexey/managedproxy/internal/proxy"
	"github.com/vyrodovalexey/managedproxy/internal/registry"
	"github.com/vyrodovalexey/managedproxy/internal/server"
	"github.com/vyrodovalexey/managedproxy/internal/toolkit"
	"github.com/vyrodovalexey/managedproxy/internal/views"
)

// application holds all application components.
type application struct {
	server  *server.Server
	manager *proxy.Manager
	metrics *observability.Metrics
	tracer  *observability.Tracer
	watcher *views.Watcher
	limiter *middleware.RateLimiter
	config  *config.Config
}

// newApplication wires every component from a validated configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger observability.Logger) (*application, error) {
	metrics := observability.NewMetrics("managedproxy")
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer, err := observability.NewTracer(ctx, observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	renderer, watcher, err := initViews(cfg.Views, logger)
	if err != nil {
		return nil, err
	}

	tk := toolkit.New(renderer, toolkit.WithLogger(logger))
	pipeline := intercept.New(tk,
		intercept.WithLogger(logger),
		intercept.WithMetrics(metrics),
		intercept.WithTracer(tracer),
	)
	reg := registry.New(registry.WithLogger(logger), registry.WithMetrics(metrics))
	manager := proxy.NewManager(reg, pipeline,
		proxy.WithLogger(logger),
		proxy.WithMetrics(metrics),
		proxy.WithTracer(tracer),
	)

	checker := health.NewChecker(version)
	checker.RegisterCheck("registry", func() health.Check {
		if reg.Len() == 0 {
			return health.Check{Status: health.StatusUnhealthy, Message: "no proxy servers"}
		}
		return health.Check{Status: health.StatusHealthy}
	})

	srvOpts := []server.Option{
		server.WithLogger(logger),
		server.WithShutdownTimeout(cfg.ShutdownTimeout.Duration()),
		server.WithHealthChecker(checker),
	}
	if cfg.Metrics.Enabled {
		srvOpts = append(srvOpts, server.WithMetricsListener(cfg.Metrics.Listen, cfg.Metrics.Path, metrics))
	}
	srv := server.New(cfg.Listen, srvOpts...)
	srv.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(tracer),
		middleware.Logging(logger),
		middleware.Metrics(metrics),
	)
	var limiter *middleware.RateLimiter
	if rl := cfg.RateLimit; rl.Enabled {
		limiter = middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst, rl.PerClient,
			middleware.WithRateLimiterLogger(logger))
		srv.Use(middleware.RateLimit(limiter))
	}
	srv.Use(middleware.BodyParser(cfg.MaxBodySize, logger))

	routes, err := registerServers(manager, cfg.Servers)
	if err != nil {
		if limiter != nil {
			limiter.Stop()
		}
		if watcher != nil {
			_ = watcher.Stop()
		}
		return nil, err
	}
	srv.Use(routes...)

	return &application{
		server:  srv,
		manager: manager,
		metrics: metrics,
		tracer:  tracer,
		watcher: watcher,
		limiter: limiter,
		config:  cfg,
	}, nil
}

// initViews builds the renderer, and its watcher when enabled. Without a
// views directory the renderer is nil and render actions answer 500.
func initViews(cfg config.ViewsConfig, logger observability.Logger) (views.Renderer, *views.Watcher, error) {
	if cfg.Dir == "" {
		return nil, nil, nil
	}

	opts := []views.Option{views.WithLogger(logger)}
	if cfg.Extension != "" {
		opts = append(opts, views.WithExtension(cfg.Extension))
	}
	renderer, err := views.NewTemplateRenderer(cfg.Dir, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load views: %w", err)
	}
	if !cfg.Watch {
		return renderer, nil, nil
	}

	watcher, err := views.NewWatcher(renderer, views.WithWatcherLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create views watcher: %w", err)
	}
	return renderer, watcher, nil
}

// registerServers creates every configured server and registers its
// routes, returning the route middlewares in declaration order.
func registerServers(manager *proxy.Manager, servers []config.ServerConfig) ([]gin.HandlerFunc, error) {
	var handlers []gin.HandlerFunc
	for i := range servers {
		s := &servers[i]
		id, err := manager.Create(proxyOptions(s))
		if err != nil {
			return nil, fmt.Errorf("servers[%d]: %w", i, err)
		}

		for j := range s.Routes {
			r := &s.Routes[j]
			reg, err := registration(r)
			if err != nil {
				return nil, fmt.Errorf("servers[%d].routes[%d]: %w", i, j, err)
			}
			h, err := manager.RegisterAndGetMiddleware(id, r.Method, r.Path, reg)
			if err != nil {
				return nil, fmt.Errorf("servers[%d].routes[%d]: %w", i, j, err)
			}
			handlers = append(handlers, h)
		}
	}
	return handlers, nil
}

func proxyOptions(s *config.ServerConfig) registry.ProxyOptions {
	opts := registry.ProxyOptions{
		Name:         s.Name,
		Target:       s.Target,
		ChangeOrigin: s.ChangeOrigin,
		XForwarded:   s.XForwarded,
		Headers:      s.Headers,
	}
	if cb := s.CircuitBreaker; cb != nil && cb.Enabled {
		opts.CircuitBreaker = &registry.BreakerOptions{
			MaxRequests:      cb.MaxRequests,
			Interval:         cb.Interval.Duration(),
			Timeout:          cb.Timeout.Duration(),
			FailureThreshold: cb.FailureThreshold,
		}
	}
	return opts
}

func registration(r *config.RouteConfig) (registry.Registration, error) {
	reg := registry.Registration{
		Request: &registry.RequestOptions{
			TargetOverride:      r.TargetOverride,
			FollowRedirects:     r.FollowRedirects,
			SelfHandleResponse:  r.SelfHandleResponse,
			HostRewrite:         r.HostRewrite,
			AutoRewrite:         r.AutoRewrite,
			ProtocolRewrite:     r.ProtocolRewrite,
			CookieDomainRewrite: r.CookieDomainRewrite,
			CookiePathRewrite:   r.CookiePathRewrite,
		},
	}

	if r.Response != nil {
		h, err := actions.Response(r.Response.Spec())
		if err != nil {
			return reg, err
		}
		reg.OnResponse = h
	}
	if r.Redirect != nil {
		h, err := actions.Redirect(r.Redirect.Spec())
		if err != nil {
			return reg, err
		}
		reg.OnRedirect = h
	}
	return reg, nil
}
