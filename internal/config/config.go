package config

import (
	"time"

	"github.com/vyrodovalexey/managedproxy/internal/actions"
)

// Config is the root configuration.
type Config struct {
	Listen          string          `yaml:"listen"`
	ShutdownTimeout Duration        `yaml:"shutdownTimeout,omitempty"`
	MaxBodySize     int64           `yaml:"maxBodySize,omitempty"`
	Logging         LoggingConfig   `yaml:"logging"`
	Metrics         MetricsConfig   `yaml:"metrics"`
	Tracing         TracingConfig   `yaml:"tracing"`
	Views           ViewsConfig     `yaml:"views"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
	Servers         []ServerConfig  `yaml:"servers"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty"`
}

// ViewsConfig configures the view renderer.
type ViewsConfig struct {
	Dir       string `yaml:"dir,omitempty"`
	Extension string `yaml:"extension,omitempty"`
	Watch     bool   `yaml:"watch,omitempty"`
}

// RateLimitConfig configures the request rate limiter.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
	PerClient         bool    `yaml:"perClient,omitempty"`
}

// ServerConfig describes one upstream and its routes.
type ServerConfig struct {
	Name           string                `yaml:"name,omitempty"`
	Target         string                `yaml:"target"`
	ChangeOrigin   bool                  `yaml:"changeOrigin,omitempty"`
	XForwarded     bool                  `yaml:"xForwarded,omitempty"`
	Headers        map[string]string     `yaml:"headers,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty"`
	Routes         []RouteConfig         `yaml:"routes"`
}

// CircuitBreakerConfig configures the per-server breaker.
type CircuitBreakerConfig struct {
	Enabled          bool     `yaml:"enabled"`
	FailureThreshold uint32   `yaml:"failureThreshold,omitempty"`
	MaxRequests      uint32   `yaml:"maxRequests,omitempty"`
	Interval         Duration `yaml:"interval,omitempty"`
	Timeout          Duration `yaml:"timeout,omitempty"`
}

// RouteConfig describes one registered route.
type RouteConfig struct {
	Method              string          `yaml:"method"`
	Path                string          `yaml:"path"`
	TargetOverride      string          `yaml:"targetOverride,omitempty"`
	FollowRedirects     *bool           `yaml:"followRedirects,omitempty"`
	SelfHandleResponse  bool            `yaml:"selfHandleResponse,omitempty"`
	HostRewrite         string          `yaml:"hostRewrite,omitempty"`
	AutoRewrite         bool            `yaml:"autoRewrite,omitempty"`
	ProtocolRewrite     string          `yaml:"protocolRewrite,omitempty"`
	CookieDomainRewrite string          `yaml:"cookieDomainRewrite,omitempty"`
	CookiePathRewrite   string          `yaml:"cookiePathRewrite,omitempty"`
	Response            *ResponseAction `yaml:"response,omitempty"`
	Redirect            *RedirectAction `yaml:"redirect,omitempty"`
}

// ResponseAction is a built-in response hook.
type ResponseAction struct {
	Action  string `yaml:"action"`
	View    string `yaml:"view,omitempty"`
	Status  int    `yaml:"status,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// RedirectAction is a built-in redirect hook.
type RedirectAction struct {
	Action string `yaml:"action"`
	Status int    `yaml:"status,omitempty"`
}

// Defaults.
const (
	DefaultListen          = ":8080"
	DefaultMetricsListen   = ":9090"
	DefaultMetricsPath     = "/metrics"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodySize     = 10 << 20
)

// DefaultConfig returns a configuration with defaults and no servers.
func DefaultConfig() *Config {
	return &Config{
		Listen:          DefaultListen,
		ShutdownTimeout: Duration(DefaultShutdownTimeout),
		MaxBodySize:     DefaultMaxBodySize,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Listen: DefaultMetricsListen,
			Path:   DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			ServiceName:  "managedproxy",
			SamplingRate: 1.0,
		},
	}
}

// applyDefaults fills zero fields from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = d.MaxBodySize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Logging.Output == "" {
		c.Logging.Output = d.Logging.Output
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = d.Metrics.Listen
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}
}

// Spec converts the action to its actions.ResponseSpec.
func (a *ResponseAction) Spec() actions.ResponseSpec {
	return actions.ResponseSpec{Action: a.Action, View: a.View, Status: a.Status, Message: a.Message}
}

// Spec converts the action to its actions.RedirectSpec.
func (a *RedirectAction) Spec() actions.RedirectSpec {
	return actions.RedirectSpec{Action: a.Action, Status: a.Status}
}
