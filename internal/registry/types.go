package registry

import (
	"time"

	"github.com/vyrodovalexey/managedproxy/internal/hooks"
)

// ServerID identifies a proxy server instance.
type ServerID int

// BreakerOptions configures the per-server circuit breaker.
type BreakerOptions struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// ProxyOptions configures a proxy server instance.
type ProxyOptions struct {
	Name         string
	Target       string
	ChangeOrigin bool
	XForwarded   bool
	// Headers are set on every outgoing request.
	Headers        map[string]string
	CircuitBreaker *BreakerOptions
}

// Protocol rewrite values.
const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// RequestOptions are the per-route forwarding options.
type RequestOptions struct {
	TargetOverride string
	// FollowRedirects defaults to true when nil.
	FollowRedirects     *bool
	SelfHandleResponse  bool
	HostRewrite         string
	AutoRewrite         bool
	ProtocolRewrite     string
	CookieDomainRewrite string
	CookiePathRewrite   string
}

// Follow reports the effective follow-redirects setting.
func (o RequestOptions) Follow() bool {
	return o.FollowRedirects == nil || *o.FollowRedirects
}

// Bool returns a pointer to b, for optional fields.
func Bool(b bool) *bool {
	return &b
}

// Registration is the input to Register.
type Registration struct {
	Request    *RequestOptions
	OnResponse hooks.Handler
	OnRedirect hooks.Handler
}

// RequestHalf holds the forwarding side of a route.
type RequestHalf struct {
	Options RequestOptions
}

// ResponseHalf holds the interception side of a route.
type ResponseHalf struct {
	OnResponse hooks.Handler
	OnRedirect hooks.Handler
}

// HandlerEntry is a stored route. It is never modified after Register
// returns.
type HandlerEntry struct {
	Request  *RequestHalf
	Response *ResponseHalf
}

// Options returns the route's request options, or defaults when the entry
// has no request half.
func (e *HandlerEntry) Options() RequestOptions {
	if e == nil || e.Request == nil {
		return RequestOptions{FollowRedirects: Bool(true)}
	}
	return e.Request.Options
}

// OnResponse returns the response hook, if any.
func (e *HandlerEntry) OnResponse() hooks.Handler {
	if e == nil || e.Response == nil {
		return nil
	}
	return e.Response.OnResponse
}

// OnRedirect returns the redirect hook, if any.
func (e *HandlerEntry) OnRedirect() hooks.Handler {
	if e == nil || e.Response == nil {
		return nil
	}
	return e.Response.OnRedirect
}
