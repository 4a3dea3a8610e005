package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// Client limiter housekeeping.
const (
	DefaultClientTTL   = 10 * time.Minute
	MinCleanupInterval = 10 * time.Second
	MaxCleanupInterval = time.Minute
)

type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter is a token bucket limiter, global or per client IP.
type RateLimiter struct {
	limiter   *rate.Limiter
	perClient bool
	rps       float64
	burst     int
	clientTTL time.Duration
	logger    observability.Logger

	mu      sync.Mutex
	clients map[string]*clientEntry
	stopCh  chan struct{}
	stopped bool
}

// RateLimiterOption is a functional option for configuring the rate limiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterLogger sets the logger.
func WithRateLimiterLogger(logger observability.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

// WithClientTTL sets how long an idle client limiter is kept.
func WithClientTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.clientTTL = ttl
	}
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst. Per-client limiters are cleaned up in the background
// until Stop.
func NewRateLimiter(rps float64, burst int, perClient bool, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		perClient: perClient,
		rps:       rps,
		burst:     burst,
		clientTTL: DefaultClientTTL,
		logger:    observability.NopLogger(),
		clients:   make(map[string]*clientEntry),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}
	if perClient {
		go rl.cleanupLoop()
	}
	return rl
}

// Allow reports whether a request from clientIP may proceed.
func (rl *RateLimiter) Allow(clientIP string) bool {
	if !rl.perClient {
		return rl.limiter.Allow()
	}

	rl.mu.Lock()
	entry, ok := rl.clients[clientIP]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.clients[clientIP] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// CleanupOldClients drops client limiters idle for longer than maxAge.
func (rl *RateLimiter) CleanupOldClients(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for ip, entry := range rl.clients {
		if now.Sub(entry.lastAccess) > maxAge {
			delete(rl.clients, ip)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("cleaned up expired rate limiter entries",
			observability.Int("removed", removed),
			observability.Int("remaining", len(rl.clients)),
		)
	}
}

func (rl *RateLimiter) cleanupLoop() {
	interval := min(max(rl.clientTTL/2, MinCleanupInterval), MaxCleanupInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.CleanupOldClients(rl.clientTTL)
		case <-rl.stopCh:
			return
		}
	}
}

// Stop ends background cleanup.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !rl.stopped {
		rl.stopped = true
		close(rl.stopCh)
	}
}

// RateLimit returns a middleware that answers 429 once the limiter is
// exhausted.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !rl.Allow(clientIP) {
			rl.logger.WithContext(c.Request.Context()).Warn("rate limit exceeded",
				observability.String("client_ip", clientIP),
				observability.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
