package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"cbms/internal/logger"
)

const (
	// loginRateLimit is the number of login attempts allowed per minute per IP.
	loginRateLimit = 10
	// loginBurstSize is the burst size for login attempts.
	loginBurstSize = 5
	// limiterCleanupInterval is the interval for cleaning up stale limiters.
	limiterCleanupInterval = 5 * time.Minute
	// limiterTTL is the time-to-live for inactive limiters.
	limiterTTL = 10 * time.Minute
)

// RateLimiter manages per-client-IP rate limiting for authentication endpoints.
type RateLimiter struct {
	limiters  map[string]*limiterEntry
	mu        sync.Mutex
	rateLimit float64
	burstSize int
	stopCh    chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with login defaults.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(loginRateLimit, loginBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter with custom configuration.
func NewRateLimiterWithConfig(requestsPerMinute, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rateLimit: float64(requestsPerMinute) / 60.0,
		burstSize: burstSize,
		stopCh:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given client IP is allowed.
func (r *RateLimiter) Allow(clientIP string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.limiters[clientIP]
	if !exists {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(rate.Limit(r.rateLimit), r.burstSize),
			lastSeen: time.Now(),
		}
		r.limiters[clientIP] = entry
	} else {
		entry.lastSeen = time.Now()
	}

	return entry.limiter.Allow()
}

// cleanup periodically removes stale limiters to prevent memory leaks.
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for ip, entry := range r.limiters {
				if now.Sub(entry.lastSeen) > limiterTTL {
					delete(r.limiters, ip)
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (r *RateLimiter) Stop() {
	close(r.stopCh)
}

// LoginRateLimit returns a Gin middleware that throttles requests per
// client IP, for use on the auth endpoints.
func LoginRateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			logger.Get().Warnw("rate limit exceeded", "client_ip", ip, "path", c.Request.URL.Path)
			c.Header("Retry-After", fmt.Sprintf("%d", 60))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many attempts. Please retry later.",
				},
			})
			return
		}
		c.Next()
	}
}
