package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterEntry holds a rate limiter with last used timestamp
type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// keyRateLimiter manages per-client rate limiters with automatic cleanup
type keyRateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.RWMutex // getLimiter mutates lastUsed, so it takes the write lock
	limit    rate.Limit
	burst    int
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newKeyRateLimiter(limit rate.Limit, burst int) *keyRateLimiter {
	k := &keyRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
		stopCh:   make(chan struct{}),
	}
	// Start cleanup goroutine
	go k.cleanupLoop()
	return k
}

func (k *keyRateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()

	k.mu.Lock()
	defer k.mu.Unlock()

	if entry, ok := k.limiters[key]; ok {
		entry.lastUsed = now
		return entry.limiter
	}
	limiter := rate.NewLimiter(k.limit, k.burst)
	k.limiters[key] = &limiterEntry{limiter: limiter, lastUsed: now}
	return limiter
}

// cleanupLoop removes stale entries every 5 minutes
func (k *keyRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.removeIdleSince(time.Now().Add(-10 * time.Minute))
		case <-k.stopCh:
			return
		}
	}
}

// removeIdleSince drops entries not used after cutoff
func (k *keyRateLimiter) removeIdleSince(cutoff time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for key, entry := range k.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

// Stop terminates the cleanup goroutine
func (k *keyRateLimiter) Stop() {
	k.stopOnce.Do(func() { close(k.stopCh) })
}

// size reports the number of tracked keys
func (k *keyRateLimiter) size() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.limiters)
}

// RateLimitConfig defines configuration for the rate limiting middleware
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// IPRateLimiter enforces per client IP limits on the key validation and
// generation endpoints
type IPRateLimiter struct {
	limiter    *keyRateLimiter
	retryAfter string
}

// NewIPRateLimiter creates a limiter. Stop it when the server shuts down.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerMinute / 6
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}

	interval := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return &IPRateLimiter{
		limiter:    newKeyRateLimiter(rate.Every(interval), cfg.Burst),
		retryAfter: strconv.Itoa(int(math.Ceil(interval.Seconds()))),
	}
}

// Middleware returns the gin handler
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.limiter.getLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", l.retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
				"code":  "rate_limited",
			})
			return
		}

		c.Next()
	}
}

// Stop terminates the background cleanup
func (l *IPRateLimiter) Stop() {
	l.limiter.Stop()
}
