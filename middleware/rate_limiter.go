// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/microtask/microtask_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// limiterEntry remembers when a limiter was last used so idle ones can be
// swept. A limiter idle longer than its refill time is as good as new.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	ips            map[string]*limiterEntry
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	idleTTL        time.Duration
	endpointLimits map[string]endpointLimit
	now            func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		ips:           make(map[string]*limiterEntry),
		blockedIPs:    make(map[string]time.Time),
		defaultLimit:  rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		idleTTL:       10 * time.Minute,
		endpointLimits: map[string]endpointLimit{
			// sign-in and sign-up are the brute force targets
			"/jwt":                       {limit: rate.Every(2 * time.Second), burst: 5},
			"/user":                      {limit: rate.Every(500 * time.Millisecond), burst: 5},
			"/api/create-payment-intent": {limit: rate.Every(time.Second), burst: 5},
		},
		now: time.Now,
	}
}

// Cleanup sweeps expired blocks and idle limiters every interval until stop
// is closed
func (r *RateLimiter) Cleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			r.forget(ip)
		}
	}
	for key, entry := range r.ips {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/uploads/") {
				return next(c)
			}
			ip := c.RealIP()

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if r.now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, blockUntil)
				}
				r.forget(ip)
			}

			limit, burst := r.defaultLimit, r.defaultBurst
			if el, ok := r.endpointLimits[c.Path()]; ok {
				limit, burst = el.limit, el.burst
			}
			now := r.now()
			key := ip + "|" + c.Path()
			entry, exists := r.ips[key]
			if !exists {
				entry = &limiterEntry{limiter: rate.NewLimiter(limit, burst)}
				r.ips[key] = entry
			}
			entry.lastSeen = now
			if !entry.limiter.AllowN(now, 1) {
				blockUntil := now.Add(r.blockDuration)
				r.blockedIPs[ip] = blockUntil
				r.mu.Unlock()
				return tooManyRequests(c, blockUntil)
			}
			r.mu.Unlock()

			return next(c)
		}
	}
}

// forget drops the block and every per-path limiter of ip. Caller holds r.mu.
func (r *RateLimiter) forget(ip string) {
	delete(r.blockedIPs, ip)
	prefix := ip + "|"
	for key := range r.ips {
		if strings.HasPrefix(key, prefix) {
			delete(r.ips, key)
		}
	}
}

func tooManyRequests(c echo.Context, retryAfter time.Time) error {
	c.Response().Header().Set("Retry-After", retryAfter.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests",
	})
}
