package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds requests per client
type RateLimitConfig struct {
	// PerMinute is the sustained rate; zero disables limiting
	PerMinute int
	// Burst is how many requests may arrive at once
	Burst int
	// OnLimited is called for every rejected request
	OnLimited func(r *http.Request)
}

// rateLimiter tracks a token bucket per client IP
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

// clientLimiter tracks requests for a single client
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiting middleware
func NewRateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.PerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.PerMinute
	}

	limiter := &rateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(cfg.PerMinute) / 60),
		burst:   burst,
	}
	retryAfter := strconv.Itoa(int(math.Ceil(60 / float64(cfg.PerMinute))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(getClientIP(r), time.Now()) {
				if cfg.OnLimited != nil {
					cfg.OnLimited(r)
				}
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"detail": "Request was throttled. Try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow checks if a request is allowed
func (rl *rateLimiter) allow(clientIP string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupLocked(now)

	client, exists := rl.clients[clientIP]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = client
	}
	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}

// cleanupLocked drops clients idle for more than ten minutes.
// Caller MUST hold the lock.
func (rl *rateLimiter) cleanupLocked(now time.Time) {
	for ip, client := range rl.clients {
		if now.Sub(client.lastSeen) > 10*time.Minute {
			delete(rl.clients, ip)
		}
	}
}

// getClientIP extracts client IP from request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (if behind proxy)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
