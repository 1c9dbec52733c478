package middleware

import (
	"net"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// maxLimiters bounds the per-client limiter map. A kiosk only ever sees a
// handful of clients.
const maxLimiters = 1024

// RateLimiter throttles session commands per client address.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a rate limiter allowing requestsPerSecond with the
// given burst per client.
func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// clientKey returns the client host. RemoteAddr has already been rewritten
// by chi's RealIP middleware when a proxy header is present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.getLimiter(key).Allow() {
			log.WithFields(log.Fields{
				"client": key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("Rate limit exceeded")

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
