package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	maxTrackedClients = 10_000
	clientIdleTTL     = time.Hour
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(*http.Request) string

// RateLimiter hands out one token bucket per client key. Buckets for clients
// idle longer than an hour are evicted.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	window  time.Duration
	key     KeyFunc
	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows requests per window for each key, bursting up to
// requests. A nil key charges the remote IP. Non-positive requests disable
// the limit.
func NewRateLimiter(requests int, window time.Duration, key KeyFunc) *RateLimiter {
	if key == nil {
		key = RemoteIP
	}
	limit := rate.Inf
	if requests > 0 && window > 0 {
		limit = rate.Every(window / time.Duration(requests))
	}
	return &RateLimiter{
		limit:   limit,
		burst:   requests,
		window:  window,
		key:     key,
		buckets: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientIdleTTL),
	}
}

// Allow reports whether a request for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	l, ok := rl.buckets.Get(key)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.buckets.Add(key, l)
	}
	rl.mu.Unlock()
	return l.Allow()
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)
		if !rl.Allow(key) {
			slog.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RemoteIP keys requests by client address.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
