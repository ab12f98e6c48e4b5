package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"ms-storefront/internal/utils"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 15 * time.Minute

// IPRateLimiter keeps one token bucket per client IP. Forwarded headers count
// only from TrustedProxies.
type IPRateLimiter struct {
	TrustedProxies []*net.IPNet

	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Cleanup drops buckets that have been idle for a while.
func (l *IPRateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-limiterIdleTTL)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// Middleware answers 429 once a client IP runs out of tokens.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(utils.ClientIP(r, l.TrustedProxies)) {
			retry := 1
			if l.limit < 1 {
				retry = int(1/float64(l.limit) + 0.5)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			utils.WriteJSON(w, http.StatusTooManyRequests, utils.ErrorResponse("too many requests", "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
