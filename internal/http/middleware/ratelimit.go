package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter throttles clients with per-client token buckets. Buckets refill
// continuously at perSecond tokens up to burst. Clients idle longer than
// idleAfter are evicted lazily on the next sweep, so no background
// goroutine is needed.
type Limiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	perSecond float64
	burst     float64
	idleAfter time.Duration
	lastSweep time.Time

	now func() time.Time // test seam
}

type clientBucket struct {
	remaining float64
	refilled  time.Time
}

// NewLimiter creates a limiter allowing perSecond requests with the given
// burst per client.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		clients:   make(map[string]*clientBucket),
		perSecond: perSecond,
		burst:     float64(burst),
		idleAfter: 10 * time.Minute,
		now:       time.Now,
	}
}

// Take consumes one token for the client, reporting whether the request
// is within the limit.
func (l *Limiter) Take(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	cb, ok := l.clients[client]
	if !ok {
		cb = &clientBucket{remaining: l.burst, refilled: now}
		l.clients[client] = cb
	}
	cb.remaining = min(l.burst, cb.remaining+now.Sub(cb.refilled).Seconds()*l.perSecond)
	cb.refilled = now

	if cb.remaining < 1 {
		return false
	}
	cb.remaining--
	return true
}

func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleAfter {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-l.idleAfter)
	for client, cb := range l.clients {
		if cb.refilled.Before(cutoff) {
			delete(l.clients, client)
		}
	}
}

// RateLimit rejects requests over the configured rate with a 429 and the
// API's usual failure body.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := NewLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Take(clientKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"reason":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey prefers the address resolved by chi's RealIP middleware and
// falls back to the connection's host without the ephemeral port.
func clientKey(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
