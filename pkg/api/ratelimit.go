package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter applies a token bucket per client host and evicts idle
// entries as a side effect of regular traffic.
type hostLimiter struct {
	limit rate.Limit
	burst int

	mu     sync.Mutex
	byHost map[string]*hostEntry
	hits   uint64
}

type hostEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newHostLimiter returns nil when rps or burst is non-positive; a nil
// limiter allows everything.
func newHostLimiter(rps float64, burst int) *hostLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &hostLimiter{
		limit:  rate.Limit(rps),
		burst:  burst,
		byHost: make(map[string]*hostEntry),
	}
}

func (l *hostLimiter) allow(host string, now time.Time) bool {
	if l == nil || host == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byHost[host]
	if !ok {
		e = &hostEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byHost[host] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-10 * time.Minute)
		for k, v := range l.byHost {
			if v.lastSeen.Before(cutoff) {
				delete(l.byHost, k)
			}
		}
	}

	return allowed
}

// middleware rejects over-limit requests with 429 before they reach a
// handler. The websocket endpoint is exempt: its cost is one upgrade.
func (l *hostLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.allow(host, time.Now()) {
			respondError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
