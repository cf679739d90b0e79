package httpapi

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(key string) bool
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// NewClientRateLimiter allows requests events per window for each key, plus
// burst. Keys idle for longer than ttl are forgotten.
func NewClientRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	return newClientRateLimiter(requests, window, burst, ttl, time.Now)
}

func newClientRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration, now func() time.Time) *clientRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &clientRateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     now,
	}
}

func (l *clientRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	now := l.now()

	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	for k, other := range l.clients {
		if now.Sub(other.lastSeen) > l.ttl {
			delete(l.clients, k)
		}
	}
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

func (l *clientRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
