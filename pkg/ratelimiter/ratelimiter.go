package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements per-client token bucket limiting with in-memory tracking
type RateLimiter struct {
	clients map[string]*client
	mutex   sync.Mutex
	limit   rate.Limit
	burst   int
}

// New creates a RateLimiter allowing requestsPerSecond sustained with the given burst
func New(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	c, exists := rl.clients[key]
	if !exists {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// IsAllowed reports whether the client may make a request now, consuming a token if so
func (rl *RateLimiter) IsAllowed(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Remaining returns the whole tokens currently available to the client
func (rl *RateLimiter) Remaining(key string) int {
	tokens := int(rl.getLimiter(key).Tokens())
	if tokens < 0 {
		return 0
	}
	return tokens
}

// RetryAfter returns how long the client has to wait for the next token
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	r := rl.getLimiter(key).Reserve()
	defer r.Cancel()
	return r.Delay()
}

// Size returns the number of tracked clients
func (rl *RateLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.clients)
}

// Cleanup forgets clients not seen for idle
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) > idle {
			delete(rl.clients, key)
		}
	}
}
