package ratelimit

import (
	"sync"
	"time"

	"coincast/internal/domain/models"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a per-provider token bucket. A rate-limited source (the crypto
// market-data API in particular) gets shielded locally before we ever see a
// 429 from it.
type Limiter struct {
	mu sync.Mutex
	m  map[models.ProviderID]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[models.ProviderID]*bucket)} }

// Allow returns true if one token can be consumed for the provider.
func (l *Limiter) Allow(id models.ProviderID, capacity, refillPerSec float64) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[id]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[id] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}
