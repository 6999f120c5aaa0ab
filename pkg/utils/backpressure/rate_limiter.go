package backpressure

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// RateLimiter admits or rejects single operations
type RateLimiter interface {
	Allow() bool
	AllowN(n int) bool
	Limit() float64
	Burst() int
}

// TokenBucketLimiter refills rate tokens per second up to burst
type TokenBucketLimiter struct {
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	now        func() time.Time
	mutex      sync.Mutex
}

// NewTokenBucketLimiter creates a full bucket
func NewTokenBucketLimiter(rate float64, burst int) *TokenBucketLimiter {
	if rate <= 0 {
		rate = 1.0
	}
	if burst <= 0 {
		burst = 1
	}

	return &TokenBucketLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: time.Now(),
		now:        time.Now,
	}
}

// Allow checks if a single operation is allowed
func (tb *TokenBucketLimiter) Allow() bool {
	return tb.AllowN(1)
}

// AllowN takes n tokens if they are available
func (tb *TokenBucketLimiter) AllowN(n int) bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill(tb.now())
	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}
	return false
}

func (tb *TokenBucketLimiter) refill(now time.Time) {
	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed.Seconds() * tb.rate
	if tb.tokens > float64(tb.burst) {
		tb.tokens = float64(tb.burst)
	}
	tb.lastUpdate = now
}

// Limit returns the refill rate per second
func (tb *TokenBucketLimiter) Limit() float64 {
	return tb.rate
}

// Burst returns the burst capacity
func (tb *TokenBucketLimiter) Burst() int {
	return tb.burst
}

// KeyedLimiter keeps one token bucket per client key. Idle buckets expire.
type KeyedLimiter struct {
	rate     float64
	burst    int
	limiters *cache.Cache
	mutex    sync.Mutex
	log      *logger.Logger
}

// NewKeyedLimiter creates a limiter whose per-key buckets are dropped after idle
func NewKeyedLimiter(rate float64, burst int, idle time.Duration) *KeyedLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}

	limiter := &KeyedLimiter{
		rate:     rate,
		burst:    burst,
		limiters: cache.New(idle, 2*idle),
		log:      logger.GetLogger("backpressure.keyed"),
	}
	limiter.log.Infof("Keyed rate limiter created with rate=%.2f, burst=%d", rate, burst)
	return limiter
}

// Allow reports whether key may perform one more operation
func (k *KeyedLimiter) Allow(key string) bool {
	return k.limiter(key).Allow()
}

func (k *KeyedLimiter) limiter(key string) RateLimiter {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	if v, ok := k.limiters.Get(key); ok {
		// touch so active clients do not expire
		k.limiters.Set(key, v, cache.DefaultExpiration)
		return v.(RateLimiter)
	}
	l := NewTokenBucketLimiter(k.rate, k.burst)
	k.limiters.Set(key, l, cache.DefaultExpiration)
	return l
}

// Len returns the number of tracked keys
func (k *KeyedLimiter) Len() int {
	return k.limiters.ItemCount()
}
