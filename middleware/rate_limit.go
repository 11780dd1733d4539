package middleware

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleTTL are swept so the map stays bounded by active clients.
type RateLimiter struct {
	buckets   sync.Map
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	idle := defaultIdleTTL
	// An evicted bucket must already have refilled, or eviction would reset a throttled client.
	if rps > 0 {
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst, idleTTL: idle, now: time.Now}
}

func (l *RateLimiter) bucket(key string) *clientBucket {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*clientBucket)
	}
	actual, _ := l.buckets.LoadOrStore(key, &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)})
	return actual.(*clientBucket)
}

// Allow reports whether the client identified by key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()
	b := l.bucket(key)
	b.lastSeen.Store(now.UnixNano())
	allowed := b.limiter.AllowN(now, 1)
	l.sweep(now)
	return allowed
}

// sweep drops idle buckets at most once per idleTTL.
func (l *RateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idleTTL) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	cutoff := now.Add(-l.idleTTL).UnixNano()
	l.buckets.Range(func(key, value any) bool {
		if value.(*clientBucket).lastSeen.Load() < cutoff {
			l.buckets.Delete(key)
		}
		return true
	})
}

func (l *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, slow down")
		}
		return c.Next()
	}
}
