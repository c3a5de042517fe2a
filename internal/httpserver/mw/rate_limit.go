package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/metrics"
	"github.com/sweedalp/smart-bookmark-app/internal/utils"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	Name              string // metrics label, e.g. "auth"
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int           // sweep early once this many clients are tracked
	SweepInterval     time.Duration // how often idle buckets are dropped
	IdleTTL           time.Duration // a bucket unused this long is forgotten
	TrustProxy        bool          // resolve IP from proxy headers when true

	// Key picks the bucket for a request. Defaults to the client IP.
	Key func(r *http.Request) string
	Now func() time.Time
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Name == "" {
		c.Name = "default"
	}
	c.Burst = max(c.Burst, 1)
	c.RefillPerIPPerMin = max(c.RefillPerIPPerMin, 1)
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	if c.Key == nil {
		trust := c.TrustProxy
		c.Key = func(r *http.Request) string { return utils.ClientIP(r, trust) }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// verdict is the outcome of taking one token.
type verdict struct {
	allowed    bool
	remaining  int
	retryAfter int // seconds, only set when !allowed
}

type tokenBuckets struct {
	cfg      RateLimitConfig
	perSec   float64
	capacity float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newTokenBuckets(cfg RateLimitConfig) *tokenBuckets {
	return &tokenBuckets{
		cfg:       cfg,
		perSec:    float64(cfg.RefillPerIPPerMin) / 60.0,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*bucket, 256),
		lastSweep: cfg.Now(),
	}
}

// take refills key's bucket for the time elapsed and spends one token.
func (t *tokenBuckets) take(key string, now time.Time) verdict {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) >= t.cfg.SweepInterval ||
		(t.cfg.MaxEntries > 0 && len(t.buckets) >= t.cfg.MaxEntries) {
		t.sweep(now)
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: t.capacity, updated: now}
		t.buckets[key] = b
	}

	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(t.capacity, b.tokens+elapsed*t.perSec)
		b.updated = now
	}

	if b.tokens < 1 {
		wait := int(math.Ceil((1 - b.tokens) / t.perSec))
		return verdict{retryAfter: max(wait, 1)}
	}

	b.tokens--
	return verdict{allowed: true, remaining: int(b.tokens)}
}

func (t *tokenBuckets) sweep(now time.Time) {
	for key, b := range t.buckets {
		if now.Sub(b.updated) > t.cfg.IdleTTL {
			delete(t.buckets, key)
		}
	}
	t.lastSweep = now
}

func (t *tokenBuckets) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

// RateLimit rejects clients that exhaust their bucket with 429 and a
// Retry-After header. X-RateLimit-* headers are set on every response.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	buckets := newTokenBuckets(cfg)
	limit := strconv.Itoa(cfg.Burst)
	rejected := metrics.RateLimited.WithLabelValues(cfg.Name)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := buckets.take(cfg.Key(r), cfg.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))

			if !v.allowed {
				rejected.Inc()
				h.Set("Retry-After", strconv.Itoa(v.retryAfter))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
