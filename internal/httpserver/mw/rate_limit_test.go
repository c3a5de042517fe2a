package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTokenBucketsRefill(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	b := newTokenBuckets(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60, Now: clock.Now}.withDefaults())

	if v := b.take("1.2.3.4", clock.now); !v.allowed || v.remaining != 1 {
		t.Fatalf("first take = %+v, want allowed with 1 remaining", v)
	}
	if v := b.take("1.2.3.4", clock.now); !v.allowed || v.remaining != 0 {
		t.Fatalf("second take = %+v, want allowed with 0 remaining", v)
	}

	v := b.take("1.2.3.4", clock.now)
	if v.allowed {
		t.Fatal("third take should be rejected")
	}
	if v.retryAfter != 1 {
		t.Errorf("retryAfter = %d, want 1", v.retryAfter)
	}

	// Other clients have their own bucket.
	if v := b.take("5.6.7.8", clock.now); !v.allowed {
		t.Error("independent client should be allowed")
	}

	clock.Advance(time.Second)
	if v := b.take("1.2.3.4", clock.now); !v.allowed {
		t.Error("one token should have been refilled after a second")
	}
}

func TestTokenBucketsSweepIdle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	b := newTokenBuckets(RateLimitConfig{
		Burst:         1,
		SweepInterval: time.Minute,
		IdleTTL:       time.Minute,
		Now:           clock.Now,
	}.withDefaults())

	b.take("a", clock.now)
	b.take("b", clock.now)
	if got := b.size(); got != 2 {
		t.Fatalf("size = %d, want 2", got)
	}

	clock.Advance(2 * time.Minute)
	b.take("c", clock.now)
	if got := b.size(); got != 1 {
		t.Errorf("size after sweep = %d, want 1", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	h := RateLimit(RateLimitConfig{
		Name:              "test",
		Burst:             1,
		RefillPerIPPerMin: 1,
		Now:               clock.Now,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d, want 204", first.Code)
	}
	if got := first.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", got)
	}
	if got := first.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	second := do()
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
}
