package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *mockClock) *Limiter {
	return New(&Config{
		ClaimCooldown:   time.Second,
		ClaimMaxPerHour: 3,
		Clock:           clock,
	})
}

func TestCheckClaim_Cooldown(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock)
	defer limiter.Close()

	ip := "192.168.1.1"

	if result := limiter.CheckClaim(ip); !result.Allowed {
		t.Errorf("First attempt should be allowed, got blocked: %s", result.Reason)
	}

	// Immediate retry hits the cooldown
	result := limiter.CheckClaim(ip)
	if result.Allowed {
		t.Error("Immediate retry should be blocked")
	}
	if result.Reason != "cooldown" {
		t.Errorf("Expected cooldown reason, got %s", result.Reason)
	}
	if result.RetryAfter <= 0 {
		t.Errorf("Expected positive RetryAfter, got %v", result.RetryAfter)
	}

	clock.Advance(time.Second)
	if result := limiter.CheckClaim(ip); !result.Allowed {
		t.Errorf("Attempt after cooldown should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckClaim_HourlyLimit(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock)
	defer limiter.Close()

	ip := "192.168.1.1"

	for i := 0; i < 3; i++ {
		if result := limiter.CheckClaim(ip); !result.Allowed {
			t.Fatalf("Attempt %d should be allowed, got blocked: %s", i, result.Reason)
		}
		clock.Advance(2 * time.Second)
	}

	result := limiter.CheckClaim(ip)
	if result.Allowed {
		t.Error("Fourth attempt inside the hour should be blocked")
	}
	if result.Reason != "hourly_limit" {
		t.Errorf("Expected hourly_limit reason, got %s", result.Reason)
	}

	// Window expires, counter resets
	clock.Advance(time.Hour)
	if result := limiter.CheckClaim(ip); !result.Allowed {
		t.Errorf("Attempt in new window should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckClaim_PerClientIsolation(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock)
	defer limiter.Close()

	if result := limiter.CheckClaim("192.168.1.1"); !result.Allowed {
		t.Fatalf("First client should be allowed: %s", result.Reason)
	}
	if result := limiter.CheckClaim("192.168.1.2"); !result.Allowed {
		t.Errorf("Second client should not share the first client's cooldown: %s", result.Reason)
	}
}

func TestMiddleware_TooManyRequests(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock)
	defer limiter.Close()

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		req.RemoteAddr = "192.168.1.1:54321"
		return req
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusCreated {
		t.Fatalf("First request should pass through, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if ip := ClientIP(req); ip != "10.0.0.1" {
		t.Errorf("Expected 10.0.0.1, got %s", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := ClientIP(req); ip != "203.0.113.7" {
		t.Errorf("Expected forwarded address, got %s", ip)
	}
}
