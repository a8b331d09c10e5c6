package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFixedWindowCeiling(t *testing.T) {
	f := newFixedWindow(3)

	for i := 0; i < 3; i++ {
		if !f.Allow() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if f.Allow() {
		t.Fatal("request over the ceiling should be rejected")
	}
}

func TestFixedWindowRollsOver(t *testing.T) {
	now := time.Now()
	f := newFixedWindow(2)
	f.now = func() time.Time { return now }

	if !f.Allow() || !f.Allow() {
		t.Fatal("first two requests should be allowed")
	}
	if f.Allow() {
		t.Fatal("third request should be rejected")
	}

	// Once the window elapses the counter resets.
	now = now.Add(rateLimitWindow + time.Second)
	if !f.Allow() {
		t.Fatal("request after the window should be allowed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := newFixedWindow(1)
	handler := withRateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}
