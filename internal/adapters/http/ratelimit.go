package httpadapter

import (
	"net/http"
	"sync"
	"time"
)

const rateLimitWindow = 60 * time.Second

// rateLimitMessage mirrors the rejection body the front end expects.
const rateLimitMessage = "Too many requests, please slow down."

// fixedWindow is a per-process fixed window counter. It is deliberately
// not partitioned per caller: the ceiling protects the upstream provider
// quota, not individual fairness.
type fixedWindow struct {
	mu          sync.Mutex
	max         int
	window      time.Duration
	count       int
	windowStart time.Time
	now         func() time.Time
}

func newFixedWindow(max int) *fixedWindow {
	return &fixedWindow{
		max:    max,
		window: rateLimitWindow,
		now:    time.Now,
	}
}

// Allow counts one request, rolling the window when it has elapsed.
func (f *fixedWindow) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if now.Sub(f.windowStart) >= f.window {
		f.windowStart = now
		f.count = 0
	}

	f.count++
	return f.count <= f.max
}

// withRateLimit rejects requests over the window ceiling with 429.
func withRateLimit(limiter *fixedWindow) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorBody(rateLimitMessage))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
