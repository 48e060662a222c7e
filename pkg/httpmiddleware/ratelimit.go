package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures a per-client request budget.
type RateLimitConfig struct {
	// Requests allowed per Window. Zero or negative disables limiting.
	Requests int
	Window   time.Duration
	// Key identifies the client; defaults to ClientIP.
	Key func(*http.Request) string
}

type window struct {
	start time.Time
	count float64
	prev  float64
}

// Limiter approximates a sliding window by weighting the previous fixed
// window's count by how much of it still overlaps the current one.
type Limiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	clients map[string]*window
}

// NewLimiter returns a Limiter for cfg.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Key == nil {
		cfg.Key = ClientIP
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{cfg: cfg, now: time.Now, clients: make(map[string]*window)}
}

// Allow records a request for key and reports whether it fits the budget,
// along with the remaining budget and when the current window ends.
func (l *Limiter) Allow(key string) (ok bool, remaining int, reset time.Time) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.clients[key]
	if !found {
		w = &window{start: now.Truncate(l.cfg.Window)}
		l.clients[key] = w
	}
	if elapsed := now.Sub(w.start); elapsed >= l.cfg.Window {
		w.prev = w.count
		if elapsed >= 2*l.cfg.Window {
			w.prev = 0
		}
		w.count = 0
		w.start = now.Truncate(l.cfg.Window)
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(l.cfg.Window)
	used := w.prev*math.Max(overlap, 0) + w.count
	reset = w.start.Add(l.cfg.Window)
	limit := float64(l.cfg.Requests)

	if used >= limit {
		return false, 0, reset
	}
	w.count++
	return true, int(math.Max(limit-used-1, 0)), reset
}

// Sweep forgets clients idle for two windows, every two windows, until ctx is
// done.
func (l *Limiter) Sweep(ctx context.Context) {
	t := time.NewTicker(2 * l.cfg.Window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evict(l.now())
		}
	}
}

func (l *Limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.clients {
		if now.Sub(w.start) >= 2*l.cfg.Window {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects over-budget requests with 429 and reports the budget in
// X-RateLimit-* headers.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if l.cfg.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, reset := l.Allow(l.cfg.Key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Requests))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := reset.Sub(l.now())
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(math.Max(wait.Seconds(), 0)))))
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit builds a Limiter whose idle clients are swept until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := NewLimiter(cfg)
	go l.Sweep(ctx)
	return l.Middleware()
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
