// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"blogapi/internal/render"
)

// window holds the request times of one client inside the current
// sliding window, oldest first.
type window struct {
	hits []time.Time
}

// prune drops hits older than cutoff.
func (w *window) prune(cutoff time.Time) {
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	w.hits = w.hits[i:]
}

// RateLimiter provides per-IP rate limiting using a sliding window.
// It guards the unauthenticated register and login endpoints.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int           // max requests per window
	period  time.Duration // sliding window duration
	now     func() time.Time
	stopCh  chan struct{}
}

// NewRateLimiter creates a rate limiter that allows limit requests per
// period. It starts a background goroutine to drop idle clients.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// allow records a request for key and reports whether it is within the
// limit. When it is not, retryAfter is how long until the oldest hit
// leaves the window.
func (rl *RateLimiter) allow(key string) (ok bool, retryAfter time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.clients[key]
	if !exists {
		w = &window{}
		rl.clients[key] = w
	}
	w.prune(now.Add(-rl.period))

	if len(w.hits) >= rl.limit {
		return false, w.hits[0].Add(rl.period).Sub(now)
	}
	w.hits = append(w.hits, now)
	return true, 0
}

// cleanup removes clients with no hits inside the window.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.period)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.clients {
		w.prune(cutoff)
		if len(w.hits) == 0 {
			delete(rl.clients, key)
		}
	}
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
// Rejected requests get a JSON 429 with a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, retryAfter := rl.allow(ip)
		if !ok {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			slog.Warn("rate limited", "ip", ip, "path", r.URL.Path, "retry_after", seconds)
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			render.Detail(w, http.StatusTooManyRequests,
				"Request was throttled. Expected available in "+strconv.Itoa(max(seconds, 1))+" seconds.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
