// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/logging"
)

const (
	shareLimiterIdle    = time.Hour
	shareLimiterCleanup = 10 * time.Minute
)

// ShareLimiter throttles anonymous short-code requests with one token
// bucket per client IP.
type ShareLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewShareLimiter allows perMinute requests per IP per minute, with bursts
// up to the same amount. A non-positive perMinute disables throttling.
func NewShareLimiter(perMinute int) *ShareLimiter {
	l := &ShareLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Inf,
		burst:    1,
		now:      time.Now,
	}
	if perMinute > 0 {
		l.rate = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

// Allow reports whether a request from ip may proceed.
func (l *ShareLimiter) Allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Middleware rejects throttled requests with 429.
func (l *ShareLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := auth.ClientIP(r)
		if !l.Allow(ip) {
			logging.Ctx(r.Context()).Warn().Str("ip", ip).Msg("Share lookup throttled")
			w.Header().Set("Retry-After", "60")
			NewResponseWriter(w, r).TooManyRequests("too many share requests, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len returns the number of tracked IPs.
func (l *ShareLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Evict drops buckets idle for longer than an hour and returns how many
// were removed.
func (l *ShareLimiter) Evict() int {
	threshold := l.now().Add(-shareLimiterIdle)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, entry := range l.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed
}

// Serve evicts idle buckets periodically until ctx is cancelled. It
// satisfies suture.Service.
func (l *ShareLimiter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(shareLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := l.Evict(); n > 0 {
				logging.Debug().Int("evicted", n).Msg("Share limiter cleanup")
			}
		}
	}
}

func (l *ShareLimiter) String() string {
	return "share-limiter"
}
