package echoapi

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type rateLimiter struct {
	mutex  sync.Mutex
	limit  int
	window time.Duration
	seen   map[string]*windowCount
}

type windowCount struct {
	start time.Time
	count int
}

// rateLimitMiddleware throttles the public signing endpoints per client IP
// with a fixed window. echo v4.1 ships no limiter; this stays deliberately
// small since the public surface is two token-gated routes.
func rateLimitMiddleware(limit int, window time.Duration) echo.MiddlewareFunc {
	rl := &rateLimiter{
		limit:  limit,
		window: window,
		seen:   make(map[string]*windowCount),
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !rl.allow(ctx.RealIP(), time.Now()) {
				return errHttpRateLimited
			}
			return next(ctx)
		}
	}
}

func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	wc, ok := rl.seen[ip]
	if !ok || now.Sub(wc.start) >= rl.window {
		rl.seen[ip] = &windowCount{start: now, count: 1}
		rl.gc(now)
		return true
	}
	wc.count++
	return wc.count <= rl.limit
}

// gc drops expired windows so the map does not grow with every IP ever seen.
func (rl *rateLimiter) gc(now time.Time) {
	if len(rl.seen) < 1024 {
		return
	}
	for ip, wc := range rl.seen {
		if now.Sub(wc.start) >= rl.window {
			delete(rl.seen, ip)
		}
	}
}
