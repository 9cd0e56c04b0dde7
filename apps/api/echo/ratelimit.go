package echoapi

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	maxLimiters     = 10000
	limiterIdleTime = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter is a token bucket per client IP.
type loginLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      rate.Limit
	burst     int
	throttled func()
	now       func() time.Time // mockable
}

func newLoginLimiter(perSecond float64, burst int, throttled func()) *loginLimiter {
	if burst < 1 {
		burst = 1
	}
	if throttled == nil {
		throttled = func() {}
	}
	return &loginLimiter{
		visitors:  make(map[string]*visitor),
		rate:      rate.Limit(perSecond),
		burst:     burst,
		throttled: throttled,
		now:       time.Now,
	}
}

func (ll *loginLimiter) allow(key string) bool {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	now := ll.now()
	if len(ll.visitors) >= maxLimiters {
		ll.cleanupLocked(now)
	}
	v, ok := ll.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(ll.rate, ll.burst)}
		ll.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (ll *loginLimiter) cleanupLocked(now time.Time) {
	for key, v := range ll.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTime {
			delete(ll.visitors, key)
		}
	}
	if len(ll.visitors) >= maxLimiters {
		ll.visitors = make(map[string]*visitor)
	}
}

func (ll *loginLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !ll.allow(ctx.RealIP()) {
				ll.throttled()
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
