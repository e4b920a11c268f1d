package middleware

import (
	"sync"
	"time"

	"meets/config"
	domainerrors "meets/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// Evict idle client buckets so the limiter map does not grow unbounded.
const limiterIdleTTL = 10 * time.Minute

// RateLimitMiddleware throttles clients per IP with token buckets, the
// tighter buckets guarding the credential endpoints.
type RateLimitMiddleware struct {
	cfg *config.RateLimitConfig

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitMiddleware creates the rate limit middleware from config.
// A nil config disables throttling.
func NewRateLimitMiddleware(cfg *config.Config) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		cfg:      cfg.RateLimit,
		limiters: make(map[string]*clientLimiter),
	}
}

// SignUp throttles the registration endpoint.
func (m *RateLimitMiddleware) SignUp() echo.MiddlewareFunc {
	return m.limit("signup", m.rule(func(cfg *config.RateLimitConfig) config.RateLimitRule { return cfg.SignUp }))
}

// SignIn throttles the login endpoint.
func (m *RateLimitMiddleware) SignIn() echo.MiddlewareFunc {
	return m.limit("signin", m.rule(func(cfg *config.RateLimitConfig) config.RateLimitRule { return cfg.SignIn }))
}

// Refresh throttles the session renewal endpoint.
func (m *RateLimitMiddleware) Refresh() echo.MiddlewareFunc {
	return m.limit("refresh", m.rule(func(cfg *config.RateLimitConfig) config.RateLimitRule { return cfg.Refresh }))
}

// Default throttles everything else.
func (m *RateLimitMiddleware) Default() echo.MiddlewareFunc {
	return m.limit("default", m.rule(func(cfg *config.RateLimitConfig) config.RateLimitRule { return cfg.Default }))
}

func (m *RateLimitMiddleware) rule(pick func(*config.RateLimitConfig) config.RateLimitRule) config.RateLimitRule {
	if m.cfg == nil {
		return config.RateLimitRule{}
	}

	return pick(m.cfg)
}

func (m *RateLimitMiddleware) limit(group string, r config.RateLimitRule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if r.PerMinute <= 0 {
			return next
		}

		return func(c echo.Context) error {
			if !m.allow(group+"|"+c.RealIP(), r) {
				return domainerrors.ErrTooManyRequests
			}

			return next(c)
		}
	}
}

func (m *RateLimitMiddleware) allow(key string, r config.RateLimitRule) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	client, ok := m.limiters[key]
	if !ok {
		burst := r.Burst
		if burst <= 0 {
			burst = r.PerMinute
		}
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(r.PerMinute))/60.0, burst),
		}
		m.limiters[key] = client
	}
	client.lastSeen = now

	if len(m.limiters) > 1 {
		m.evictIdle(now)
	}

	return client.limiter.Allow()
}

func (m *RateLimitMiddleware) evictIdle(now time.Time) {
	for key, client := range m.limiters {
		if now.Sub(client.lastSeen) > limiterIdleTTL {
			delete(m.limiters, key)
		}
	}
}
