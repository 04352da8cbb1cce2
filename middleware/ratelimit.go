package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/response"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Rate is the sustained request rate per key in requests per second
	Rate rate.Limit
	// Burst is the maximum burst size per key (default: ceil(Rate), minimum 1)
	Burst int
	// KeyExtractor defines how to extract the rate limiting key from requests (default: client IP)
	KeyExtractor func(ctx handler.Context) string
	// ErrorHandler defines how to handle rate limit violations (default: 429 Too Many Requests)
	ErrorHandler func(ctx handler.Context, retryAfter time.Duration) handler.Response
	// SetHeaders determines whether to include rate limit information in response headers
	SetHeaders bool
	// IdleTTL controls how long unused per-key limiters are kept (default: 10m)
	IdleTTL time.Duration
}

// RateLimit creates a rate limiting middleware enforcing a per-key token
// bucket. Keys default to the client IP, so each client gets its own bucket.
// Panics if the rate is not positive.
//
// Usage:
//
//	r.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
//		Rate:       10, // 10 requests per second
//		Burst:      20,
//		SetHeaders: true,
//	}))
func RateLimit[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Rate <= 0 {
		panic("ratelimit middleware: rate must be positive")
	}

	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.Rate)
		if rate.Limit(cfg.Burst) < cfg.Rate {
			cfg.Burst++
		}
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}

	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	// Default to using the client IP as the rate limiting key
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = func(ctx handler.Context) string {
			if ip, ok := GetClientIP(ctx); ok {
				return ip
			}
			return ctx.Request().RemoteAddr
		}
	}

	// Default error handler returns 429 with retry information
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx handler.Context, retryAfter time.Duration) handler.Response {
			err := response.ErrTooManyRequests
			if retryAfter > 0 {
				err = err.WithDetails(map[string]any{
					"retry_after": fmt.Sprintf("%.0f", retryAfter.Seconds()),
				})
			}
			return response.Error(err)
		}
	}

	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		rate:     cfg.Rate,
		burst:    cfg.Burst,
		ttl:      cfg.IdleTTL,
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			key := cfg.KeyExtractor(ctx)
			lim := store.get(key)

			reservation := lim.Reserve()
			if !reservation.OK() || reservation.Delay() > 0 {
				retryAfter := reservation.Delay()
				reservation.Cancel()

				resp := cfg.ErrorHandler(ctx, retryAfter)
				if cfg.SetHeaders {
					return wrapWithRateLimitHeaders(resp, cfg.Burst, lim, retryAfter)
				}
				return resp
			}

			resp := next(ctx)

			if cfg.SetHeaders {
				return wrapWithRateLimitHeaders(resp, cfg.Burst, lim, 0)
			}

			return resp
		}
	}
}

// wrapWithRateLimitHeaders adds standard rate limiting headers to the response.
// X-RateLimit-Limit carries the burst capacity, X-RateLimit-Remaining the
// currently available tokens, and Retry-After is set only when blocked.
func wrapWithRateLimitHeaders(resp handler.Response, burst int, lim *rate.Limiter, retryAfter time.Duration) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, int(lim.Tokens()))))

		if retryAfter > 0 {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}

		return resp(w, r)
	}
}

// limiterStore holds one token bucket per key with lazy expiry of idle entries.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	lastScan time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Sweep idle entries at most once per TTL to keep the map bounded
	// without a background goroutine.
	if now.Sub(s.lastScan) > s.ttl {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > s.ttl {
				delete(s.limiters, k)
			}
		}
		s.lastScan = now
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter
}
