package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/router"
	"github.com/dmitrymomot/dispatch/middleware"
)

func newRateLimitedRouter(cfg middleware.RateLimitConfig) router.Router[*router.Context] {
	r := router.New[*router.Context]()
	r.Use(middleware.RateLimit[*router.Context](cfg))
	r.Get("/test", func(ctx *router.Context) handler.Response {
		return okResponse
	})
	return r
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	t.Parallel()

	r := newRateLimitedRouter(middleware.RateLimitConfig{
		Rate:  1,
		Burst: 3,
	})

	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i)
	}
}

func TestRateLimitBlocksOverBurst(t *testing.T) {
	t.Parallel()

	r := newRateLimitedRouter(middleware.RateLimitConfig{
		Rate:  0.001, // effectively no refill during the test
		Burst: 2,
	})

	statuses := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimitPerKeyIsolation(t *testing.T) {
	t.Parallel()

	r := newRateLimitedRouter(middleware.RateLimitConfig{
		Rate:  0.001,
		Burst: 1,
	})

	serve := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("192.0.2.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, serve("192.0.2.1:1234"))

	// Different client gets its own bucket
	assert.Equal(t, http.StatusOK, serve("192.0.2.2:1234"))
}

func TestRateLimitHeaders(t *testing.T) {
	t.Parallel()

	r := newRateLimitedRouter(middleware.RateLimitConfig{
		Rate:       0.001,
		Burst:      2,
		SetHeaders: true,
	})

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := serve()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, first.Header().Get("Retry-After"))

	serve()

	blocked := serve()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestRateLimitCustomKeyExtractor(t *testing.T) {
	t.Parallel()

	r := newRateLimitedRouter(middleware.RateLimitConfig{
		Rate:  0.001,
		Burst: 1,
		KeyExtractor: func(ctx handler.Context) string {
			return ctx.Request().Header.Get("X-Api-Key")
		},
	})

	serve := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Api-Key", key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("key-a"))
	assert.Equal(t, http.StatusTooManyRequests, serve("key-a"))
	assert.Equal(t, http.StatusOK, serve("key-b"))
}

func TestRateLimitCustomErrorHandler(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
		Rate:  0.001,
		Burst: 1,
		ErrorHandler: func(ctx handler.Context, retryAfter time.Duration) handler.Response {
			return func(w http.ResponseWriter, req *http.Request) error {
				w.WriteHeader(http.StatusServiceUnavailable)
				return nil
			}
		},
	}))
	r.Get("/test", func(ctx *router.Context) handler.Response {
		return okResponse
	})

	serve := func() int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve())
	assert.Equal(t, http.StatusServiceUnavailable, serve())
}

func TestRateLimitSkip(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
		Rate:  0.001,
		Burst: 1,
		Skip: func(ctx handler.Context) bool {
			return ctx.Request().URL.Path == "/health"
		},
	}))
	r.Get("/health", func(ctx *router.Context) handler.Response {
		return okResponse
	})

	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitPanicsWithoutRate(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		middleware.RateLimit[*router.Context](middleware.RateLimitConfig{})
	})
}
