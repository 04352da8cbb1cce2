package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/router"
	"github.com/dmitrymomot/dispatch/middleware"
)

func okResponse(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(http.StatusOK)
	return nil
}

func TestRequestIDDefaultConfiguration(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestID[*router.Context]())

	var capturedID string
	r.Get("/test", func(ctx *router.Context) handler.Response {
		id, ok := middleware.GetRequestID(ctx)
		assert.True(t, ok, "Request ID should be present in context")
		capturedID = id
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, capturedID, "Request ID should be generated")
	assert.Equal(t, capturedID, w.Header().Get("X-Request-ID"))

	// Validate UUID format (default generator)
	assert.Len(t, capturedID, 36)
	assert.Contains(t, capturedID, "-")
}

func TestRequestIDCustomGenerator(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()

	customID := "custom-123-456"
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		Generator: func() string { return customID },
	}))

	r.Get("/test", func(ctx *router.Context) handler.Response {
		id, ok := middleware.GetRequestID(ctx)
		assert.True(t, ok)
		assert.Equal(t, customID, id)
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, customID, w.Header().Get("X-Request-ID"))
}

func TestRequestIDCustomHeaderName(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		HeaderName: "X-Trace-ID",
	}))

	r.Get("/test", func(ctx *router.Context) handler.Response {
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	assert.Empty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDUseExisting(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		UseExisting: true,
	}))

	var capturedID string
	r.Get("/test", func(ctx *router.Context) handler.Response {
		capturedID, _ = middleware.GetRequestID(ctx)
		return okResponse
	})

	t.Run("with existing header", func(t *testing.T) {
		existingID := "existing-request-id-123"
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", existingID)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, existingID, capturedID, "Should use existing request ID")
		assert.Equal(t, existingID, w.Header().Get("X-Request-ID"))
	})

	t.Run("without existing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, capturedID, "Should generate new ID when no existing header")
		assert.Equal(t, capturedID, w.Header().Get("X-Request-ID"))
	})
}

func TestRequestIDSkipFunctionality(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		Skip: func(ctx handler.Context) bool {
			return strings.HasPrefix(ctx.Request().URL.Path, "/health")
		},
	}))

	r.Get("/health", func(ctx *router.Context) handler.Response {
		_, ok := middleware.GetRequestID(ctx)
		assert.False(t, ok, "Request ID should not be present for skipped routes")
		return okResponse
	})

	r.Get("/api/test", func(ctx *router.Context) handler.Response {
		id, ok := middleware.GetRequestID(ctx)
		assert.True(t, ok)
		assert.NotEmpty(t, id)
		return okResponse
	})

	t.Run("skip health endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("process api endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestRequestIDMultipleRequests(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestID[*router.Context]())

	requestIDs := make([]string, 0, 3)
	r.Get("/test", func(ctx *router.Context) handler.Response {
		id, _ := middleware.GetRequestID(ctx)
		requestIDs = append(requestIDs, id)
		return okResponse
	})

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	require.Len(t, requestIDs, 3)
	assert.NotEqual(t, requestIDs[0], requestIDs[1])
	assert.NotEqual(t, requestIDs[1], requestIDs[2])
	assert.NotEqual(t, requestIDs[0], requestIDs[2])
}

func TestRequestIDVisibleToLaterMiddleware(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()

	var idInMiddleware, idInHandler string
	inspect := func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
		return func(ctx *router.Context) handler.Response {
			idInMiddleware, _ = middleware.GetRequestID(ctx)
			return next(ctx)
		}
	}

	r.Use(middleware.RequestID[*router.Context](), inspect)

	r.Get("/test", func(ctx *router.Context) handler.Response {
		idInHandler, _ = middleware.GetRequestID(ctx)
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, idInMiddleware)
	assert.Equal(t, idInMiddleware, idInHandler)
	assert.Equal(t, idInHandler, w.Header().Get("X-Request-ID"))
}

func TestRequestIDContextNotFound(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()

	r.Get("/test", func(ctx *router.Context) handler.Response {
		id, ok := middleware.GetRequestID(ctx)
		assert.False(t, ok, "Request ID should not be found when middleware not used")
		assert.Empty(t, id)
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Request-ID"))
}
