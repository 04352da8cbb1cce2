package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/router"
	"github.com/dmitrymomot/dispatch/middleware"
)

func TestClientIPDefaultConfiguration(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.ClientIP[*router.Context]())

	var capturedIP string
	r.Get("/test", func(ctx *router.Context) handler.Response {
		ip, ok := middleware.GetClientIP(ctx)
		assert.True(t, ok, "Client IP should be stored in context")
		capturedIP = ip
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "192.0.2.1", capturedIP)
}

func TestClientIPFromProxyHeader(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.ClientIP[*router.Context]())

	var capturedIP string
	r.Get("/test", func(ctx *router.Context) handler.Response {
		capturedIP, _ = middleware.GetClientIP(ctx)
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.2")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, "203.0.113.5", capturedIP)
}

func TestClientIPStoreInHeader(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.ClientIPWithConfig[*router.Context](middleware.ClientIPConfig{
		StoreInHeader: true,
	}))

	r.Get("/test", func(ctx *router.Context) handler.Response {
		return okResponse
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, "192.0.2.1", w.Header().Get("X-Client-IP"))
}

func TestClientIPValidation(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.ClientIPWithConfig[*router.Context](middleware.ClientIPConfig{
		ValidateFunc: func(ctx handler.Context, ip string) error {
			if ip == "192.0.2.66" {
				return errors.New("blocked")
			}
			return nil
		},
	}))

	handlerCalled := false
	r.Get("/test", func(ctx *router.Context) handler.Response {
		handlerCalled = true
		return okResponse
	})

	t.Run("blocked ip gets 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.0.2.66:1234"
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, handlerCalled)
	})

	t.Run("allowed ip passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, handlerCalled)
	})
}
