package router

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// Option customizes a router built by New before any route registration.
type Option[C handler.Context] func(*mux[C])

// WithErrorHandler replaces the default error funnel. Every dispatch error,
// extraction rejection, and recovered panic on this router flows through h.
func WithErrorHandler[C handler.Context](h handler.ErrorHandler[C]) Option[C] {
	return func(m *mux[C]) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithMiddleware seeds the router's middleware stack, equivalent to calling
// Use before the first route.
func WithMiddleware[C handler.Context](middlewares ...handler.Middleware[C]) Option[C] {
	return func(m *mux[C]) {
		m.middlewares = append(m.middlewares, middlewares...)
	}
}

// WithContextFactory tells the router how to build the typed request
// context. Required for any context type other than *Context.
func WithContextFactory[C handler.Context](f func(http.ResponseWriter, *http.Request, map[string]string) C) Option[C] {
	return func(m *mux[C]) {
		m.newContext = f
	}
}

// WithLogger sets the logger for dispatch diagnostics, such as panics
// recovered after the response already started.
func WithLogger[C handler.Context](logger *slog.Logger) Option[C] {
	return func(m *mux[C]) {
		if logger != nil {
			m.logger = logger
		}
	}
}
