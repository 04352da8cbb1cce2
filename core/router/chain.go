package router

import "github.com/dmitrymomot/dispatch/core/handler"

// chain builds a single handler from a middleware stack and endpoint.
func chain[C handler.Context](middlewares []handler.Middleware[C], endpoint handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	// Start with the endpoint
	h := endpoint

	// Wrap in middleware in reverse order
	// so the first middleware runs first
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}
