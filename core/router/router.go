package router

import (
	"net/http"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// Router is the main routing interface for handling HTTP requests.
// It maps method and path to registered handlers, supports middleware
// chaining, route grouping, sub-router mounting with prefix stripping,
// router merging, and per-scope fallbacks.
type Router[C handler.Context] interface {
	http.Handler
	Routes

	// HTTP method handlers
	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])
	Patch(pattern string, h handler.HandlerFunc[C])
	Head(pattern string, h handler.HandlerFunc[C])
	Options(pattern string, h handler.HandlerFunc[C])
	Trace(pattern string, h handler.HandlerFunc[C])

	// Generic handlers
	Handle(pattern string, h handler.HandlerFunc[C])
	Method(pattern string, h handler.HandlerFunc[C], methods ...string)
	On(pattern string, t *MethodTable[C])

	// Fallback for unmatched paths and methods within this scope
	Fallback(h handler.HandlerFunc[C])

	// Middleware
	Use(middlewares ...handler.Middleware[C])
	With(middlewares ...handler.Middleware[C]) Router[C]

	// Grouping, mounting, and composition
	Group(fn func(r Router[C])) Router[C]
	Route(pattern string, fn func(r Router[C])) Router[C]
	Mount(pattern string, sub Router[C])
	Merge(other Router[C])

	// Freeze marks the route tree immutable without waiting for the first
	// request.
	Freeze()
}

// Routes provides route introspection capabilities for debugging and monitoring.
type Routes interface {
	Routes() []Route
}

// Route describes a single route in the router with its HTTP method and pattern.
type Route struct {
	Method  string
	Pattern string
}

// New creates a new router with the given options.
// The router supports generic context types for type-safe request handling.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
