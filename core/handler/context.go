package handler

import (
	"context"
	"net/http"
)

// Context defines the contract for request contexts passed to handlers.
// It carries the request head (method, URL, headers), the response writer,
// path parameters bound by the router, and request-scoped extension values.
type Context interface {
	context.Context

	// Request returns the HTTP request being dispatched.
	Request() *http.Request

	// ResponseWriter returns the writer the response will be rendered to.
	ResponseWriter() http.ResponseWriter

	// Param returns the path parameter bound to key, or "" if absent.
	Param(key string) string

	// SetValue stores a request-scoped extension value.
	// Values are visible to later extractors, the handler, and middleware
	// on the same request only.
	SetValue(key, val any)
}
