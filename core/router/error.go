package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/dispatch/core/handler"
)

var (
	// Mux errors
	ErrNoContextFactory = errors.New("no context factory provided")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrNotFound         = errors.New("not found")
	ErrNilResponse      = errors.New("nil response")
	ErrInvalidMethod    = errors.New("invalid http method")
	ErrNilRouter        = errors.New("nil router")
	ErrNilSubrouter     = errors.New("nil subrouter")
	ErrRouterFrozen     = errors.New("router already serving, routes are frozen")

	// Pattern errors
	ErrInvalidPattern   = errors.New("invalid route path pattern")
	ErrWildcardPosition = errors.New("wildcard position must be last")
	ErrParamDelimiter   = errors.New("param delimiter must be unique")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
	ErrWildcardInPrefix = errors.New("mount prefix must not contain a wildcard")

	// Registration conflicts
	ErrOverlappingRoute    = errors.New("overlapping route")
	ErrOverlappingMethod   = errors.New("overlapping method route")
	ErrConflictingFallback = errors.New("cannot merge two routers that both define a fallback")
)

// statusCode is an unexported interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

type routerError struct {
	err    error
	status int
}

func (e *routerError) Error() string   { return e.err.Error() }
func (e *routerError) Unwrap() error   { return e.err }
func (e *routerError) StatusCode() int { return e.status }

func notFoundError() error {
	return &routerError{err: ErrNotFound, status: http.StatusNotFound}
}

func methodNotAllowedError() error {
	return &routerError{err: ErrMethodNotAllowed, status: http.StatusMethodNotAllowed}
}

// defaultErrorHandler provides default error handling.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()

	// Prevent double-writing responses which causes HTTP protocol errors
	if ww, ok := w.(interface{ Written() bool }); ok && ww.Written() {
		return
	}

	// The router's own dispatch misses (404, 405) answer with the status and
	// an empty body; the Allow header, when any, is already set.
	var rerr *routerError
	if errors.As(err, &rerr) {
		w.WriteHeader(rerr.status)
		return
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	http.Error(w, err.Error(), status)
}

// PanicError interface allows external error handlers to detect and handle panics.
// When a panic is recovered by the router, it's wrapped in an error that implements
// this interface, providing access to the original panic value and stack trace.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

// panicError is the private implementation of PanicError interface.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
