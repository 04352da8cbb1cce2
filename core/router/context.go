package router

import (
	"net/http"
	"time"
)

// Context is the default request context. It owns the request head, the
// response writer, path parameters bound at match time, and request-scoped
// extension values. One Context exists per dispatch; it is never shared
// between requests and is dropped when the response has been produced.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
	values map[any]any
}

// newContext creates a new Context instance.
func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}

// Deadline reports the deadline of the underlying request context.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done returns the cancellation channel of the underlying request context.
// Dropping the connection cancels it, aborting in-flight extractors and
// handlers at their next check.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err returns a non-nil error after Done is closed.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

// Value returns request-scoped extension values set via SetValue, falling
// back to the underlying request context.
func (c *Context) Value(key any) any {
	if c.values != nil {
		if v, ok := c.values[key]; ok {
			return v
		}
	}
	return c.r.Context().Value(key)
}

// Request returns the HTTP request associated with this context.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the HTTP response writer associated with this context.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the value of the path parameter bound at match time.
// Mount-prefix captures of ancestor routers are included.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// LookupParam reports whether the capture was bound at match time,
// telling an empty capture apart from an absent one.
func (c *Context) LookupParam(key string) (string, bool) {
	if c.params == nil {
		return "", false
	}
	val, ok := c.params[key]
	return val, ok
}

// SetValue stores a request-scoped extension value.
func (c *Context) SetValue(key, val any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = val
}

// SetRequest swaps the request carried by the context. Extractors that
// mutate the request head (e.g. wrapping the body) use it.
func (c *Context) SetRequest(r *http.Request) {
	if r != nil {
		c.r = r
	}
}
