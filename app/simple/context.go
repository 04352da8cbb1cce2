package simple

import (
	"context"
	"net/http"
	"time"
)

// Context delegates request-scoped values to the request's own context,
// so values set here are also visible to code holding the *http.Request.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

func (c *Context) Err() error {
	return c.r.Context().Err()
}

func (c *Context) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue stores a value in the request's context.
func (c *Context) SetValue(key, val any) {
	ctx := context.WithValue(c.r.Context(), key, val)
	c.r = c.r.WithContext(ctx)
}

// Request returns the HTTP request associated with this context.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the HTTP response writer associated with this context.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the value of the URL parameter for the given key.
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

func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{
		w:      w,
		r:      r,
		params: params,
	}
}
