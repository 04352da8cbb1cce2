package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// WithHeaders wraps a response with custom HTTP headers.
// Headers are set before the wrapped response is rendered.
func WithHeaders(response handler.Response, headers map[string]string) handler.Response {
	if response == nil {
		return nil
	}
	if len(headers) == 0 {
		return response
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		return response(w, r)
	}
}

// WithCookie wraps a response with an HTTP cookie.
// The cookie is set before the wrapped response is rendered.
func WithCookie(response handler.Response, cookie *http.Cookie) handler.Response {
	if response == nil || cookie == nil {
		return response
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		http.SetCookie(w, cookie)
		return response(w, r)
	}
}

// WithCache wraps a response with cache control headers.
// If maxAge > 0, Cache-Control and Expires allow caching for that duration;
// otherwise the headers forbid caching entirely.
func WithCache(response handler.Response, maxAge time.Duration) handler.Response {
	if response == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		if maxAge > 0 {
			seconds := int(maxAge.Seconds())
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", seconds))
			w.Header().Set("Expires", time.Now().Add(maxAge).Format(http.TimeFormat))
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		return response(w, r)
	}
}
