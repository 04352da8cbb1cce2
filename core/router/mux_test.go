package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/response"
	"github.com/dmitrymomot/dispatch/core/router"
)

func textHandler(body string) handler.HandlerFunc[*router.Context] {
	return func(ctx *router.Context) handler.Response {
		return response.String(body)
	}
}

func paramHandler(key string) handler.HandlerFunc[*router.Context] {
	return func(ctx *router.Context) handler.Response {
		return response.String(ctx.Param(key))
	}
}

func serve(r router.Router[*router.Context], method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("matched method runs its handler", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/", textHandler("hi"))

		w := serve(r, http.MethodGet, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hi", w.Body.String())
	})

	t.Run("method miss answers 405 with Allow", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/", textHandler("hi"))

		w := serve(r, http.MethodPost, "/")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET,HEAD", w.Header().Get("Allow"))
		assert.Empty(t, w.Body.String())
	})

	t.Run("allow lists verbs in first-registration order", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users", textHandler("list"))
		r.Post("/users", textHandler("create"))

		w := serve(r, http.MethodDelete, "/users")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET,HEAD,POST", w.Header().Get("Allow"))
	})

	t.Run("path miss answers 404 with empty body", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users", textHandler("list"))

		w := serve(r, http.MethodGet, "/missing")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Empty(t, w.Header().Get("Allow"))
	})

	t.Run("capture value reaches the handler", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users/{id}", paramHandler("id"))

		w := serve(r, http.MethodGet, "/users/42")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "42", w.Body.String())
	})

	t.Run("capture matches the empty segment", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/{key}/method", paramHandler("key"))

		w := serve(r, http.MethodGet, "//method")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("wildcard captures the remaining path", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/files/{*rest}", paramHandler("rest"))

		w := serve(r, http.MethodGet, "/files/a/b/c")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "a/b/c", w.Body.String())
	})

	t.Run("unsupported method answers 405", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/", textHandler("hi"))

		w := serve(r, "PROPFIND", "/")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("one verb per request regardless of body", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Post("/submit", textHandler("posted"))
		r.Get("/submit", textHandler("got"))

		w := serve(r, http.MethodPost, "/submit")
		assert.Equal(t, "posted", w.Body.String())
		w = serve(r, http.MethodGet, "/submit")
		assert.Equal(t, "got", w.Body.String())
	})
}

func TestHeadRequests(t *testing.T) {
	t.Parallel()

	t.Run("GET slot answers HEAD with body stripped", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/doc", func(ctx *router.Context) handler.Response {
			return response.String("the body")
		})

		w := serve(r, http.MethodHead, "/doc")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Empty(t, w.Body.String())
	})

	t.Run("explicit HEAD slot wins over GET aliasing", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/doc", textHandler("get"))
		r.Head("/doc", func(ctx *router.Context) handler.Response {
			return response.WithHeaders(response.Status(http.StatusNoContent), map[string]string{
				"X-Head": "explicit",
			})
		})

		w := serve(r, http.MethodHead, "/doc")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "explicit", w.Header().Get("X-Head"))
	})

	t.Run("HEAD misses when only POST is registered", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Post("/submit", textHandler("posted"))

		w := serve(r, http.MethodHead, "/submit")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "POST", w.Header().Get("Allow"))
	})
}

func TestSpecificity(t *testing.T) {
	t.Parallel()

	t.Run("literal beats capture", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users/{id}", textHandler("capture"))
		r.Get("/users/new", textHandler("literal"))

		w := serve(r, http.MethodGet, "/users/new")
		assert.Equal(t, "literal", w.Body.String())
		w = serve(r, http.MethodGet, "/users/42")
		assert.Equal(t, "capture", w.Body.String())
	})

	t.Run("capture beats wildcard", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/{*rest}", textHandler("wildcard"))
		r.Get("/{id}", textHandler("capture"))

		w := serve(r, http.MethodGet, "/x")
		assert.Equal(t, "capture", w.Body.String())
		w = serve(r, http.MethodGet, "/x/y")
		assert.Equal(t, "wildcard", w.Body.String())
	})

	t.Run("exact route beats wildcard with empty remainder", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/a/{*w}", textHandler("wildcard"))
		r.Get("/a", textHandler("exact"))

		w := serve(r, http.MethodGet, "/a")
		assert.Equal(t, "exact", w.Body.String())
		w = serve(r, http.MethodGet, "/a/b")
		assert.Equal(t, "wildcard", w.Body.String())
	})

	t.Run("registration order does not matter", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users/new", textHandler("literal"))
		r.Get("/users/{id}", textHandler("capture"))

		w := serve(r, http.MethodGet, "/users/new")
		assert.Equal(t, "literal", w.Body.String())
	})
}

func TestRegistrationConflicts(t *testing.T) {
	t.Parallel()

	t.Run("equivalent capture patterns panic", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users/{id}", textHandler("a"))
		assert.Panics(t, func() {
			r.Get("/users/{userID}", textHandler("b"))
		})
	})

	t.Run("same verb twice on one pattern panics", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users", textHandler("a"))
		assert.Panics(t, func() {
			r.Get("/users", textHandler("b"))
		})
	})

	t.Run("same pattern with different verbs merges", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/users", textHandler("list"))
		assert.NotPanics(t, func() {
			r.Post("/users", textHandler("create"))
		})
	})

	t.Run("registration after first request panics", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/", textHandler("hi"))
		serve(r, http.MethodGet, "/")

		assert.PanicsWithError(t, router.ErrRouterFrozen.Error(), func() {
			r.Get("/late", textHandler("late"))
		})
	})

	t.Run("registration after explicit freeze panics", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/", textHandler("hi"))
		r.Freeze()

		assert.Panics(t, func() { r.Post("/", textHandler("late")) })
	})
}

func TestOn(t *testing.T) {
	t.Parallel()

	t.Run("attaches a prebuilt table", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.On("/users/{id}", router.Get(paramHandler("id")).Delete(textHandler("deleted")))

		w := serve(r, http.MethodGet, "/users/7")
		assert.Equal(t, "7", w.Body.String())
		w = serve(r, http.MethodDelete, "/users/7")
		assert.Equal(t, "deleted", w.Body.String())
	})

	t.Run("same pattern twice merges disjoint tables", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.On("/users", router.Get(textHandler("list")))
		r.On("/users", router.Post(textHandler("create")))

		w := serve(r, http.MethodPut, "/users")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET,HEAD,POST", w.Header().Get("Allow"))
	})

	t.Run("overlapping verbs across tables panic", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.On("/users", router.Get(textHandler("a")))
		assert.Panics(t, func() {
			r.On("/users", router.Get(textHandler("b")))
		})
	})
}

func TestHandleAny(t *testing.T) {
	t.Parallel()

	t.Run("serves every supported method", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Handle("/everything", textHandler("any"))

		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodTrace} {
			w := serve(r, method, "/everything")
			assert.Equal(t, http.StatusOK, w.Code, method)
		}
	})
}

func TestErrorFlow(t *testing.T) {
	t.Parallel()

	t.Run("nil response goes through the error handler", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/nil", func(ctx *router.Context) handler.Response { return nil })

		w := serve(r, http.MethodGet, "/nil")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("render error goes through the error handler", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/fail", func(ctx *router.Context) handler.Response {
			return response.Error(errors.New("boom"))
		})

		w := serve(r, http.MethodGet, "/fail")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "boom")
	})

	t.Run("status-carrying error drives the response code", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/teapot", func(ctx *router.Context) handler.Response {
			return response.Error(response.HTTPError{Status: http.StatusTeapot, Message: "short and stout"})
		})

		w := serve(r, http.MethodGet, "/teapot")
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("panic in handler recovers to 500", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/panic", func(ctx *router.Context) handler.Response {
			panic("kaboom")
		})

		w := serve(r, http.MethodGet, "/panic")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("custom error handler observes handler errors", func(t *testing.T) {
		t.Parallel()

		var seen error
		r := router.New[*router.Context](
			router.WithErrorHandler(func(ctx *router.Context, err error) {
				seen = err
				ctx.ResponseWriter().WriteHeader(http.StatusBadGateway)
			}),
		)
		want := errors.New("downstream")
		r.Get("/", func(ctx *router.Context) handler.Response {
			return response.Error(want)
		})

		w := serve(r, http.MethodGet, "/")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		require.ErrorIs(t, seen, want)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tagger := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				resp := next(ctx)
				return func(w http.ResponseWriter, r *http.Request) error {
					w.Header().Add("X-Trace", name)
					return resp(w, r)
				}
			}
		}
	}

	t.Run("use applies to every route", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Use(tagger("outer"))
		r.Get("/", textHandler("hi"))

		w := serve(r, http.MethodGet, "/")
		assert.Equal(t, []string{"outer"}, w.Header().Values("X-Trace"))
	})

	t.Run("use after routes panics", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.Get("/", textHandler("hi"))
		assert.Panics(t, func() { r.Use(tagger("late")) })
	})

	t.Run("with scopes middleware to chained routes", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.With(tagger("scoped")).Get("/scoped", textHandler("s"))
		r.Get("/plain", textHandler("p"))

		w := serve(r, http.MethodGet, "/scoped")
		assert.Equal(t, []string{"scoped"}, w.Header().Values("X-Trace"))

		w = serve(r, http.MethodGet, "/plain")
		assert.Empty(t, w.Header().Values("X-Trace"))
	})

	t.Run("group inherits and extends inline middleware", func(t *testing.T) {
		t.Parallel()

		r := router.New[*router.Context]()
		r.With(tagger("a")).Group(func(g router.Router[*router.Context]) {
			g.With(tagger("b")).Get("/deep", textHandler("d"))
		})

		w := serve(r, http.MethodGet, "/deep")
		assert.Equal(t, []string{"a", "b"}, w.Header().Values("X-Trace"))
	})

	t.Run("middleware observes 405 fallbacks", func(t *testing.T) {
		t.Parallel()

		called := false
		r := router.New[*router.Context]()
		r.Use(func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				called = true
				return next(ctx)
			}
		})
		r.Get("/", textHandler("hi"))
		r.Fallback(textHandler("fallback"))

		w := serve(r, http.MethodPost, "/")
		assert.Equal(t, "fallback", w.Body.String())
		assert.True(t, called)
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("routes from both routers serve", func(t *testing.T) {
		t.Parallel()

		a := router.New[*router.Context]()
		a.Get("/a", textHandler("a"))

		b := router.New[*router.Context]()
		b.Get("/b", textHandler("b"))

		a.Merge(b)

		w := serve(a, http.MethodGet, "/a")
		assert.Equal(t, "a", w.Body.String())
		w = serve(a, http.MethodGet, "/b")
		assert.Equal(t, "b", w.Body.String())
	})

	t.Run("same pattern merges method tables", func(t *testing.T) {
		t.Parallel()

		a := router.New[*router.Context]()
		a.Get("/users", textHandler("list"))

		b := router.New[*router.Context]()
		b.Post("/users", textHandler("create"))

		a.Merge(b)

		w := serve(a, http.MethodPost, "/users")
		assert.Equal(t, "create", w.Body.String())
		w = serve(a, http.MethodPut, "/users")
		assert.Equal(t, "GET,HEAD,POST", w.Header().Get("Allow"))
	})

	t.Run("overlapping verbs panic", func(t *testing.T) {
		t.Parallel()

		a := router.New[*router.Context]()
		a.Get("/users", textHandler("a"))

		b := router.New[*router.Context]()
		b.Get("/users", textHandler("b"))

		assert.Panics(t, func() { a.Merge(b) })
	})

	t.Run("two fallbacks panic", func(t *testing.T) {
		t.Parallel()

		a := router.New[*router.Context]()
		a.Fallback(textHandler("fa"))

		b := router.New[*router.Context]()
		b.Fallback(textHandler("fb"))

		assert.Panics(t, func() { a.Merge(b) })
	})

	t.Run("merged middleware is baked into moved routes", func(t *testing.T) {
		t.Parallel()

		b := router.New[*router.Context]()
		b.Use(func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				resp := next(ctx)
				return func(w http.ResponseWriter, r *http.Request) error {
					w.Header().Set("X-Merged", "yes")
					return resp(w, r)
				}
			}
		})
		b.Get("/b", textHandler("b"))

		a := router.New[*router.Context]()
		a.Merge(b)

		w := serve(a, http.MethodGet, "/b")
		assert.Equal(t, "yes", w.Header().Get("X-Merged"))
	})

	t.Run("merged middleware reaches mounted sub-routers", func(t *testing.T) {
		t.Parallel()

		sub := router.New[*router.Context]()
		sub.Get("/leaf", textHandler("leaf"))

		b := router.New[*router.Context]()
		b.Use(func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				resp := next(ctx)
				return func(w http.ResponseWriter, r *http.Request) error {
					w.Header().Set("X-Merged", "yes")
					return resp(w, r)
				}
			}
		})
		b.Get("/direct", textHandler("direct"))
		b.Mount("/sub", sub)

		a := router.New[*router.Context]()
		a.Merge(b)

		w := serve(a, http.MethodGet, "/direct")
		assert.Equal(t, "direct", w.Body.String())
		assert.Equal(t, "yes", w.Header().Get("X-Merged"))

		w = serve(a, http.MethodGet, "/sub/leaf")
		assert.Equal(t, "leaf", w.Body.String())
		assert.Equal(t, "yes", w.Header().Get("X-Merged"))
	})
}

func TestRoutesIntrospection(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/users", textHandler("list"))
	r.Post("/users", textHandler("create"))

	sub := router.New[*router.Context]()
	sub.Get("/items", textHandler("items"))
	r.Mount("/api", sub)

	routes := r.Routes()
	assert.Contains(t, routes, router.Route{Method: http.MethodGet, Pattern: "/users"})
	assert.Contains(t, routes, router.Route{Method: http.MethodPost, Pattern: "/users"})
	assert.Contains(t, routes, router.Route{Method: http.MethodGet, Pattern: "/api/items"})
}
