package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// paramsCtxKey carries accumulated mount-prefix captures into nested routers.
type paramsCtxKey struct{}

// mux is the private implementation of Router interface.
type mux[C handler.Context] struct {
	tree         *node[C]
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	parent       *mux[C] // for inline groups
	inline       bool
	hasRoutes    bool
	served       atomic.Bool
}

// newMux creates a new router instance.
func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		tree:         &node[C]{},
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
	}

	for _, opt := range opts {
		opt(m)
	}

	// If no context factory provided, require it for non-default contexts
	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(newContext(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return m
}

// ServeHTTP implements http.Handler. The first request freezes the route
// tree: from that point dispatch is lock-free reads over immutable tables.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.served.Store(true)

	ww := newResponseWriter(w)

	// HEAD responses carry the status and headers of the handler that served
	// them with the body stripped, whether that handler was an explicit HEAD
	// slot, the GET alias, or a fallback.
	var out http.ResponseWriter = ww
	if r.Method == http.MethodHead {
		out = &headWriter{ww}
	}

	// Use RawPath if available to preserve URL encoding
	path := r.URL.Path
	if r.URL.RawPath != "" {
		path = r.URL.RawPath
	}
	if path == "" {
		path = "/"
	}

	// Mount-prefix captures bound by ancestor routers.
	inherited, _ := r.Context().Value(paramsCtxKey{}).(map[string]string)

	if !isSupportedMethod(r.Method) {
		ctx := m.newContext(out, r, inherited)
		m.errorHandler(ctx, methodNotAllowedError())
		return
	}

	match, found := m.tree.find(path)

	params := mergeParams(inherited, match.params)
	ctx := m.newContext(out, r, params)

	// Recover from panics to prevent server crashes
	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{
				value: p,
				stack: debug.Stack(),
			}

			if ww.Written() {
				// Can't send error response, just log the panic
				m.logger.Error("panic after response written",
					"value", panicErr.value,
					"stack", string(panicErr.stack),
					"path", r.URL.Path,
					"method", r.Method,
					"status", ww.Status(),
				)
			} else {
				m.errorHandler(ctx, panicErr)
			}
		}
	}()

	if found && match.mount != nil {
		m.invoke(ctx, out, r, m.delegate(match.mount.sub, match.rest, params))
		return
	}

	if found {
		table := match.entry.table

		if h, ok := table.dispatch(r.Method); ok {
			m.invoke(ctx, out, r, h)
			return
		}

		// Method miss: the Allow header is attached before the fallback runs,
		// unless the table is in skip mode. A fallback setting its own Allow
		// value overwrites it.
		if v, ok := table.allowValue(); ok && ww.Header().Get("Allow") == "" {
			ww.Header().Set("Allow", v)
		}

		fb := table.fallback
		if fb == nil {
			fb = m.tree.resolveFallback()
		}
		if fb == nil {
			m.errorHandler(ctx, methodNotAllowedError())
			return
		}
		m.invoke(ctx, out, r, fb)
		return
	}

	// Path miss: nearest explicit fallback up the nesting tree, resolved at
	// request time; 404 with an empty body when none exists.
	if fb := m.tree.resolveFallback(); fb != nil {
		m.invoke(ctx, out, r, fb)
		return
	}
	m.errorHandler(ctx, notFoundError())
}

// delegate builds the handler that hands a request over to a mounted
// sub-router: the mount prefix is stripped from the path the child sees, the
// query string is preserved, and the prefix captures accumulated so far
// travel along. Wrapping the delegation in a regular handler lets this
// router's middleware observe the fully-formed response of the child.
func (m *mux[C]) delegate(sub *mux[C], rest string, params map[string]string) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			r2 := r.Clone(context.WithValue(r.Context(), paramsCtxKey{}, params))
			r2.URL.Path = rest
			r2.URL.RawPath = ""
			sub.ServeHTTP(w, r2)
			return nil
		}
	}
}

// invoke runs fn through this router's middleware stack and renders the
// produced response. Render failures go through the error handler; there is
// exactly one exit path for every request.
func (m *mux[C]) invoke(ctx C, w http.ResponseWriter, r *http.Request, fn handler.HandlerFunc[C]) {
	if len(m.middlewares) > 0 {
		fn = chain(m.middlewares, fn)
	}

	response := fn(ctx)
	if response == nil {
		m.errorHandler(ctx, ErrNilResponse)
		return
	}

	if err := response(w, r); err != nil {
		m.errorHandler(ctx, err)
	}
}

func mergeParams(inherited, matched map[string]string) map[string]string {
	if len(inherited) == 0 {
		return matched
	}
	merged := make(map[string]string, len(inherited)+len(matched))
	for k, v := range inherited {
		merged[k] = v
	}
	for k, v := range matched {
		merged[k] = v
	}
	return merged
}

// checkFrozen panics when routes are added after the tree went read-only.
func (m *mux[C]) checkFrozen() {
	for cur := m; cur != nil; cur = cur.parent {
		if cur.served.Load() {
			panic(ErrRouterFrozen)
		}
	}
}

// Freeze marks the route tree immutable without serving a request.
func (m *mux[C]) Freeze() {
	m.served.Store(true)
}

// Get registers a handler for GET requests. HEAD requests are answered by
// the same handler with the body stripped unless HEAD is registered
// explicitly.
func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

// Post registers a handler for POST requests.
func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

// Put registers a handler for PUT requests.
func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

// Delete registers a handler for DELETE requests.
func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

// Patch registers a handler for PATCH requests.
func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

// Head registers an explicit handler for HEAD requests.
func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodHead, pattern, h)
}

// Options registers a handler for OPTIONS requests.
func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

// Trace registers a handler for TRACE requests.
func (m *mux[C]) Trace(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodTrace, pattern, h)
}

// Handle registers a handler for every supported HTTP method and suppresses
// Allow-header computation for the pattern.
func (m *mux[C]) Handle(pattern string, h handler.HandlerFunc[C]) {
	m.checkFrozen()
	m.markRoutes()
	entry := m.tree.entryFor(pattern)
	entry.table.Any(m.wrapInline(h))
}

// Method registers a handler for one or more specific HTTP methods.
func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	if len(methods) == 0 {
		panic(fmt.Errorf("%w: no methods provided", ErrInvalidMethod))
	}

	seen := make(map[string]bool, len(methods))
	for _, method := range methods {
		method = strings.ToUpper(method)
		if !isSupportedMethod(method) {
			panic(fmt.Errorf("%w: %s", ErrInvalidMethod, method))
		}
		if seen[method] {
			continue
		}
		seen[method] = true
		m.handle(method, pattern, h)
	}
}

// On registers a prebuilt method table at the given pattern. Registering the
// same pattern twice merges the tables; overlapping verbs or conflicting
// fallbacks panic.
func (m *mux[C]) On(pattern string, t *MethodTable[C]) {
	if t == nil {
		panic(fmt.Errorf("%w: nil method table on '%s'", ErrNilRouter, pattern))
	}
	m.checkFrozen()
	m.markRoutes()
	t.wrapSlots(m.collectInline())
	entry := m.tree.entryFor(pattern)
	entry.table.Merge(t)
}

// Fallback sets the handler invoked when no route or method matches a
// request reaching this router. Nested routers without their own fallback
// inherit the nearest ancestor's one, resolved per request.
func (m *mux[C]) Fallback(h handler.HandlerFunc[C]) {
	m.checkFrozen()
	m.tree.fallback = m.wrapInline(h)
}

// Use appends middleware to the router.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.hasRoutes {
		panic("dispatch: all middlewares must be defined before routes on a mux")
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

// With creates a new inline router with additional middleware.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	// Only store the additional middlewares, not parent ones
	// They will be chained at registration time
	im := &mux[C]{
		inline:       true,
		parent:       m,
		tree:         m.tree,
		middlewares:  middlewares,
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
	}

	return im
}

// Group creates a new inline router for grouping routes.
func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.With()
	if fn != nil {
		fn(im)
	}
	return im
}

// Route creates a new sub-router mounted at the given pattern.
func (m *mux[C]) Route(pattern string, fn func(r Router[C])) Router[C] {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilSubrouter, pattern))
	}
	subRouter := newMux[C]()

	subRouter.errorHandler = m.errorHandler
	subRouter.newContext = m.newContext
	subRouter.logger = m.logger

	fn(subRouter)
	m.Mount(pattern, subRouter)
	return subRouter
}

// Mount attaches a sub-router under the given prefix pattern. The prefix may
// contain literal and capture segments but no wildcard; the child sees the
// request path with the matched prefix removed and the query string intact.
func (m *mux[C]) Mount(pattern string, sub Router[C]) {
	if sub == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilRouter, pattern))
	}

	subMux, ok := sub.(*mux[C])
	if !ok {
		panic("dispatch: can only mount routers created by router.New")
	}

	m.checkFrozen()
	m.markRoutes()

	// Always inherit parent's error handler, logger, and context factory for
	// consistency, so mounted subrouters behave predictably.
	subMux.errorHandler = m.errorHandler
	subMux.logger = m.logger
	subMux.newContext = m.newContext

	prefix := parseMountPrefix(pattern)
	m.tree.addMount(prefix, subMux)
}

// Merge folds another router's routes, mounts, and fallback into this one.
// The two routers must have disjoint method sets per shared pattern, and at
// most one may define a fallback.
func (m *mux[C]) Merge(other Router[C]) {
	if other == nil {
		panic(fmt.Errorf("%w in merge", ErrNilRouter))
	}
	otherMux, ok := other.(*mux[C])
	if !ok {
		panic("dispatch: can only merge routers created by router.New")
	}

	m.checkFrozen()
	m.markRoutes()

	// Middleware added to the merged router via Use applies at its own serve
	// time, which merging bypasses. Bake it into the moved routes instead.
	if len(otherMux.middlewares) > 0 {
		for _, e := range otherMux.tree.entries {
			e.table.wrapSlots(otherMux.middlewares)
		}
		// Mounted sub-routers run their own middleware stack when they serve,
		// so the moved middleware is prepended there, outermost-first.
		for _, mt := range otherMux.tree.mounts {
			mt.sub.middlewares = append(append([]handler.Middleware[C]{}, otherMux.middlewares...), mt.sub.middlewares...)
		}
		if otherMux.tree.fallback != nil {
			otherMux.tree.fallback = chain(otherMux.middlewares, otherMux.tree.fallback)
		}
	}

	m.tree.merge(otherMux.tree)
}

// Routes returns all registered routes, including prefix-joined routes of
// mounted sub-routers.
func (m *mux[C]) Routes() []Route {
	return m.tree.routes()
}

// handle registers a handler for one verb in the routing tree.
func (m *mux[C]) handle(method, pattern string, fn handler.HandlerFunc[C]) {
	m.checkFrozen()
	m.markRoutes()

	h := m.wrapInline(fn)
	entry := m.tree.entryFor(pattern)

	switch method {
	case http.MethodGet:
		entry.table.Get(h)
	case http.MethodPost:
		entry.table.Post(h)
	case http.MethodPut:
		entry.table.Put(h)
	case http.MethodPatch:
		entry.table.Patch(h)
	case http.MethodDelete:
		entry.table.Delete(h)
	case http.MethodHead:
		entry.table.Head(h)
	case http.MethodOptions:
		entry.table.Options(h)
	case http.MethodTrace:
		entry.table.Trace(h)
	default:
		panic(fmt.Errorf("%w: %s", ErrInvalidMethod, method))
	}
}

// markRoutes flags that routes exist, for middleware-ordering validation.
func (m *mux[C]) markRoutes() {
	if !m.inline {
		m.hasRoutes = true
	}
}

// wrapInline chains the middleware collected from the inline parent chain
// around fn, preserving outermost-first order.
func (m *mux[C]) wrapInline(fn handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	mws := m.collectInline()
	if len(mws) == 0 {
		return fn
	}
	return chain(mws, fn)
}

func (m *mux[C]) collectInline() []handler.Middleware[C] {
	if !m.inline {
		return nil
	}
	var all []handler.Middleware[C]
	for curr := m; curr != nil && curr.inline; curr = curr.parent {
		if len(curr.middlewares) > 0 {
			all = append(curr.middlewares, all...)
		}
	}
	return all
}
