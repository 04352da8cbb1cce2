package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// supportedMethods is the fixed set of verbs a MethodTable can hold,
// in canonical Allow-header order for Any registrations.
var supportedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodTrace,
}

func isSupportedMethod(method string) bool {
	for _, m := range supportedMethods {
		if m == method {
			return true
		}
	}
	return false
}

type allowState uint8

const (
	// allowNone: no Allow header value has been built up yet.
	allowNone allowState = iota
	// allowSkip: never emit an Allow header. Used by Any registrations.
	allowSkip
	// allowList: emit the accumulated method list.
	allowList
)

// MethodTable dispatches requests for one matched path by HTTP method.
// It holds one handler slot per verb, an optional fallback invoked on a
// method miss, and the accumulated Allow header value returned with 405
// responses. Tables are built at registration time and never mutated while
// serving; per-request dispatch only reads them.
type MethodTable[C handler.Context] struct {
	slots    map[string]handler.HandlerFunc[C]
	allow    allowState
	allowed  []string // insertion-ordered, deduplicated verb names
	fallback handler.HandlerFunc[C]
}

// NewMethodTable creates an empty table. Dispatching any method against it
// falls back to 405 Method Not Allowed.
func NewMethodTable[C handler.Context]() *MethodTable[C] {
	return &MethodTable[C]{slots: make(map[string]handler.HandlerFunc[C])}
}

// Get creates a table routing GET (and, implicitly, HEAD) to h.
func Get[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Get(h)
}

// Post creates a table routing POST to h.
func Post[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Post(h)
}

// Put creates a table routing PUT to h.
func Put[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Put(h)
}

// Patch creates a table routing PATCH to h.
func Patch[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Patch(h)
}

// Delete creates a table routing DELETE to h.
func Delete[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Delete(h)
}

// Head creates a table routing HEAD to h.
func Head[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Head(h)
}

// Options creates a table routing OPTIONS to h.
func Options[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Options(h)
}

// Trace creates a table routing TRACE to h.
func Trace[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Trace(h)
}

// Any creates a table routing every supported method to h.
// Allow-header computation is suppressed for the whole table.
func Any[C handler.Context](h handler.HandlerFunc[C]) *MethodTable[C] {
	return NewMethodTable[C]().Any(h)
}

// on installs h for one verb. Registering the same verb twice is a
// registration-time fatal, never a silent overwrite.
func (t *MethodTable[C]) on(method string, h handler.HandlerFunc[C], allowNames ...string) *MethodTable[C] {
	if h == nil {
		panic(fmt.Errorf("%w: nil handler for %s", ErrOverlappingMethod, method))
	}
	if _, dup := t.slots[method]; dup {
		panic(fmt.Errorf("%w: cannot add two method routes that both handle '%s'", ErrOverlappingMethod, method))
	}
	t.slots[method] = h
	for _, name := range allowNames {
		t.appendAllow(name)
	}
	return t
}

func (t *MethodTable[C]) appendAllow(method string) {
	if t.allow == allowSkip {
		return
	}
	t.allow = allowList
	for _, m := range t.allowed {
		if m == method {
			return
		}
	}
	t.allowed = append(t.allowed, method)
}

// Get chains a GET handler onto the table. HEAD is answered by the same
// handler with the body stripped unless a HEAD handler is set explicitly,
// so GET also records HEAD in the Allow list.
func (t *MethodTable[C]) Get(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodGet, h, http.MethodGet, http.MethodHead)
}

// Post chains a POST handler onto the table.
func (t *MethodTable[C]) Post(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodPost, h, http.MethodPost)
}

// Put chains a PUT handler onto the table.
func (t *MethodTable[C]) Put(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodPut, h, http.MethodPut)
}

// Patch chains a PATCH handler onto the table.
func (t *MethodTable[C]) Patch(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodPatch, h, http.MethodPatch)
}

// Delete chains a DELETE handler onto the table.
func (t *MethodTable[C]) Delete(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodDelete, h, http.MethodDelete)
}

// Head chains an explicit HEAD handler onto the table.
// It takes precedence over the implicit GET aliasing.
func (t *MethodTable[C]) Head(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodHead, h, http.MethodHead)
}

// Options chains an OPTIONS handler onto the table.
func (t *MethodTable[C]) Options(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodOptions, h, http.MethodOptions)
}

// Trace chains a TRACE handler onto the table.
func (t *MethodTable[C]) Trace(h handler.HandlerFunc[C]) *MethodTable[C] {
	return t.on(http.MethodTrace, h, http.MethodTrace)
}

// Any installs h for every supported method and switches the table to skip
// mode: no Allow header is computed for it. Panics if any verb is already
// registered.
func (t *MethodTable[C]) Any(h handler.HandlerFunc[C]) *MethodTable[C] {
	for _, method := range supportedMethods {
		t.on(method, h)
	}
	t.allow = allowSkip
	t.allowed = nil
	return t
}

// Fallback sets the handler invoked when no verb slot matches the request.
// It replaces any previously set fallback on the same table; merging two
// tables that both define one is a fatal error instead.
func (t *MethodTable[C]) Fallback(h handler.HandlerFunc[C]) *MethodTable[C] {
	t.fallback = h
	return t
}

// Merge combines two tables built for the same path but disjoint verb sets.
// Overlapping verbs panic, as do two explicitly set fallbacks; the combined
// table keeps whichever fallback (if any) one side defines. Allow lists
// concatenate receiver-first with deduplication; skip mode on either side
// wins.
func (t *MethodTable[C]) Merge(other *MethodTable[C]) *MethodTable[C] {
	if other == nil {
		return t
	}

	for _, method := range supportedMethods {
		h, ok := other.slots[method]
		if !ok {
			continue
		}
		if _, dup := t.slots[method]; dup {
			panic(fmt.Errorf("%w: cannot merge two method routes that both define '%s'", ErrOverlappingMethod, method))
		}
		t.slots[method] = h
	}

	if t.fallback != nil && other.fallback != nil {
		panic(fmt.Errorf("%w", ErrConflictingFallback))
	}
	if t.fallback == nil {
		t.fallback = other.fallback
	}

	if t.allow == allowSkip || other.allow == allowSkip {
		t.allow = allowSkip
		t.allowed = nil
		return t
	}
	for _, m := range other.allowed {
		t.appendAllow(m)
	}
	return t
}

// allowValue returns the comma-joined, deduplicated Allow header value in
// first-registration order, and whether the header should be emitted at all.
func (t *MethodTable[C]) allowValue() (string, bool) {
	if t.allow != allowList || len(t.allowed) == 0 {
		return "", false
	}
	return strings.Join(t.allowed, ","), true
}

// Methods returns the verbs with a configured slot, in canonical order.
func (t *MethodTable[C]) Methods() []string {
	var out []string
	for _, m := range supportedMethods {
		if _, ok := t.slots[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// wrapSlots chains middleware around every configured slot and the fallback.
// Used when routes registered through an inline group or a merged router
// carry middleware that would otherwise be bypassed.
func (t *MethodTable[C]) wrapSlots(mws []handler.Middleware[C]) {
	if len(mws) == 0 {
		return
	}
	for method, h := range t.slots {
		t.slots[method] = chain(mws, h)
	}
	if t.fallback != nil {
		t.fallback = chain(mws, t.fallback)
	}
}

// dispatch resolves the handler slot for method. HEAD is answered by the GET
// slot (with the body stripped by the caller) unless HEAD was registered
// explicitly. ok is false on a method miss; the caller then resolves the
// table fallback or the route tree's fallback chain.
func (t *MethodTable[C]) dispatch(method string) (handler.HandlerFunc[C], bool) {
	if h, ok := t.slots[method]; ok {
		return h, true
	}
	if method == http.MethodHead {
		if h, ok := t.slots[http.MethodGet]; ok {
			return h, true
		}
	}
	return nil, false
}
