package router

import (
	"fmt"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// routeEntry pairs one compiled pattern with its per-method dispatch table.
type routeEntry[C handler.Context] struct {
	pattern Pattern
	table   *MethodTable[C]
}

// mountEntry attaches a sub-router under a mount prefix. The effective
// pattern (prefix plus an implicit trailing wildcard) is what competes with
// sibling routes for specificity.
type mountEntry[C handler.Context] struct {
	prefix    Pattern
	effective Pattern
	sub       *mux[C]
}

// node is one scope of the route tree: the routes and mounts registered on a
// single router, plus its optional fallback. The tree is assembled strictly
// bottom-up during registration and is read-only once serving starts, so
// concurrent dispatch takes no locks; handlers and tables are shared by
// pointer between requests.
type node[C handler.Context] struct {
	entries  []*routeEntry[C]
	mounts   []*mountEntry[C]
	fallback handler.HandlerFunc[C]
	parent   *node[C]
}

// mountPattern derives the pattern a mount competes with: the prefix minus
// any trailing empty segment, with a wildcard absorbing the remainder.
func mountPattern(prefix Pattern) Pattern {
	segs := prefix.segs
	if n := len(segs); n > 0 && segs[n-1].kind == segLiteral && segs[n-1].value == "" {
		segs = segs[:n-1]
	}
	eff := make([]segment, 0, len(segs)+1)
	eff = append(eff, segs...)
	eff = append(eff, segment{kind: segWildcard, value: "*"})
	return Pattern{raw: prefix.raw, segs: eff}
}

// checkConflicts panics when p is equivalent to an already registered route
// or mount pattern: both would match the same requests with identical
// specificity, which makes dispatch ambiguous.
func (n *node[C]) checkConflicts(p Pattern) {
	for _, e := range n.entries {
		if e.pattern.equivalent(p) {
			panic(fmt.Errorf("%w: '%s' conflicts with '%s'", ErrOverlappingRoute, p.raw, e.pattern.raw))
		}
	}
	for _, m := range n.mounts {
		if m.effective.equivalent(p) {
			panic(fmt.Errorf("%w: '%s' conflicts with mount '%s'", ErrOverlappingRoute, p.raw, m.prefix.raw))
		}
	}
}

// entryFor returns the route entry for the exact pattern text, creating it
// when absent. A different pattern with the same shape is an
// overlapping-route fatal.
func (n *node[C]) entryFor(text string) *routeEntry[C] {
	p := MustParsePattern(text)

	for _, e := range n.entries {
		if e.pattern.raw == p.raw {
			return e
		}
	}

	n.checkConflicts(p)

	e := &routeEntry[C]{pattern: p, table: NewMethodTable[C]()}
	n.entries = append(n.entries, e)
	return e
}

// addMount registers a sub-router under prefix.
func (n *node[C]) addMount(prefix Pattern, sub *mux[C]) {
	eff := mountPattern(prefix)

	for _, e := range n.entries {
		if e.pattern.equivalent(eff) {
			panic(fmt.Errorf("%w: mount '%s' conflicts with '%s'", ErrOverlappingRoute, prefix.raw, e.pattern.raw))
		}
	}
	for _, m := range n.mounts {
		if m.effective.equivalent(eff) {
			panic(fmt.Errorf("%w: mount '%s' conflicts with mount '%s'", ErrOverlappingRoute, prefix.raw, m.prefix.raw))
		}
	}

	sub.tree.parent = n
	n.mounts = append(n.mounts, &mountEntry[C]{prefix: prefix, effective: eff, sub: sub})
}

// treeMatch is the winner of pattern competition for one request path.
type treeMatch[C handler.Context] struct {
	entry  *routeEntry[C]
	mount  *mountEntry[C]
	params map[string]string
	rest   string // remainder path for mounts
}

// find resolves the most specific route or mount for path. All matching
// candidates compete position by position: exact literal over capture over
// wildcard; mounts compete as their prefix plus an implicit wildcard. Ties
// cannot occur at dispatch time because equivalent patterns are rejected at
// registration.
func (n *node[C]) find(path string) (treeMatch[C], bool) {
	var (
		best    treeMatch[C]
		bestPat Pattern
		found   bool
	)

	for _, e := range n.entries {
		params, ok := e.pattern.Match(path)
		if !ok {
			continue
		}
		if !found || moreSpecific(e.pattern, bestPat) {
			best = treeMatch[C]{entry: e, params: params}
			bestPat = e.pattern
			found = true
		}
	}

	for _, m := range n.mounts {
		params, rest, ok := matchPrefix(path, m.prefix)
		if !ok {
			continue
		}
		if !found || moreSpecific(m.effective, bestPat) {
			best = treeMatch[C]{mount: m, params: params, rest: rest}
			bestPat = m.effective
			found = true
		}
	}

	return best, found
}

// resolveFallback walks up the nesting tree to the nearest scope with an
// explicit fallback. Resolution happens per request, so a fallback set on an
// ancestor after a child was mounted still applies to the child, unless an
// intervening scope overrides it.
func (n *node[C]) resolveFallback() handler.HandlerFunc[C] {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.fallback != nil {
			return cur.fallback
		}
	}
	return nil
}

// merge folds other's routes, mounts, and fallback into n. Identical
// patterns merge their method tables (disjoint verb sets required);
// equivalent-but-distinct patterns conflict. Two explicit fallbacks are a
// fatal conflict; the merged tree keeps whichever side has one.
func (n *node[C]) merge(other *node[C]) {
	for _, oe := range other.entries {
		var existing *routeEntry[C]
		for _, e := range n.entries {
			if e.pattern.raw == oe.pattern.raw {
				existing = e
				break
			}
		}
		if existing != nil {
			existing.table.Merge(oe.table)
			continue
		}
		n.checkConflicts(oe.pattern)
		n.entries = append(n.entries, oe)
	}

	for _, om := range other.mounts {
		om.sub.tree.parent = n
		for _, e := range n.entries {
			if e.pattern.equivalent(om.effective) {
				panic(fmt.Errorf("%w: mount '%s' conflicts with '%s'", ErrOverlappingRoute, om.prefix.raw, e.pattern.raw))
			}
		}
		for _, m := range n.mounts {
			if m.effective.equivalent(om.effective) {
				panic(fmt.Errorf("%w: mount '%s' conflicts with mount '%s'", ErrOverlappingRoute, om.prefix.raw, m.prefix.raw))
			}
		}
		n.mounts = append(n.mounts, om)
	}

	if other.fallback != nil {
		if n.fallback != nil {
			panic(ErrConflictingFallback)
		}
		n.fallback = other.fallback
	}
}

// routes lists the registered routes of this node and, prefix-joined, of its
// mounted sub-routers.
func (n *node[C]) routes() []Route {
	var rts []Route
	for _, e := range n.entries {
		for _, method := range e.table.Methods() {
			rts = append(rts, Route{Method: method, Pattern: e.pattern.raw})
		}
	}
	for _, m := range n.mounts {
		base := m.prefix.raw
		if base == "/" {
			base = ""
		}
		for _, sub := range m.sub.tree.routes() {
			pat := sub.Pattern
			if pat == "/" {
				pat = ""
			}
			joined := base + pat
			if joined == "" {
				joined = "/"
			}
			rts = append(rts, Route{Method: sub.Method, Pattern: joined})
		}
	}
	return rts
}
