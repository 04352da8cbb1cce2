package router

import (
	"fmt"
	"strings"
)

// parseMountPrefix compiles a mount-prefix pattern. Prefixes are composed of
// literal and capture segments only; a wildcard inside a prefix is a
// registration-time fatal because the remainder past the prefix belongs to
// the mounted sub-router.
func parseMountPrefix(text string) Pattern {
	p := MustParsePattern(text)
	if p.hasWildcard() {
		panic(fmt.Errorf("%w: '%s'", ErrWildcardInPrefix, text))
	}
	return p
}

// matchPrefix walks path and prefix segments pairwise and, on a match,
// returns the capture bindings made by the prefix and the remainder path the
// mounted sub-router should see.
//
// A capture prefix segment consumes any corresponding path segment. A
// literal must equal the path segment exactly. A prefix ending in a trailing
// empty segment (the pattern text ends with '/') matches as soon as all
// preceding segments match, and everything after becomes the remainder. When
// the prefix is exhausted, the remainder is re-prefixed with '/'; when path
// and prefix exhaust together the remainder is "/". The query string is not
// part of the walk and is preserved by the caller untouched.
func matchPrefix(path string, prefix Pattern) (map[string]string, string, bool) {
	if len(path) == 0 || path[0] != '/' {
		return nil, "", false
	}

	parts := strings.Split(path[1:], "/")
	segs := prefix.segs

	var params map[string]string
	consumed := len(segs)

	for i, seg := range segs {
		if seg.kind == segLiteral && seg.value == "" && i == len(segs)-1 {
			consumed = i
			break
		}
		if i >= len(parts) {
			return nil, "", false
		}
		switch seg.kind {
		case segLiteral:
			if parts[i] != seg.value {
				return nil, "", false
			}
		case segParam:
			if params == nil {
				params = make(map[string]string, len(segs))
			}
			params[seg.value] = parts[i]
		}
	}

	rest := ""
	if consumed < len(parts) {
		rest = strings.Join(parts[consumed:], "/")
	}
	return params, "/" + rest, true
}
