package router

import (
	"fmt"
	"strings"
)

type segmentKind uint8

const (
	segLiteral  segmentKind = iota // /users
	segParam                       // /{id}
	segWildcard                    // /{*rest}
)

// segment is one compiled element of a route pattern.
// value holds the literal text for segLiteral, the capture name otherwise.
type segment struct {
	kind  segmentKind
	value string
}

// Pattern is a compiled route pattern: an ordered list of literal, capture,
// and trailing-wildcard segments. Patterns are immutable after compilation.
type Pattern struct {
	raw  string
	segs []segment
}

// ParsePattern compiles a pattern string of the form /literal/{capture}/{*wildcard}.
//
// A capture binds exactly one path segment by name. A wildcard may appear only
// as the final segment and binds the remaining path, including slashes.
// Capture and wildcard names must be unique within one pattern.
func ParsePattern(text string) (Pattern, error) {
	if len(text) == 0 || text[0] != '/' {
		return Pattern{}, fmt.Errorf("%w: '%s'", ErrInvalidPattern, text)
	}

	parts := strings.Split(text[1:], "/")
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, "{"):
			if !strings.HasSuffix(part, "}") {
				return Pattern{}, fmt.Errorf("%w: '%s'", ErrParamDelimiter, text)
			}
			name := part[1 : len(part)-1]
			kind := segParam
			if strings.HasPrefix(name, "*") {
				kind = segWildcard
				name = name[1:]
				if i != len(parts)-1 {
					return Pattern{}, fmt.Errorf("%w: '%s'", ErrWildcardPosition, text)
				}
			}
			if name == "" {
				return Pattern{}, fmt.Errorf("%w: '%s'", ErrParamDelimiter, text)
			}
			if _, dup := seen[name]; dup {
				return Pattern{}, fmt.Errorf("%w: '%s' has duplicate key '%s'", ErrDuplicateParam, text, name)
			}
			seen[name] = struct{}{}
			segs = append(segs, segment{kind: kind, value: name})

		case strings.ContainsAny(part, "{}*"):
			return Pattern{}, fmt.Errorf("%w: '%s'", ErrInvalidPattern, text)

		default:
			segs = append(segs, segment{kind: segLiteral, value: part})
		}
	}

	return Pattern{raw: text, segs: segs}, nil
}

// MustParsePattern is like ParsePattern but panics on error.
// Route registration uses it so malformed patterns abort at startup.
func MustParsePattern(text string) Pattern {
	p, err := ParsePattern(text)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original pattern text.
func (p Pattern) String() string { return p.raw }

// ParamKeys returns the capture and wildcard names in pattern order.
func (p Pattern) ParamKeys() []string {
	var keys []string
	for _, s := range p.segs {
		if s.kind != segLiteral {
			keys = append(keys, s.value)
		}
	}
	return keys
}

func (p Pattern) hasWildcard() bool {
	return len(p.segs) > 0 && p.segs[len(p.segs)-1].kind == segWildcard
}

// Match walks pattern segments against path segments positionally and returns
// the captured name/value pairs. A literal must equal the path segment
// exactly. A capture binds exactly one segment; the empty segment is allowed
// in every position, so pattern /{key}/method matches path //method with
// key="". A trailing wildcard binds the whole remaining suffix, slashes
// included, possibly empty. A path with fewer segments than the pattern
// requires does not match.
func (p Pattern) Match(path string) (map[string]string, bool) {
	if len(path) == 0 || path[0] != '/' {
		return nil, false
	}

	parts := strings.Split(path[1:], "/")

	var params map[string]string
	for i, seg := range p.segs {
		if seg.kind == segWildcard {
			rest := ""
			if i < len(parts) {
				rest = strings.Join(parts[i:], "/")
			}
			if params == nil {
				params = make(map[string]string, 1)
			}
			params[seg.value] = rest
			return params, true
		}

		if i >= len(parts) {
			return nil, false
		}

		switch seg.kind {
		case segLiteral:
			if parts[i] != seg.value {
				return nil, false
			}
		case segParam:
			if params == nil {
				params = make(map[string]string, len(p.segs))
			}
			params[seg.value] = parts[i]
		}
	}

	if len(parts) != len(p.segs) {
		return nil, false
	}
	return params, true
}

// equivalent reports whether two patterns match exactly the same set of
// paths: same shape, with equal literals position by position. Registering
// two equivalent patterns is an overlapping-route conflict because requests
// matching one always match the other with identical specificity.
func (p Pattern) equivalent(o Pattern) bool {
	if len(p.segs) != len(o.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i].kind != o.segs[i].kind {
			return false
		}
		if p.segs[i].kind == segLiteral && p.segs[i].value != o.segs[i].value {
			return false
		}
	}
	return true
}

func kindRank(k segmentKind) int {
	switch k {
	case segLiteral:
		return 2
	case segParam:
		return 1
	default:
		return 0
	}
}

// moreSpecific orders two patterns competing for the same request:
// position by position, an exact literal beats a capture, which beats a
// wildcard. When one pattern ends while the other continues with a wildcard,
// the ended pattern wins: it matched the path exactly, the wildcard only
// absorbed an empty remainder. Equal-shape patterns compare as
// not-more-specific either way; insertion rejects those as overlapping
// before dispatch can ever see them.
func moreSpecific(a, b Pattern) bool {
	n := len(a.segs)
	if len(b.segs) > n {
		n = len(b.segs)
	}
	for i := 0; i < n; i++ {
		// Positions past a pattern's end outrank every segment kind: two
		// patterns matching one path can only diverge in length through a
		// trailing wildcard on the longer one.
		ra, rb := 3, 3
		if i < len(a.segs) {
			ra = kindRank(a.segs[i].kind)
		}
		if i < len(b.segs) {
			rb = kindRank(b.segs[i].kind)
		}
		if ra != rb {
			return ra > rb
		}
	}
	return false
}
