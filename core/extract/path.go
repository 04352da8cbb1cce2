package extract

import (
	"github.com/dmitrymomot/dispatch/core/handler"
)

// paramLookup is implemented by contexts that can tell an empty capture
// apart from an absent one. Both router context types implement it; plain
// handler.Context implementations fall back to treating empty as absent.
type paramLookup interface {
	LookupParam(key string) (string, bool)
}

// PathParams returns a head-only step that binds route path captures to
// struct fields tagged `path`. Untagged exported fields bind by their
// lowercase name; `path:"-"` skips a field. Captures are looked up through
// the context, so prefix captures inherited from mount points bind the same
// way as captures from the route's own pattern. A capture bound to the
// empty segment binds as an empty value, not as an absent one.
//
//	type showUserRequest struct {
//		ID int `path:"id"`
//	}
func PathParams[T any]() Step[T] {
	return Step[T]{
		name: "path",
		bind: func(ctx handler.Context, v *T) error {
			values := make(map[string][]string)
			lookup, canLookup := ctx.(paramLookup)
			for _, name := range fieldNames(v, "path") {
				if canLookup {
					if val, ok := lookup.LookupParam(name); ok {
						values[name] = []string{val}
					}
					continue
				}
				if val := ctx.Param(name); val != "" {
					values[name] = []string{val}
				}
			}
			return bindToStruct(v, "path", values, ErrFailedToParsePath)
		},
	}
}
