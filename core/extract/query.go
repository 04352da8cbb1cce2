package extract

import (
	"fmt"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// QueryParams returns a head-only step that binds URL query parameters to
// struct fields tagged `query`. Untagged exported fields bind by their
// lowercase name; `query:"-"` skips a field. Repeated parameters and
// comma-separated values both populate slice fields.
//
//	type listRequest struct {
//		Page    int      `query:"page"`
//		PerPage int      `query:"per_page"`
//		Tags    []string `query:"tags"`
//	}
func QueryParams[T any]() Step[T] {
	return Step[T]{
		name: "query",
		bind: func(ctx handler.Context, v *T) error {
			query := ctx.Request().URL.Query()
			if err := bindToStruct(v, "query", query, ErrFailedToParseQuery); err != nil {
				return err
			}
			return nil
		},
	}
}

// QueryParam returns a head-only step that binds a single query parameter
// through assign, for handlers that want one value without a tagged struct.
func QueryParam[T any](name string, assign func(v *T, value string) error) Step[T] {
	return Step[T]{
		name: "query:" + name,
		bind: func(ctx handler.Context, v *T) error {
			val := ctx.Request().URL.Query().Get(name)
			if err := assign(v, sanitizeStringValue(val)); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrFailedToParseQuery, name, err)
			}
			return nil
		},
	}
}
