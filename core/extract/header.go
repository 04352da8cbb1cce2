package extract

import (
	"net/textproto"
	"strings"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// Headers returns a head-only step that binds request headers to struct
// fields tagged `header`. Header names are matched case-insensitively via
// canonical MIME form, so `header:"x-request-id"` binds X-Request-Id.
//
//	type authedRequest struct {
//		RequestID string `header:"X-Request-Id"`
//		Accept    string `header:"Accept"`
//	}
func Headers[T any]() Step[T] {
	return Step[T]{
		name: "header",
		bind: func(ctx handler.Context, v *T) error {
			h := ctx.Request().Header
			values := make(map[string][]string, len(h))
			for _, name := range fieldNames(v, "header") {
				canonical := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(name))
				if vals := h.Values(canonical); len(vals) > 0 {
					values[name] = vals
				}
			}
			return bindToStruct(v, "header", values, ErrFailedToParseHeader)
		},
	}
}
