package extract

import (
	"fmt"
	"io"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// DefaultMaxTextSize is the maximum accepted plain text body size (1MB).
const DefaultMaxTextSize = 1 << 20 // 1 MB

// TextBody returns a body-consuming step that reads the request body as a
// UTF-8 string and hands it to assign. Unlike JSONBody it accepts any
// Content-Type; webhooks and raw payload endpoints set all kinds of values.
//
//	type echoRequest struct{ Payload string }
//
//	extract.TextBody(func(v *echoRequest, s string) { v.Payload = s })
func TextBody[T any](assign func(v *T, body string)) Step[T] {
	return Step[T]{
		name: "text",
		body: true,
		bind: func(ctx handler.Context, v *T) error {
			if err := takeBody(ctx); err != nil {
				return err
			}

			limitedReader := io.LimitReader(ctx.Request().Body, DefaultMaxTextSize+1)
			body, err := io.ReadAll(limitedReader)
			if err != nil {
				return fmt.Errorf("%w: failed to read request body: %v", ErrFailedToParseForm, err)
			}
			if len(body) > DefaultMaxTextSize {
				return fmt.Errorf("%w: request body too large (max %d bytes)", ErrFailedToParseForm, DefaultMaxTextSize)
			}

			assign(v, string(body))
			return nil
		},
	}
}
