package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// requestIDContextKey keys the generated ID in the request context.
type requestIDContextKey struct{}

// RequestIDConfig tunes RequestIDWithConfig.
type RequestIDConfig struct {
	// Skip bypasses the middleware when it reports true.
	Skip func(ctx handler.Context) bool
	// Generator mints IDs. Defaults to random UUIDs.
	Generator func() string
	// HeaderName is the request and response header carrying the ID.
	// Defaults to X-Request-ID.
	HeaderName string
	// UseExisting trusts an ID already present on the incoming request
	// instead of minting a fresh one.
	UseExisting bool
}

// RequestID tags every request with a fresh UUID, exposed to handlers
// through GetRequestID and echoed on the response header.
func RequestID[C handler.Context]() handler.Middleware[C] {
	return RequestIDWithConfig[C](RequestIDConfig{})
}

// RequestIDWithConfig is RequestID with explicit configuration.
func RequestIDWithConfig[C handler.Context](cfg RequestIDConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			var id string
			if cfg.UseExisting {
				id = ctx.Request().Header.Get(cfg.HeaderName)
			}
			if id == "" {
				id = cfg.Generator()
			}

			// Stored before next runs so downstream middleware and the
			// handler observe the same ID the response will carry.
			ctx.SetValue(requestIDContextKey{}, id)

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				w.Header().Set(cfg.HeaderName, id)
				return resp(w, r)
			}
		}
	}
}

// GetRequestID reads the ID stored by the middleware, reporting whether one
// is present.
func GetRequestID(ctx handler.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok
}
