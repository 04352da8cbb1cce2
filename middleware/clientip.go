package middleware

import (
	"net/http"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/response"
	"github.com/dmitrymomot/dispatch/pkg/clientip"
)

// clientIPContextKey keys the resolved client IP in the request context.
type clientIPContextKey struct{}

// ClientIPConfig tunes ClientIPWithConfig.
type ClientIPConfig struct {
	// Skip bypasses the middleware when it reports true.
	Skip func(ctx handler.Context) bool
	// StoreInContext exposes the IP to handlers through GetClientIP.
	StoreInContext bool
	// HeaderName is the response header used by StoreInHeader.
	// Defaults to X-Client-IP.
	HeaderName string
	// StoreInHeader echoes the resolved IP on the response.
	StoreInHeader bool
	// ValidateFunc rejects the request when it returns an error; the
	// response is 403 with the error attached.
	ValidateFunc func(ctx handler.Context, ip string) error
}

// ClientIP resolves the caller's address through proxy headers and stores
// it in the request context for GetClientIP.
func ClientIP[C handler.Context]() handler.Middleware[C] {
	return ClientIPWithConfig[C](ClientIPConfig{
		StoreInContext: true,
	})
}

// ClientIPWithConfig is ClientIP with explicit configuration. A config
// selecting no action at all falls back to storing the IP in context, so
// the middleware never runs for no effect.
func ClientIPWithConfig[C handler.Context](cfg ClientIPConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Client-IP"
	}
	if !cfg.StoreInContext && !cfg.StoreInHeader && cfg.ValidateFunc == nil {
		cfg.StoreInContext = true
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			ip := clientip.GetIP(ctx.Request())

			if cfg.StoreInContext {
				ctx.SetValue(clientIPContextKey{}, ip)
			}

			if cfg.ValidateFunc != nil {
				if err := cfg.ValidateFunc(ctx, ip); err != nil {
					return response.Error(response.ErrForbidden.WithError(err))
				}
			}

			resp := next(ctx)

			if !cfg.StoreInHeader {
				return resp
			}
			return func(w http.ResponseWriter, r *http.Request) error {
				w.Header().Set(cfg.HeaderName, ip)
				return resp(w, r)
			}
		}
	}
}

// GetClientIP reads the IP stored by the middleware, reporting whether one
// is present.
func GetClientIP(ctx handler.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPContextKey{}).(string)
	return ip, ok
}
