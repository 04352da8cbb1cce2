package healthcheck

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/core/response"
)

// Liveness indicates if the service process is running.
// Always returns "ALIVE" with 200 OK. No dependency checks.
//
//	r.Get("/health/live", healthcheck.Liveness[*myapp.Context])
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}

// Ping returns HTTP 204 without body. Ideal for high-frequency checks.
//
//	r.Get("/ping", healthcheck.Ping[*myapp.Context])
func Ping[C handler.Context](C) handler.Response {
	return response.NoContent()
}

// Readiness verifies all service dependencies are functioning.
// Each check runs in sequence; the first failure is logged and the probe
// answers 503 Service Unavailable. With all checks passing it returns "READY".
//
//	r.Get("/health/ready", healthcheck.Readiness[*myapp.Context](
//		log,
//		store.Healthcheck,
//		queue.Healthcheck,
//	))
func Readiness[C handler.Context](log *slog.Logger, checks ...func(context.Context) error) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				return response.Error(response.ErrServiceUnavailable)
			}
		}

		return response.String("READY")
	}
}
