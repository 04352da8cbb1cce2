// Package middleware provides HTTP middleware for the router's generic
// handler pipeline. All middleware is generic over the context type and
// composes through handler.Middleware, wrapping both the handler call and
// the produced response.
//
// Available middleware:
//
//   - RequestID: assigns a unique ID to each request for tracing
//   - Logging: structured request/response logging with header redaction
//   - ClientIP: extracts the real client IP from proxy headers
//   - RateLimit: per-key token bucket rate limiting
//   - BodyLimit: request body size restriction
//   - CORS: cross-origin resource sharing with preflight handling
//   - SecurityHeaders: standard HTTP security headers
//
// Middleware applies globally via Use, or scoped via With and Group:
//
//	r := router.New[*router.Context]()
//	r.Use(
//		middleware.RequestID[*router.Context](),
//		middleware.ClientIP[*router.Context](),
//		middleware.Logging[*router.Context](),
//	)
//
//	r.Route("/api", func(api router.Router[*router.Context]) {
//		api.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
//			Rate:  100,
//			Burst: 200,
//		}))
//	})
//
// Every middleware supports a Skip function to bypass specific requests,
// typically health checks:
//
//	middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
//		Skip: func(ctx handler.Context) bool {
//			return ctx.Request().URL.Path == "/health"
//		},
//	})
package middleware
