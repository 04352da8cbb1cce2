// Package logger builds structured slog loggers with environment presets,
// context-aware attribute injection, and helpers for common attributes.
//
// Create a logger with the factory function:
//
//	log := logger.New(
//		logger.WithProduction("myapp"),
//		logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// Context extractors run on every *Context log call and append attributes
// pulled from the context, so request-scoped values like request IDs appear
// on every record without manual plumbing:
//
//	log.InfoContext(ctx, "processing request")
//
// Attribute helpers are nil-safe: logger.Error(nil) produces an empty Attr
// that slog drops, so call sites stay free of nil checks.
package logger
