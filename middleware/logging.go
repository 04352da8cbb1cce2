package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/logger"
)

// LoggingConfig configures the request/response logging middleware.
// It provides fine-grained control over what gets logged and how.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Logger is the slog logger to use (default: slog.Default())
	Logger *slog.Logger

	// LogLevel for request logging (default: slog.LevelInfo)
	LogLevel slog.Level

	// LogRequest enables logging of request details (default: true)
	LogRequest bool

	// LogResponse enables logging of response details (default: true)
	LogResponse bool

	// LogRequestBody enables logging of request body (default: false for security)
	LogRequestBody bool

	// LogHeaders enables logging of request/response headers (default: false for security)
	LogHeaders bool

	// MaxBodyLogSize is the maximum size of body to log in bytes (default: 4KB)
	MaxBodyLogSize int

	// SensitiveHeaders is a list of header names to redact (default: common auth headers)
	SensitiveHeaders []string

	// SlowRequestThreshold logs slow requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration

	// Component name for structured logging
	Component string
}

// Logging creates a request/response logging middleware with default configuration.
// It logs basic request and response information at info level.
func Logging[C handler.Context]() handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{})
}

// LoggingWithLogger creates a logging middleware with a custom logger.
func LoggingWithLogger[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{
		Logger: log,
	})
}

// LoggingWithConfig creates a request/response logging middleware with custom configuration.
// It logs HTTP requests and responses for debugging and monitoring, with redaction
// of sensitive headers and automatic level escalation for errors and slow requests.
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.LogLevel == 0 {
		cfg.LogLevel = slog.LevelInfo
	}

	// Default to logging request and response (but not bodies)
	if !cfg.LogRequest && !cfg.LogResponse {
		cfg.LogRequest = true
		cfg.LogResponse = true
	}

	if cfg.MaxBodyLogSize <= 0 {
		cfg.MaxBodyLogSize = 4 * 1024
	}

	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}

	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}

	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			req := ctx.Request()

			requestID, _ := GetRequestID(ctx)

			attrs := []slog.Attr{
				logger.Component(cfg.Component),
				logger.Event("request"),
				logger.Method(req.Method),
				logger.Path(req.URL.Path),
				slog.String("remote_addr", req.RemoteAddr),
			}

			if requestID != "" {
				attrs = append(attrs, logger.RequestID(requestID))
			}

			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}

			if cfg.LogRequestBody && req.Body != nil {
				requestBody, _ := io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewBuffer(requestBody))

				if len(requestBody) > 0 {
					bodyToLog := requestBody
					if len(bodyToLog) > cfg.MaxBodyLogSize {
						bodyToLog = bodyToLog[:cfg.MaxBodyLogSize]
						attrs = append(attrs, slog.Bool("request_body_truncated", true))
					}
					attrs = append(attrs, slog.String("request_body", string(bodyToLog)))
				}
			}

			if cfg.LogHeaders {
				if headers := redactHeaders(req.Header, cfg.SensitiveHeaders); len(headers) > 0 {
					attrs = append(attrs, slog.Any("request_headers", headers))
				}
			}

			if cfg.LogRequest {
				cfg.Logger.LogAttrs(req.Context(), cfg.LogLevel, "HTTP request started", attrs...)
			}

			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				wrapped := &loggingResponseWriter{
					ResponseWriter: w,
					statusCode:     http.StatusOK,
				}
				err := response(wrapped, r)

				duration := time.Since(start)

				respAttrs := []slog.Attr{
					logger.Component(cfg.Component),
					logger.Event("response"),
					logger.Method(req.Method),
					logger.Path(req.URL.Path),
					logger.StatusCode(wrapped.statusCode),
					logger.BytesOut(int64(wrapped.size)),
					logger.Duration(duration),
				}

				if requestID != "" {
					respAttrs = append(respAttrs, logger.RequestID(requestID))
				}

				if cfg.LogHeaders && wrapped.headerWritten {
					if headers := redactHeaders(w.Header(), cfg.SensitiveHeaders); len(headers) > 0 {
						respAttrs = append(respAttrs, slog.Any("response_headers", headers))
					}
				}

				level := cfg.LogLevel
				switch {
				case wrapped.statusCode >= 500:
					level = slog.LevelError
					respAttrs = append(respAttrs, logger.Error(err))
				case wrapped.statusCode >= 400:
					level = slog.LevelWarn
				case duration > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					respAttrs = append(respAttrs, slog.Bool("slow_request", true))
				}

				if cfg.LogResponse {
					cfg.Logger.LogAttrs(req.Context(), level, "HTTP request completed", respAttrs...)
				}

				return err
			}
		}
	}
}

// redactHeaders copies headers into a loggable map, replacing sensitive values.
func redactHeaders(src http.Header, sensitive []string) map[string]any {
	headers := make(map[string]any, len(src))
	for key, values := range src {
		if slices.Contains(sensitive, key) {
			headers[key] = "[REDACTED]"
			continue
		}
		if len(values) == 1 {
			headers[key] = values[0]
		} else {
			headers[key] = values
		}
	}
	return headers
}

// loggingResponseWriter wraps http.ResponseWriter to capture response details.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	size          int
	headerWritten bool
}

func (rw *loggingResponseWriter) WriteHeader(statusCode int) {
	if rw.headerWritten {
		return
	}
	rw.statusCode = statusCode
	rw.headerWritten = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *loggingResponseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}
