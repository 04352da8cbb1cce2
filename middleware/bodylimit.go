package middleware

import (
	"fmt"
	"io"
	"mime"
	"strconv"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/response"
)

// BodyLimitConfig configures the request body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// MaxSize is the maximum allowed size in bytes (default: 4MB)
	MaxSize int64

	// ContentTypeLimit allows setting different limits per content type
	// Example: {"application/json": 1MB, "multipart/form-data": 10MB}
	ContentTypeLimit map[string]int64

	// ErrorHandler handles requests that exceed the size limit
	ErrorHandler func(ctx handler.Context, contentLength int64, maxSize int64) handler.Response

	// DisableContentLengthCheck skips the Content-Length header check
	// and only enforces the limit during body reading
	DisableContentLengthCheck bool
}

// BodyLimit creates a body limit middleware with default configuration (4MB limit).
// It prevents processing of requests with excessively large bodies.
func BodyLimit[C handler.Context]() handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{})
}

// BodyLimitWithSize creates a body limit middleware with a specified size limit.
func BodyLimitWithSize[C handler.Context](maxSize int64) handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{
		MaxSize: maxSize,
	})
}

// BodyLimitWithConfig creates a body limit middleware with custom configuration.
// It restricts the size of incoming request bodies to prevent resource exhaustion.
// Oversized requests are rejected up front when Content-Length is declared, and
// cut off during reading otherwise.
func BodyLimitWithConfig[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 4 * MB
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx handler.Context, contentLength int64, maxSize int64) handler.Response {
			message := fmt.Sprintf("Request body too large. Maximum allowed: %s", formatBytes(maxSize))
			details := map[string]any{
				"limit": maxSize,
			}
			if contentLength > 0 {
				message = fmt.Sprintf("Request body too large. Size: %s, Maximum allowed: %s",
					formatBytes(contentLength), formatBytes(maxSize))
				details["size"] = contentLength
			}
			return response.Error(response.ErrRequestEntityTooLarge.WithMessage(message).WithDetails(details))
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()

			// Determine the size limit based on content type
			maxSize := cfg.MaxSize
			if cfg.ContentTypeLimit != nil {
				mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
				if err == nil {
					if limit, ok := cfg.ContentTypeLimit[mediaType]; ok {
						maxSize = limit
					}
				}
			}

			if !cfg.DisableContentLengthCheck {
				if contentLengthStr := req.Header.Get("Content-Length"); contentLengthStr != "" {
					contentLength, err := strconv.ParseInt(contentLengthStr, 10, 64)
					if err == nil && contentLength > maxSize {
						return cfg.ErrorHandler(ctx, contentLength, maxSize)
					}
				}
			}

			if req.Body != nil {
				req.Body = &limitedReader{
					reader: req.Body,
					limit:  maxSize,
				}
			}

			return next(ctx)
		}
	}
}

// limitedReader wraps an io.ReadCloser to enforce a size limit during reads.
type limitedReader struct {
	reader io.ReadCloser
	limit  int64
	read   int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("request body size exceeds limit of %d bytes (read: %d)", lr.limit, lr.read)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := lr.reader.Read(p)
	lr.read += int64(n)

	if lr.read > lr.limit {
		return n, fmt.Errorf("request body size exceeds limit of %d bytes (read: %d)", lr.limit, lr.read)
	}

	return n, err
}

func (lr *limitedReader) Close() error {
	return lr.reader.Close()
}

// formatBytes formats bytes into a human-readable string.
func formatBytes(bytes int64) string {
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// Common size constants for convenience.
const (
	// KB represents 1 kilobyte
	KB int64 = 1024
	// MB represents 1 megabyte
	MB = 1024 * KB
	// GB represents 1 gigabyte
	GB = 1024 * MB
)
