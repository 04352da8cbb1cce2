package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// ContextExtractor pulls an attribute out of a context.
// Return false when the context carries nothing for this extractor.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type config struct {
	level      slog.Level
	json       bool
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
	options    *slog.HandlerOptions
}

// Option configures logger creation.
type Option func(*config)

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithJSONFormatter switches output to JSON format.
func WithJSONFormatter() Option {
	return func(c *config) {
		c.json = true
	}
}

// WithTextFormatter switches output to human-readable text format.
func WithTextFormatter() Option {
	return func(c *config) {
		c.json = false
	}
}

// WithOutput sets the log destination. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithAttr attaches attributes to every log record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithContextExtractors registers extractors that inject attributes
// from the context on every *Context log call.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		c.extractors = append(c.extractors, extractors...)
	}
}

// WithContextValue registers an extractor that copies a string context value
// under the given attribute key. The context key must be comparable with
// the provided value.
func WithContextValue(attrKey string, ctxKey any) Option {
	return WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(ctxKey).(string); ok && v != "" {
			return slog.String(attrKey, v), true
		}
		return slog.Attr{}, false
	})
}

// WithHandlerOptions overrides the slog handler options entirely.
// The level set via WithLevel is ignored when this option is used.
func WithHandlerOptions(opts *slog.HandlerOptions) Option {
	return func(c *config) {
		c.options = opts
	}
}

// WithDevelopment configures text output at debug level with an app attribute.
func WithDevelopment(app string) Option {
	return func(c *config) {
		c.json = false
		c.level = slog.LevelDebug
		c.attrs = append(c.attrs, slog.String("app", app))
	}
}

// WithProduction configures JSON output at info level with an app attribute.
func WithProduction(app string) Option {
	return func(c *config) {
		c.json = true
		c.level = slog.LevelInfo
		c.attrs = append(c.attrs, slog.String("app", app))
	}
}

// New creates a slog.Logger from the given options.
// Defaults to text output at info level on stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := cfg.options
	if handlerOpts == nil {
		handlerOpts = &slog.HandlerOptions{Level: cfg.level}
	}

	var h slog.Handler
	if cfg.json {
		h = slog.NewJSONHandler(cfg.output, handlerOpts)
	} else {
		h = slog.NewTextHandler(cfg.output, handlerOpts)
	}

	if len(cfg.attrs) > 0 {
		h = h.WithAttrs(cfg.attrs)
	}
	if len(cfg.extractors) > 0 {
		h = &contextHandler{next: h, extractors: cfg.extractors}
	}

	return slog.New(h)
}

// SetAsDefault installs the logger as the process-wide slog default.
func SetAsDefault(log *slog.Logger) {
	slog.SetDefault(log)
}

// contextHandler decorates a handler with context attribute extraction.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, extract := range h.extractors {
		if attr, ok := extract(ctx); ok {
			record.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
