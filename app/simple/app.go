package simple

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/dispatch/core/config"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/core/router"
	"github.com/dmitrymomot/dispatch/core/server"
	"github.com/dmitrymomot/dispatch/middleware"
)

// App wires configuration, logging, routing, and the HTTP server into a
// ready-to-run application with sensible defaults.
type App struct {
	config Config
	router router.Router[*Context]
	server *server.Server
	logger *slog.Logger
}

type AppOption func(*App) error

// NewApp creates an application from environment configuration.
// Components not overridden via options are built from the loaded config:
// a logger matching APP_ENV, a router with request ID and logging middleware,
// and a server from the SERVER_* variables.
func NewApp(opts ...AppOption) (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	app := &App{
		config: cfg,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.logger == nil {
		app.logger = newLogger(cfg)
	}

	if app.router == nil {
		app.router = router.New(
			router.WithContextFactory(newContext),
			router.WithLogger[*Context](app.logger),
		)
		app.router.Use(
			middleware.RequestID[*Context](),
			middleware.ClientIP[*Context](),
			middleware.LoggingWithLogger[*Context](app.logger),
		)
	}

	if app.server == nil {
		s, err := server.NewFromConfig(cfg.Server, server.WithLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	return app, nil
}

func newLogger(cfg Config) *slog.Logger {
	opts := make([]logger.Option, 0, 2)
	if cfg.Env == "production" {
		opts = append(opts, logger.WithProduction(cfg.AppName))
	} else {
		opts = append(opts, logger.WithDevelopment(cfg.AppName))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
		opts = append(opts, logger.WithLevel(level))
	}

	return logger.New(opts...)
}

// Router exposes the application's router for route registration.
func (a *App) Router() router.Router[*Context] {
	return a.router
}

// Logger exposes the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Config returns the loaded application configuration.
func (a *App) Config() Config {
	return a.config
}

// Run starts the HTTP server and blocks until the context is canceled,
// then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx, a.router)()
}

func WithLogger(logger *slog.Logger) AppOption {
	return func(app *App) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

func WithRouter(router router.Router[*Context]) AppOption {
	return func(app *App) error {
		if router == nil {
			return errors.New("router cannot be nil")
		}
		app.router = router
		return nil
	}
}

func WithServer(server *server.Server) AppOption {
	return func(app *App) error {
		if server == nil {
			return errors.New("server cannot be nil")
		}
		app.server = server
		return nil
	}
}
