package simple

import (
	"github.com/dmitrymomot/dispatch/core/server"
)

// Config aggregates application configuration loaded from the environment.
type Config struct {
	Server server.Config

	AppName  string `env:"APP_NAME" envDefault:"app"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}
