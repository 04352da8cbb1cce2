package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrNilConfig indicates a nil pointer was passed to a load function.
var ErrNilConfig = errors.New("config: target must be a non-nil pointer")

var (
	cache       sync.Map // reflect.Type -> loaded value
	loadEnvOnce sync.Once
)

// loadDotEnv loads .env files into the process environment once per process.
// A missing .env file is not an error; real environments set variables directly.
func loadDotEnv() {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// Load populates cfg from environment variables using `env` struct tags.
// Each configuration type is parsed once per process and cached; subsequent
// calls for the same type return the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	loadDotEnv()

	t := reflect.TypeOf(cfg).Elem()
	if cached, ok := cache.Load(t); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", t, err)
	}

	actual, _ := cache.LoadOrStore(t, *cfg)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Intended for startup paths
// where a missing required variable should abort the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// LoadFile populates cfg from a YAML file, then applies environment variables
// on top so deployment-specific values override the file. File-based configs
// are not cached; callers own reload policy.
func LoadFile[T any](path string, cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	loadDotEnv()
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: environment overrides: %w", err)
	}
	return nil
}

// MustLoadFile is like LoadFile but panics on failure.
func MustLoadFile[T any](path string, cfg *T) {
	if err := LoadFile(path, cfg); err != nil {
		panic(err)
	}
}
