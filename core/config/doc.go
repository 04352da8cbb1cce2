// Package config loads typed configuration structs from environment
// variables and YAML files.
//
// Environment loading uses `env` struct tags and caches each config type
// per process, so packages can load their own config independently without
// re-reading the environment:
//
//	type AppConfig struct {
//		Port  int    `env:"PORT" envDefault:"8080"`
//		Debug bool   `env:"DEBUG" envDefault:"false"`
//		DSN   string `env:"DATABASE_URL,required"`
//	}
//
//	var cfg AppConfig
//	config.MustLoad(&cfg)
//
// A .env file in the working directory is loaded once per process before
// the first parse; real deployments set variables directly.
//
// File loading reads YAML first and applies environment variables on top,
// so deployment overrides always win:
//
//	var cfg AppConfig
//	if err := config.LoadFile("config.yaml", &cfg); err != nil {
//		log.Fatal(err)
//	}
package config
