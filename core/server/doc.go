// Package server provides an HTTP server with graceful shutdown, configurable
// options, and production-ready defaults. It wraps the standard http.Server
// and pairs with the router as the outermost handler.
//
// Basic usage:
//
//	r := router.New[*router.Context]()
//	r.Get("/", func(ctx *router.Context) handler.Response {
//		return response.String("ok")
//	})
//
//	ctx := context.Background()
//	if err := server.Run(ctx, ":8080", r); err != nil {
//		log.Fatal(err)
//	}
//
// Configuration can come from the environment through Config:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//
// For coordinated lifecycles, Server.Run returns a function compatible with
// errgroup.Group: the server starts, watches the group context, and shuts
// down gracefully when it is canceled.
package server
