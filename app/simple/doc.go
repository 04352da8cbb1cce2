// Package simple wires configuration, logging, routing, and the HTTP server
// into a ready-to-run application. It is the fastest way to stand up a
// service on the dispatch stack:
//
//	app, err := simple.NewApp()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	app.Router().Get("/users/{id}", func(ctx *simple.Context) handler.Response {
//		return response.JSON(map[string]string{"id": ctx.Param("id")})
//	})
//
//	if err := app.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// Configuration comes from the environment (APP_NAME, APP_ENV, LOG_LEVEL,
// and the SERVER_* variables). Each default component can be replaced with
// an option: WithLogger, WithRouter, WithServer.
package simple
