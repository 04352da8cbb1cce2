// Package handler defines the request-processing contract shared by the
// router, the extraction pipeline, and the response package.
//
// A handler is a function from a typed context to a Response closure:
//
//	func hello(ctx *router.Context) handler.Response {
//		return response.String("hello, " + ctx.Param("name"))
//	}
//
// The Response closure performs all writing; handlers themselves never touch
// the ResponseWriter. This split keeps one exit path per request: whatever a
// handler or extractor produces, success or failure, is rendered through the
// same contract by the router.
//
// The Context interface is generic over the concrete context type, so
// applications can supply their own context carrying authenticated users,
// tenants, or loggers while reusing the router and middleware unchanged:
//
//	type AppContext struct {
//		*router.Context
//		User *User
//	}
//
//	r := router.New[*AppContext](router.WithContextFactory(newAppContext))
//
// Middleware is expressed as a function over HandlerFunc. The router chains
// middleware at registration time; no reflection or runtime lookup happens
// per request.
package handler
