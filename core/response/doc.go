// Package response builds handler.Response closures for common HTTP reply
// shapes: plain text, HTML, JSON, raw bytes, redirects, and empty statuses.
//
// Handlers return a response instead of writing to the connection, which
// keeps exactly one exit path per request and lets middleware observe the
// outcome:
//
//	func getUser(ctx *router.Context) handler.Response {
//		user, err := store.Find(ctx, ctx.Param("id"))
//		if err != nil {
//			return response.Error(response.ErrNotFound.WithError(err))
//		}
//		return response.JSON(user)
//	}
//
// Errors are first-class: Error(err) defers rendering to the router's error
// handler, and HTTPError carries a status code, machine-readable code, and
// optional details. ErrorHandler and JSONErrorHandler are ready-made error
// handlers for text and JSON APIs.
//
// Decorators wrap any response with extra concerns:
//
//	response.WithHeaders(response.JSON(data), map[string]string{
//		"X-API-Version": "v1",
//	})
package response
