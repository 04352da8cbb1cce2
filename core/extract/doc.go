// Package extract assembles typed request values from incoming HTTP requests
// through ordered pipelines of extraction steps.
//
// A pipeline runs its steps strictly in declaration order. Head-only steps
// (PathParams, QueryParams, Headers, Custom) read the request line and
// headers and may appear anywhere; body-consuming steps (JSONBody, FormBody,
// TextBody, Body) may appear once, and only last. The constructor rejects
// any other arrangement, so a pipeline that builds can never read an already
// drained body at request time.
//
// The usual entry point is Handler, which pairs a pipeline with a typed
// handler function:
//
//	type createUserRequest struct {
//		Org   string `path:"org"`
//		Force bool   `query:"force"`
//		Email string `json:"email"`
//	}
//
//	r.Post("/orgs/{org}/users", extract.Handler(
//		func(ctx *router.Context, req createUserRequest) handler.Response {
//			// req is fully populated here
//			return response.JSON(createUser(ctx, req))
//		},
//		extract.PathParams[createUserRequest](),
//		extract.QueryParams[createUserRequest](),
//		extract.JSONBody[createUserRequest](),
//	))
//
// The first failing step aborts the run; later steps never execute and the
// handler is not called. Rejections carry the HTTP status they map to
// (400 for malformed parameters or bodies, 415 for an unsupported media
// type) and flow through the router's error handler like any handler error.
package extract
