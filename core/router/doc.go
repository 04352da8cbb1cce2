// Package router maps inbound HTTP requests to registered handlers through
// compiled path patterns and per-path method tables, and converts handler
// results into well-formed responses.
//
// # Patterns
//
// Route patterns are compiled once at registration into ordered segment
// lists:
//
//	/users              literal segments only
//	/users/{id}         {id} captures exactly one path segment
//	/files/{*path}      {*path} captures the remaining path, slashes included
//
// A wildcard may appear only as the final segment. Competing patterns
// resolve by specificity, position by position: an exact literal beats a
// capture, which beats a wildcard. Two patterns of identical shape are
// rejected at registration as overlapping.
//
// # Method dispatch
//
// Each pattern owns a method table with one slot per verb. HEAD requests are
// answered by the GET slot with the body stripped unless HEAD is registered
// explicitly. A request for a configured path with an unconfigured verb gets
// 405 Method Not Allowed with an Allow header listing the configured verbs
// in first-registration order. Registering the same verb twice on one
// pattern panics during startup rather than silently overwriting.
//
// Method tables can be built standalone and attached with On:
//
//	r.On("/users/{id}", router.Get(showUser).Delete(deleteUser))
//
// # Mounting and fallbacks
//
//	admin := router.New[*router.Context]()
//	admin.Get("/users", listUsers)
//
//	r := router.New[*router.Context]()
//	r.Mount("/api/{version}", admin)
//
// The mounted router sees the request path with the matched prefix stripped
// (GET /api/v1/users arrives as GET /users) and inherits the prefix captures
// (Param("version") == "v1"). Mount prefixes may contain captures but no
// wildcard.
//
// Each router scope may set one Fallback handler, consulted when no route or
// method matches. Nested routers without their own fallback inherit the
// nearest ancestor's one, resolved per request; the default is 404 Not Found
// with an empty body.
//
// # Concurrency
//
// The route tree is built during registration and frozen on the first
// request (or explicitly via Freeze). Dispatch never mutates or locks the
// tree; handlers and tables are shared by pointer across concurrent
// requests. Cancellation follows the request context: a dropped connection
// aborts in-flight handlers at their next context check.
package router
