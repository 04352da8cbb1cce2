// Package healthcheck provides liveness and readiness probe handlers for
// the router's generic handler pipeline. Liveness reports whether the
// process runs; Readiness additionally verifies dependencies through
// caller-supplied check functions.
package healthcheck
