package extract

import (
	"github.com/dmitrymomot/dispatch/core/handler"
)

// Step is a named extraction stage that populates part of a request value of
// type T from the incoming request. Steps that read the request body report
// it through ConsumesBody; a pipeline accepts at most one such step, and only
// in the terminal position.
type Step[T any] struct {
	name string
	body bool
	bind func(ctx handler.Context, v *T) error
}

// Name returns the step's descriptive name, used in pipeline error messages.
func (s Step[T]) Name() string { return s.name }

// ConsumesBody reports whether the step reads the request body.
func (s Step[T]) ConsumesBody() bool { return s.body }

// Custom creates a head-only step from an arbitrary bind function. The bind
// function must not read the request body; use Body for that.
func Custom[T any](name string, bind func(ctx handler.Context, v *T) error) Step[T] {
	return Step[T]{name: name, bind: bind}
}

// Body creates a body-consuming step from an arbitrary bind function. The
// pipeline constructor rejects it anywhere but the last position.
func Body[T any](name string, bind func(ctx handler.Context, v *T) error) Step[T] {
	return Step[T]{name: name, body: true, bind: bind}
}

// bodyTakenKey marks a request whose body has been handed to a consuming
// step. The flag lives in the request context so it survives across nested
// dispatchers sharing one request.
type bodyTakenKey struct{}

// takeBody claims the request body for the calling step. It fails if another
// step already claimed it on this request.
func takeBody(ctx handler.Context) error {
	if taken, _ := ctx.Value(bodyTakenKey{}).(bool); taken {
		return ErrBodyConsumed
	}
	ctx.SetValue(bodyTakenKey{}, true)
	return nil
}
