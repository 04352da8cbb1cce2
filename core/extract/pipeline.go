package extract

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// Pipeline runs an ordered sequence of extraction steps against a request,
// assembling a value of type T. Construction validates the sequence; Run
// executes it per request, stopping at the first rejection.
type Pipeline[T any] struct {
	steps []Step[T]
}

// NewPipeline validates and assembles a pipeline from the given steps.
// A body-consuming step anywhere but the last position is a construction
// error: once the body is read, later steps would see an empty stream, so
// the mistake is rejected before any request arrives.
func NewPipeline[T any](steps ...Step[T]) (*Pipeline[T], error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	for i, s := range steps {
		if s.body && i != len(steps)-1 {
			return nil, fmt.Errorf("%w: step %q at position %d of %d", ErrBodyStepNotLast, s.name, i+1, len(steps))
		}
	}
	return &Pipeline[T]{steps: steps}, nil
}

// MustPipeline is like NewPipeline but panics on an invalid step sequence.
// Intended for pipelines assembled at startup.
func MustPipeline[T any](steps ...Step[T]) *Pipeline[T] {
	p, err := NewPipeline(steps...)
	if err != nil {
		panic(err)
	}
	return p
}

// Run executes the steps in order against the request carried by ctx.
// The first failing step aborts the run; later steps do not execute and the
// zero value is returned alongside the rejection.
func (p *Pipeline[T]) Run(ctx handler.Context) (T, error) {
	var v T
	for _, s := range p.steps {
		if err := s.bind(ctx, &v); err != nil {
			var zero T
			return zero, err
		}
	}
	return v, nil
}

// Steps returns the step names in execution order, for introspection.
func (p *Pipeline[T]) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Handler builds a handler that runs the extraction steps, then calls fn with
// the populated request value. A rejection skips fn entirely and surfaces as
// the rejection's HTTP status through the router's error handler, so the
// handler body only ever sees fully extracted input.
//
// With no steps given the handler extracts path and query parameters, which
// covers the common read-only endpoint.
func Handler[C handler.Context, T any](fn func(ctx C, req T) handler.Response, steps ...Step[T]) handler.HandlerFunc[C] {
	if len(steps) == 0 {
		steps = []Step[T]{PathParams[T](), QueryParams[T]()}
	}
	p := MustPipeline(steps...)
	return func(ctx C) handler.Response {
		req, err := p.Run(ctx)
		if err != nil {
			return func(http.ResponseWriter, *http.Request) error { return err }
		}
		return fn(ctx, req)
	}
}
