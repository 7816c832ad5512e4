// Package runsafe runs a unit of work and turns every way it can end into a value.
package runsafe

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bearjaws/modelfusion/api"
)

// Result is the outcome of Run. Exactly one of the following holds:
// the work succeeded (Err is nil), it was aborted (Aborted is true) or it failed.
type Result[T any] struct {
	Value   T
	Err     error
	Aborted bool
}

// OK reports whether the work completed normally.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Run executes fn and never panics. Cancellation is recognised by error type
// through api.IsAbort.
func Run[T any](ctx context.Context, fn func(context.Context) (T, error)) (result Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = Result[T]{Value: zero, Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	v, err := fn(ctx)
	if err == nil {
		return Result[T]{Value: v}
	}
	return Result[T]{Err: err, Aborted: api.IsAbort(err)}
}
