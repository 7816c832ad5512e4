package events

import (
	"context"
	"fmt"
)

// Observer receives the lifecycle events of model invocations.
// A returned error is reported to the run's error handler and otherwise ignored.
type Observer interface {
	OnStarted(context.Context, Started) error
	OnFinished(context.Context, Finished) error
}

// Funcs adapts plain functions to an Observer. Nil functions are skipped.
type Funcs struct {
	Started  func(context.Context, Started) error
	Finished func(context.Context, Finished) error
}

func (f Funcs) OnStarted(ctx context.Context, e Started) error {
	if f.Started == nil {
		return nil
	}
	return f.Started(ctx, e)
}

func (f Funcs) OnFinished(ctx context.Context, e Finished) error {
	if f.Finished == nil {
		return nil
	}
	return f.Finished(ctx, e)
}

// ObserverError reports an observer that failed while handling an event.
type ObserverError struct {
	// Index is the position of the observer in the notification order.
	Index int
	Event Event
	Err   error
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer %d failed on %s event for call %s: %v", e.Index, eventName(e.Event), e.Event.Meta().CallID, e.Err)
}

func (e *ObserverError) Unwrap() error {
	return e.Err
}

func eventName(e Event) string {
	switch e.(type) {
	case Started:
		return "started"
	case Finished:
		return "finished"
	default:
		panic(fmt.Sprintf("unknown event type: %T", e))
	}
}
