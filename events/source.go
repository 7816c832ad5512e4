package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bearjaws/modelfusion/pkg/slogx"
)

// Source fans a lifecycle event out to an ordered list of observers.
// A Source belongs to a single invocation.
type Source struct {
	observers    []Observer
	errorHandler func(error)
}

// NewSource creates a source. errorHandler may be nil, in which case observer
// failures are logged at debug level and dropped.
func NewSource(observers []Observer, errorHandler func(error)) *Source {
	return &Source{
		observers:    observers,
		errorHandler: errorHandler,
	}
}

// Len returns the number of observers.
func (s *Source) Len() int {
	return len(s.observers)
}

// Notify delivers the event to every observer in order. It never fails.
func (s *Source) Notify(ctx context.Context, event Event) {
	switch event.(type) {
	case Started, Finished:
	default:
		panic(fmt.Sprintf("unknown event type: %T", event))
	}
	for i, o := range s.observers {
		if err := deliver(ctx, o, event); err != nil {
			s.report(ctx, &ObserverError{Index: i, Event: event, Err: err})
		}
	}
}

func deliver(ctx context.Context, o Observer, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()

	switch e := event.(type) {
	case Started:
		return o.OnStarted(ctx, e)
	case Finished:
		return o.OnFinished(ctx, e)
	}
	return nil
}

func (s *Source) report(ctx context.Context, err error) {
	if s.errorHandler == nil {
		slog.DebugContext(ctx, "observer failed", slogx.LoggerName("events"), slogx.Error(err))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.DebugContext(ctx, "observer error handler panicked", slogx.LoggerName("events"), slog.Any("panic", r))
		}
	}()
	s.errorHandler(err)
}
