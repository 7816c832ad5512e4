package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/pkg/slogx"
)

var ErrObserverRequired = errors.New("observer is required")

// Broker hands out topics by name. Asking twice for a name returns the same topic.
type Broker interface {
	Topic(ctx context.Context, name string) Topic
}

type Topic interface {
	Publish(ctx context.Context, event events.Event) error
	// Subscribe forwards the events published on the topic to observer until
	// ctx is done or the subscription is cancelled.
	Subscribe(ctx context.Context, observer events.Observer) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

// Publisher returns an observer that publishes every event to topic.
// Publish failures are reported to the event source like any observer failure.
func Publisher(topic Topic) events.Observer {
	return events.Funcs{
		Started: func(ctx context.Context, e events.Started) error {
			return topic.Publish(ctx, e)
		},
		Finished: func(ctx context.Context, e events.Finished) error {
			return topic.Publish(ctx, e)
		},
	}
}

// forward delivers events from ch to observer until ch is closed or ctx is done.
func forward(ctx context.Context, ch <-chan events.Event, observer events.Observer, subscription string) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := deliver(ctx, observer, event); err != nil {
				slog.WarnContext(ctx, "subscriber failed to handle event",
					slogx.LoggerName("pubsub"),
					slog.String("subscription", subscription),
					slogx.Error(err),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}

func deliver(ctx context.Context, observer events.Observer, event events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()

	switch e := event.(type) {
	case events.Started:
		return observer.OnStarted(ctx, e)
	case events.Finished:
		return observer.OnFinished(ctx, e)
	default:
		return fmt.Errorf("unknown event type: %T", event)
	}
}
