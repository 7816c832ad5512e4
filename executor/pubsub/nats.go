package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/pkg/slogx"
	"github.com/bearjaws/modelfusion/pkg/uuidx"
	"github.com/nats-io/nats.go"
)

type NATSBroker struct {
	client *nats.Conn
	topics *haxmap.Map[string, *natsTopic]
}

// NATS returns a broker publishing on the subject named after each topic.
func NATS(client *nats.Conn) *NATSBroker {
	return &NATSBroker{
		client: client,
		topics: haxmap.New[string, *natsTopic](),
	}
}

func (b *NATSBroker) Topic(_ context.Context, name string) Topic {
	t, _ := b.topics.GetOrCompute(name, func() *natsTopic {
		return &natsTopic{subject: name, client: b.client}
	})
	return t
}

type natsTopic struct {
	client  *nats.Conn
	subject string
}

func (t *natsTopic) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := events.ToJSON(event)
	if err != nil {
		return err
	}
	return t.client.Publish(t.subject, data)
}

func (t *natsTopic) Subscribe(ctx context.Context, observer events.Observer) (Subscription, error) {
	if observer == nil {
		return nil, ErrObserverRequired
	}

	id := uuidx.NewString()
	ch := make(chan events.Event, subscriptionBuffer)
	var closeOnce sync.Once
	closeCh := func() { closeOnce.Do(func() { close(ch) }) }

	var mu sync.RWMutex
	closed := false
	nsub, err := t.client.Subscribe(t.subject, func(msg *nats.Msg) {
		event, err := events.FromJSON(msg.Data)
		if err != nil {
			slog.Error("failed to decode event", slogx.LoggerName("pubsub"), slogx.Error(err))
			return
		}

		mu.RLock()
		defer mu.RUnlock()
		if closed {
			return
		}
		select {
		case ch <- event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, err
	}
	nsub.SetClosedHandler(func(string) {
		mu.Lock()
		defer mu.Unlock()
		closed = true
		closeCh()
	})

	sub := &natsSubscription{id: id, sub: nsub}
	context.AfterFunc(ctx, sub.Unsubscribe)
	go forward(ctx, ch, observer, id)
	return sub, nil
}

type natsSubscription struct {
	id  string
	sub *nats.Subscription
}

func (n *natsSubscription) ID() string {
	return n.id
}

func (n *natsSubscription) Unsubscribe() {
	if !n.sub.IsValid() {
		return
	}
	if err := n.sub.Unsubscribe(); err != nil {
		slog.Error("failed to unsubscribe", slogx.LoggerName("pubsub"), slogx.Error(err), slog.String("subscription", n.id))
	}
}
