package pubsub

import (
	"context"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/pkg/uuidx"
)

const (
	defaultSlowSubscriberTimeout = 100 * time.Millisecond
	subscriptionBuffer           = 50
)

type LocalBroker struct {
	topics                *haxmap.Map[string, *localTopic]
	slowSubscriberTimeout time.Duration
}

// Local returns an in-memory broker.
func Local() *LocalBroker {
	return &LocalBroker{
		topics:                haxmap.New[string, *localTopic](),
		slowSubscriberTimeout: defaultSlowSubscriberTimeout,
	}
}

// WithSlowSubscriberTimeout sets how long Publish waits on a full subscriber
// before dropping it. It applies to topics created afterwards.
func (b *LocalBroker) WithSlowSubscriberTimeout(timeout time.Duration) *LocalBroker {
	b.slowSubscriberTimeout = timeout
	return b
}

func (b *LocalBroker) Topic(_ context.Context, name string) Topic {
	t, _ := b.topics.GetOrCompute(name, func() *localTopic {
		return &localTopic{
			name:                  name,
			subscriptions:         haxmap.New[string, *localSubscription](),
			slowSubscriberTimeout: b.slowSubscriberTimeout,
		}
	})
	return t
}

type localTopic struct {
	name                  string
	subscriptions         *haxmap.Map[string, *localSubscription]
	slowSubscriberTimeout time.Duration
}

// Publish hands event to every live subscriber. A subscriber whose buffer
// stays full for the slow subscriber timeout is unsubscribed.
func (t *localTopic) Publish(ctx context.Context, event events.Event) error {
	var dropped []*localSubscription
	t.subscriptions.ForEach(func(_ string, sub *localSubscription) bool {
		if sub == nil {
			return true
		}
		if err := ctx.Err(); err != nil {
			return false
		}
		if !sub.offer(ctx, event, t.slowSubscriberTimeout) {
			dropped = append(dropped, sub)
		}
		return true
	})
	for _, sub := range dropped {
		sub.Unsubscribe()
	}
	return ctx.Err()
}

func (t *localTopic) Subscribe(ctx context.Context, observer events.Observer) (Subscription, error) {
	if observer == nil {
		return nil, ErrObserverRequired
	}

	id := uuidx.NewString()
	sub := &localSubscription{
		id:      id,
		ctx:     ctx,
		channel: make(chan events.Event, subscriptionBuffer),
		onClose: func() { t.subscriptions.Del(id) },
	}
	t.subscriptions.Set(id, sub)
	go forward(ctx, sub.channel, observer, id)
	return sub, nil
}

type localSubscription struct {
	id      string
	ctx     context.Context
	channel chan events.Event
	onClose func()

	mu     sync.RWMutex
	closed bool
}

func (s *localSubscription) ID() string {
	return s.id
}

// offer reports false when the subscription should be dropped.
func (s *localSubscription) offer(ctx context.Context, event events.Event, timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}
	if s.ctx.Err() != nil {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.channel <- event:
		return true
	case <-ctx.Done():
		return true
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

func (s *localSubscription) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.onClose()
	close(s.channel)
}
