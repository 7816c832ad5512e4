// Package pubsub distributes lifecycle events over named topics so that
// observers can live outside the process, or the goroutine, that runs the
// model calls.
//
// A Publisher is an events.Observer that publishes every event it receives to
// a topic. A subscription forwards the events of a topic to another observer:
//
//	topic := pubsub.NATS(conn).Topic(ctx, "modelfusion.calls")
//	run := &api.Run{RunID: "run-1", Observers: []events.Observer{pubsub.Publisher(topic)}}
//
//	// elsewhere
//	sub, err := topic.Subscribe(ctx, events.LoggingObserver(logger))
//	defer sub.Unsubscribe()
//
// Two brokers are provided. Local keeps everything in memory and drops
// subscribers that cannot keep up. NATS encodes events as JSON with
// events.ToJSON and publishes them on a subject per topic.
package pubsub
