// Package broadcast provides a generic topic-scoped pub/sub messaging
// system with pluggable backends.
//
// The package defines two main interfaces:
//   - Broadcaster: publishes messages to every subscriber of a topic
//   - Subscriber: receives messages for one topic
//
// The design allows for pluggable backends (Redis, Postgres, etc.) while
// providing a consistent API. This package includes an in-memory
// implementation; network backends live under integration/broadcast.
//
// # Usage
//
//	broadcaster := broadcast.NewMemoryBroadcaster[string]()
//	defer broadcaster.Close()
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	subscriber, err := broadcaster.Subscribe(ctx, "room:42")
//	if err != nil {
//		return err
//	}
//	defer subscriber.Close()
//
//	go func() {
//		for msg := range subscriber.Receive(ctx) {
//			fmt.Printf("received: %s\n", msg.Data)
//		}
//	}()
//
//	broadcaster.Broadcast(ctx, broadcast.NewMessage("room:42", "hello"))
//
// # Slow consumers
//
// Message delivery is non-blocking: if a subscriber's buffer is full, the
// message is dropped for that subscriber rather than blocking the
// broadcast. This prevents one slow consumer from affecting other
// subscribers or the publisher. Buffer sizes are configurable per
// broadcaster via WithBufferSize.
//
// # Context integration
//
// Subscriptions are cleaned up automatically when their context is
// cancelled; explicit Close is also safe to call at any time, repeatedly.
//
// # Ordering
//
// Each subscriber observes the messages it does receive in publish order.
// No ordering is defined between a publish returning and delivery to any
// subscriber; callers that need delivery guarantees must layer them on top.
package broadcast
