package live

import (
	"context"

	"github.com/dmitrymomot/livesync/core/synced"
	"github.com/dmitrymomot/livesync/pkg/broadcast"
)

// NewBroadcaster adapts a generic broadcast bus to the capability a
// synced.Registry publishes through. Every registry sharing the bus
// reaches the same set of subscribers.
//
// Example:
//
//	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
//	reg := synced.New[Board]("board:42", live.NewBroadcaster(bus))
func NewBroadcaster(bus broadcast.Broadcaster[synced.Message]) synced.Broadcaster {
	return synced.BroadcasterFunc(func(ctx context.Context, topic, event string, payload any) error {
		return bus.Broadcast(ctx, broadcast.NewMessage(topic, synced.Message{
			Topic:   topic,
			Event:   event,
			Payload: payload,
		}))
	})
}
