package broadcast

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message wraps a payload with its topic and delivery metadata.
type Message[T any] struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Data      T         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a Message with a generated ID and timestamp.
func NewMessage[T any](topic string, data T) Message[T] {
	return Message[T]{
		ID:        uuid.New().String(),
		Topic:     topic,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// Broadcaster publishes messages to every subscriber of a topic.
// Implementations must be safe for concurrent use.
type Broadcaster[T any] interface {
	// Broadcast delivers the message to all current subscribers of its topic.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Subscribe registers a new subscriber for the topic. The subscription
	// is released when ctx is cancelled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string) (Subscriber[T], error)

	// Close shuts down the broadcaster and all its subscribers.
	Close() error
}

// Subscriber receives messages for a single topic.
type Subscriber[T any] interface {
	// Receive returns the channel of incoming messages. The channel is
	// closed when the subscriber or its broadcaster is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close releases the subscription. Safe to call multiple times.
	Close() error
}
