package synced

import "context"

// Disposition is the tag a handler hands back to the surrounding runtime.
// It is opaque to dispatch and returned verbatim.
type Disposition string

const (
	// NoReply signals the runtime to continue without a direct reply.
	NoReply Disposition = "noreply"

	// Stop signals the runtime to stop processing for this session.
	Stop Disposition = "stop"
)

// Message is the fixed-shape record a broadcast transport delivers to
// subscribed sessions.
type Message struct {
	Topic   string `json:"topic"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Result is the fixed-shape pair both generated handlers return to the
// runtime: a disposition tag and the updated session value.
type Result[Data any] struct {
	Disposition Disposition
	Data        Data
}

// LocalResult is the fixed-shape triple a local handler must produce.
// Broadcast seeds the outgoing message payload and is dropped from the
// value HandleLocal returns.
type LocalResult[Data any] struct {
	Result[Data]

	Broadcast any
}

// LocalFunc runs in the originating session. The payload is the raised
// event's argument; data is the session's current value. The returned
// Broadcast field is published on the registry topic after the function
// returns.
type LocalFunc[Data any] func(ctx context.Context, payload any, data Data) (LocalResult[Data], error)

// SyncFunc runs in every subscribed session when a matching broadcast
// arrives. The payload is the broadcast message payload; data is that
// session's current value. The result is returned to the runtime verbatim.
type SyncFunc[Data any] func(ctx context.Context, payload any, data Data) (Result[Data], error)

// Broadcaster is the capability a registry publishes through. It is
// configured once per registry and invoked by every local handler.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic, event string, payload any) error
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(ctx context.Context, topic, event string, payload any) error

// Broadcast calls the wrapped function.
func (f BroadcasterFunc) Broadcast(ctx context.Context, topic, event string, payload any) error {
	return f(ctx, topic, event, payload)
}
