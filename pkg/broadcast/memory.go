package broadcast

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/livesync/pkg/logger"
)

// DefaultBufferSize is the per-subscriber channel buffer used unless
// overridden with WithBufferSize.
const DefaultBufferSize = 64

// MemoryBroadcaster is an in-process Broadcaster implementation suitable
// for single-instance deployments and tests. Delivery is non-blocking: a
// subscriber whose buffer is full misses the message.
type MemoryBroadcaster[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[uint64]*memorySubscriber[T]
	nextID uint64
	closed bool

	buffer int
	logger *slog.Logger
}

// MemoryOption configures a MemoryBroadcaster.
type MemoryOption[T any] func(*MemoryBroadcaster[T])

// WithBufferSize sets the per-subscriber channel buffer. Larger buffers
// tolerate slower consumers at the cost of memory.
func WithBufferSize[T any](size int) MemoryOption[T] {
	return func(b *MemoryBroadcaster[T]) {
		if size > 0 {
			b.buffer = size
		}
	}
}

// WithLogger configures structured logging. Logging defaults to a
// discarding handler.
func WithLogger[T any](logger *slog.Logger) MemoryOption[T] {
	return func(b *MemoryBroadcaster[T]) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewMemoryBroadcaster creates an in-memory broadcaster.
//
// Example:
//
//	bus := broadcast.NewMemoryBroadcaster[synced.Message](
//		broadcast.WithBufferSize[synced.Message](128),
//	)
//	defer bus.Close()
func NewMemoryBroadcaster[T any](opts ...MemoryOption[T]) *MemoryBroadcaster[T] {
	b := &MemoryBroadcaster[T]{
		topics: make(map[string]map[uint64]*memorySubscriber[T]),
		buffer: DefaultBufferSize,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Broadcast delivers msg to every subscriber of msg.Topic without blocking.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	for _, sub := range b.topics[msg.Topic] {
		select {
		case sub.ch <- msg:
		default:
			b.logger.WarnContext(ctx, "subscriber buffer full, message dropped",
				logger.Topic(msg.Topic),
				logger.MessageID(msg.ID))
		}
	}

	return nil
}

// Subscribe registers a subscriber for topic. The subscription is released
// when ctx is cancelled or Close is called on the subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context, topic string) (Subscriber[T], error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBroadcasterClosed
	}

	id := b.nextID
	b.nextID++

	sub := &memorySubscriber[T]{
		parent: b,
		topic:  topic,
		id:     id,
		ch:     make(chan Message[T], b.buffer),
		done:   make(chan struct{}),
	}

	if b.topics[topic] == nil {
		b.topics[topic] = make(map[uint64]*memorySubscriber[T])
	}
	b.topics[topic][id] = sub
	b.mu.Unlock()

	b.logger.DebugContext(ctx, "subscriber registered", logger.Topic(topic))

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Close shuts down the broadcaster and closes every subscriber channel.
// Idempotent.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for topic, subs := range b.topics {
		for id, sub := range subs {
			close(sub.ch)
			close(sub.done)
			sub.detached = true
			delete(subs, id)
		}
		delete(b.topics, topic)
	}

	b.logger.Info("memory broadcaster closed")
	return nil
}

// remove detaches a subscriber and closes its channel. Caller must not hold b.mu.
func (b *MemoryBroadcaster[T]) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	sub, ok := subs[id]
	if !ok || sub.detached {
		return
	}

	close(sub.ch)
	close(sub.done)
	sub.detached = true
	delete(subs, id)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
}

type memorySubscriber[T any] struct {
	parent *MemoryBroadcaster[T]
	topic  string
	id     uint64
	ch     chan Message[T]
	// done releases the context watcher when the subscriber detaches first.
	done chan struct{}
	once sync.Once

	// detached is guarded by the parent broadcaster's mutex.
	detached bool
}

// Receive returns the subscriber's message channel.
func (s *memorySubscriber[T]) Receive(_ context.Context) <-chan Message[T] {
	return s.ch
}

// Close releases the subscription and closes the receive channel.
// Safe to call multiple times.
func (s *memorySubscriber[T]) Close() error {
	s.once.Do(func() {
		s.parent.remove(s.topic, s.id)
	})
	return nil
}
