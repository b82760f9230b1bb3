package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/livesync/core/synced"
	"github.com/dmitrymomot/livesync/pkg/broadcast"
	"github.com/dmitrymomot/livesync/pkg/logger"
)

// Broadcaster publishes and subscribes synced messages through Redis
// Pub/Sub, one Redis channel per topic. It implements
// broadcast.Broadcaster[synced.Message].
type Broadcaster struct {
	client *redis.Client
	prefix string
	buffer int
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithLogger configures structured logging. Logging defaults to a
// discarding handler.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broadcaster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBroadcaster creates a Redis-backed broadcaster. The client's lifecycle
// belongs to the caller; Close only releases subscriptions created here.
func NewBroadcaster(client *redis.Client, cfg Config, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		client: client,
		prefix: cfg.ChannelPrefix,
		buffer: cfg.BufferSize,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:   make(map[uint64]*subscriber),
	}
	if b.prefix == "" {
		b.prefix = "livesync"
	}
	if b.buffer <= 0 {
		b.buffer = broadcast.DefaultBufferSize
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Broadcaster) channel(topic string) string {
	return b.prefix + ":" + topic
}

// Broadcast publishes the message as JSON on the topic's Redis channel.
func (b *Broadcaster) Broadcast(ctx context.Context, msg broadcast.Message[synced.Message]) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(ErrEncodeMessage, err)
	}

	if err := b.client.Publish(ctx, b.channel(msg.Topic), data).Err(); err != nil {
		return err
	}

	b.logger.DebugContext(ctx, "message published",
		logger.Topic(msg.Topic),
		logger.MessageID(msg.ID))
	return nil
}

// Subscribe opens a Redis subscription for the topic. The subscription is
// released when ctx is cancelled or the subscriber is closed.
func (b *Broadcaster) Subscribe(ctx context.Context, topic string) (broadcast.Subscriber[synced.Message], error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, broadcast.ErrBroadcasterClosed
	}
	b.mu.Unlock()

	ps := b.client.Subscribe(ctx, b.channel(topic))

	// Confirm the subscription before handing it out so a failing Redis
	// surfaces here instead of as a silently empty channel.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = ps.Close()
		return nil, broadcast.ErrBroadcasterClosed
	}
	id := b.nextID
	b.nextID++
	sub := &subscriber{
		parent: b,
		id:     id,
		ps:     ps,
		ch:     make(chan broadcast.Message[synced.Message], b.buffer),
		done:   make(chan struct{}),
	}
	b.subs[id] = sub
	b.mu.Unlock()

	go sub.pump(b.logger)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Close releases every subscription created by this broadcaster. The Redis
// client itself is left open for the caller to close.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// remove forgets a closed subscriber so connection churn does not retain
// dead subscriptions until broadcaster shutdown.
func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, id)
}

type subscriber struct {
	parent *Broadcaster
	id     uint64
	ps     *redis.PubSub
	ch     chan broadcast.Message[synced.Message]
	// done releases the context watcher when the subscriber closes first.
	done chan struct{}
	once sync.Once
}

// pump decodes raw Redis messages into the subscriber channel until the
// underlying subscription closes.
func (s *subscriber) pump(log *slog.Logger) {
	defer close(s.ch)

	for raw := range s.ps.Channel() {
		var msg broadcast.Message[synced.Message]
		if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
			log.Error("failed to decode broadcast message",
				logger.Channel(raw.Channel),
				logger.Error(err))
			continue
		}

		select {
		case s.ch <- msg:
		default:
			log.Warn("subscriber buffer full, message dropped",
				logger.Topic(msg.Topic),
				logger.MessageID(msg.ID))
		}
	}
}

// Receive returns the channel of decoded messages.
func (s *subscriber) Receive(_ context.Context) <-chan broadcast.Message[synced.Message] {
	return s.ch
}

// Close terminates the Redis subscription and detaches it from the
// broadcaster. Safe to call multiple times.
func (s *subscriber) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
		close(s.done)
		s.parent.remove(s.id)
	})
	return err
}
