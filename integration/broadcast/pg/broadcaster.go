package pg

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/livesync/core/synced"
	"github.com/dmitrymomot/livesync/pkg/broadcast"
	"github.com/dmitrymomot/livesync/pkg/logger"
)

// maxNotifyPayload is the hard Postgres limit for NOTIFY payloads.
const maxNotifyPayload = 8000

// Broadcaster publishes and subscribes synced messages through Postgres
// LISTEN/NOTIFY, one notification channel per topic. It implements
// broadcast.Broadcaster[synced.Message].
type Broadcaster struct {
	pool   *pgxpool.Pool
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

// NewBroadcaster creates a Postgres-backed broadcaster. The pool's
// lifecycle belongs to the caller; Close only releases subscriptions
// created here.
func NewBroadcaster(pool *pgxpool.Pool, cfg Config, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		pool:   pool,
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

// Broadcast publishes the message as JSON via pg_notify on the topic's
// channel. Payloads over the Postgres limit yield ErrPayloadTooLarge.
func (b *Broadcaster) Broadcast(ctx context.Context, msg broadcast.Message[synced.Message]) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(ErrEncodeMessage, err)
	}
	if len(data) > maxNotifyPayload {
		return ErrPayloadTooLarge
	}

	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", b.channel(msg.Topic), string(data)); err != nil {
		return err
	}

	b.logger.DebugContext(ctx, "message published",
		logger.Topic(msg.Topic),
		logger.MessageID(msg.ID))
	return nil
}

// Subscribe pins one pooled connection with LISTEN on the topic's channel.
// The subscription is released when ctx is cancelled or the subscriber is
// closed.
func (b *Broadcaster) Subscribe(ctx context.Context, topic string) (broadcast.Subscriber[synced.Message], error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, broadcast.ErrBroadcasterClosed
	}
	b.mu.Unlock()

	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(ErrListenFailed, err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{b.channel(topic)}.Sanitize()); err != nil {
		conn.Release()
		return nil, errors.Join(ErrListenFailed, err)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		conn.Release()
		return nil, broadcast.ErrBroadcasterClosed
	}
	id := b.nextID
	b.nextID++
	sub := &subscriber{
		parent: b,
		id:     id,
		conn:   conn,
		ch:     make(chan broadcast.Message[synced.Message], b.buffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	b.subs[id] = sub
	b.mu.Unlock()

	go sub.pump(pumpCtx, b.logger)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Close releases every subscription created by this broadcaster. The pool
// itself is left open for the caller to close.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
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
	conn   *pgxpool.Conn
	ch     chan broadcast.Message[synced.Message]
	cancel context.CancelFunc
	// done releases the context watcher when the subscriber closes first.
	done chan struct{}
	once sync.Once
}

// pump waits for notifications on the pinned connection and decodes them
// into the subscriber channel until the subscription is cancelled.
func (s *subscriber) pump(ctx context.Context, log *slog.Logger) {
	defer close(s.ch)
	defer s.conn.Release()

	for {
		notification, err := s.conn.Conn().WaitForNotification(ctx)
		if err != nil {
			// Cancellation or a broken connection ends the subscription.
			if ctx.Err() == nil {
				log.Error("notification wait failed",
					logger.Error(err))
			}
			return
		}

		var msg broadcast.Message[synced.Message]
		if err := json.Unmarshal([]byte(notification.Payload), &msg); err != nil {
			log.Error("failed to decode broadcast message",
				logger.Channel(notification.Channel),
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

// Close terminates the subscription, releases the pinned connection, and
// detaches it from the broadcaster. Safe to call multiple times.
func (s *subscriber) Close() error {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
		s.parent.remove(s.id)
	})
	return nil
}
