package live

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/livesync/core/session"
	"github.com/dmitrymomot/livesync/core/synced"
	"github.com/dmitrymomot/livesync/pkg/broadcast"
	"github.com/dmitrymomot/livesync/pkg/logger"
)

// Client is the per-session runtime. It owns the session state, raises
// local events through the registry, and applies incoming sync messages.
// A Client is safe for concurrent use; handler execution is serialized.
type Client[Data any] struct {
	reg      *synced.Registry[Data]
	sub      broadcast.Subscriber[synced.Message]
	logger   *slog.Logger
	onChange func(Data)

	mu   sync.Mutex
	sess session.Session[Data]

	stopped atomic.Bool

	raised  atomic.Int64
	applied atomic.Int64
	failed  atomic.Int64
}

// Stats provides observability counters for monitoring and debugging.
type Stats struct {
	Raised  int64
	Applied int64
	Failed  int64
	Stopped bool
}

// Option configures a Client.
type Option[Data any] func(*Client[Data])

// WithLogger configures structured logging for the client. Logging
// defaults to a discarding handler.
func WithLogger[Data any](logger *slog.Logger) Option[Data] {
	return func(c *Client[Data]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnChange registers a callback invoked with the new session data after
// every committed update, local or sync. The callback runs on the
// committing goroutine while the client lock is held; keep it cheap and
// hand off to a channel for slow work.
func WithOnChange[Data any](fn func(Data)) Option[Data] {
	return func(c *Client[Data]) {
		c.onChange = fn
	}
}

// Attach binds a session to a registry and a broadcast subscription.
// The caller remains responsible for having subscribed to the registry's
// topic; a subscription on a different topic will simply never match.
func Attach[Data any](reg *synced.Registry[Data], sub broadcast.Subscriber[synced.Message], sess session.Session[Data], opts ...Option[Data]) *Client[Data] {
	c := &Client[Data]{
		reg:    reg,
		sub:    sub,
		sess:   sess,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Raise dispatches a local event for this session. The registered local
// handler runs with the current session data, its broadcast payload is
// published on the registry topic, and the updated data is committed
// before Raise returns.
func (c *Client[Data]) Raise(ctx context.Context, event string, payload any) (synced.Disposition, error) {
	if c.stopped.Load() {
		return "", ErrClientStopped
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.reg.HandleLocal(ctx, event, payload, c.sess.Data)
	if err != nil && !errors.Is(err, synced.ErrBroadcastFailed) {
		c.failed.Add(1)
		return "", err
	}

	c.commitLocked(res)
	c.raised.Add(1)

	c.logger.DebugContext(ctx, "local event raised",
		logger.SessionID(c.sess.ID.String()),
		logger.Event(event),
		logger.Disposition(string(res.Disposition)))

	return res.Disposition, err
}

// Run returns an errgroup-compatible pump that applies incoming broadcast
// messages to this session until the context is cancelled, the
// subscription closes, or a handler returns the Stop disposition.
func (c *Client[Data]) Run(ctx context.Context) func() error {
	return func() error {
		defer c.stopped.Store(true)

		messages := c.sub.Receive(ctx)
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-messages:
				if !ok {
					c.logger.Debug("subscription closed, pump exiting",
						logger.SessionID(c.sess.ID.String()))
					return nil
				}
				if stop := c.apply(ctx, msg.Data); stop {
					return nil
				}
			}
		}
	}
}

// apply runs one sync message through the registry and commits the result.
// Reports whether the pump should stop.
func (c *Client[Data]) apply(ctx context.Context, msg synced.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.reg.HandleSync(ctx, msg, c.sess.Data)
	if err != nil {
		if errors.Is(err, synced.ErrNotMatched) {
			c.logger.DebugContext(ctx, "sync message not matched, skipping",
				logger.Topic(msg.Topic),
				logger.Event(msg.Event))
			return false
		}

		c.failed.Add(1)
		c.logger.ErrorContext(ctx, "sync handler failed",
			logger.SessionID(c.sess.ID.String()),
			logger.Event(msg.Event),
			logger.Error(err))
		return false
	}

	c.commitLocked(res)
	c.applied.Add(1)

	return res.Disposition == synced.Stop
}

// commitLocked stores the handler result. Caller must hold c.mu.
func (c *Client[Data]) commitLocked(res synced.Result[Data]) {
	c.sess.SetData(res.Data)

	if res.Disposition == synced.Stop {
		c.stopped.Store(true)
	}

	if c.onChange != nil {
		c.onChange(res.Data)
	}
}

// Data returns a snapshot of the session data.
func (c *Client[Data]) Data() Data {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.Data
}

// Session returns a copy of the underlying session.
func (c *Client[Data]) Session() session.Session[Data] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess
}

// Stats returns current client counters.
func (c *Client[Data]) Stats() Stats {
	return Stats{
		Raised:  c.raised.Load(),
		Applied: c.applied.Load(),
		Failed:  c.failed.Load(),
		Stopped: c.stopped.Load(),
	}
}
