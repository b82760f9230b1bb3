package synced

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/dmitrymomot/livesync/pkg/logger"
)

// Registry holds the handler pairs for one topic and dispatches local and
// sync invocations to them. It is safe for concurrent use across sessions.
type Registry[Data any] struct {
	topic       string
	broadcaster Broadcaster
	logger      *slog.Logger

	mu    sync.RWMutex
	pairs map[string]pair[Data]
}

type pair[Data any] struct {
	localFn LocalFunc[Data]
	syncFn  SyncFunc[Data]
}

// Option configures a Registry.
type Option[Data any] func(*Registry[Data])

// WithLogger configures structured logging for dispatch. Logging defaults
// to a discarding handler.
func WithLogger[Data any](logger *slog.Logger) Option[Data] {
	return func(r *Registry[Data]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a registry bound to a topic and a broadcast target. Both are
// immutable for the registry's lifetime.
//
// Example:
//
//	reg := synced.New[Board]("board:42", broadcaster)
//	reg.Register("note-added", addNoteLocal, addNoteSync)
func New[Data any](topic string, broadcaster Broadcaster, opts ...Option[Data]) *Registry[Data] {
	r := &Registry[Data]{
		topic:       topic,
		broadcaster: broadcaster,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		pairs:       make(map[string]pair[Data]),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register binds a local/sync handler pair to an event name. Registering
// the same event name again replaces the previous pair. Each registration
// is independent; a registry may carry arbitrarily many.
func (r *Registry[Data]) Register(event string, localFn LocalFunc[Data], syncFn SyncFunc[Data]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pairs[event] = pair[Data]{localFn: localFn, syncFn: syncFn}
}

// Topic returns the topic this registry broadcasts on.
func (r *Registry[Data]) Topic() string {
	return r.topic
}

// Events returns the registered event names in sorted order.
func (r *Registry[Data]) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]string, 0, len(r.pairs))
	for name := range r.pairs {
		events = append(events, name)
	}
	sort.Strings(events)
	return events
}

// HandleLocal runs the local handler registered under event in the
// originating session. On success it publishes the handler's broadcast
// payload on the registry topic, exactly once, before returning. The
// broadcast payload is dropped from the returned result.
//
// A local handler error suppresses the broadcast entirely. A broadcaster
// error is returned wrapped in ErrBroadcastFailed with the local result
// still populated, so the caller can keep the mutated session value.
func (r *Registry[Data]) HandleLocal(ctx context.Context, event string, payload any, data Data) (Result[Data], error) {
	r.mu.RLock()
	p, ok := r.pairs[event]
	r.mu.RUnlock()

	if !ok {
		return Result[Data]{}, ErrUnknownEvent
	}

	local, err := p.localFn(ctx, payload, data)
	if err != nil {
		return Result[Data]{}, err
	}

	if err := r.broadcaster.Broadcast(ctx, r.topic, event, local.Broadcast); err != nil {
		r.logger.ErrorContext(ctx, "broadcast failed",
			logger.Topic(r.topic),
			logger.Event(event),
			logger.Error(err))
		return local.Result, errors.Join(ErrBroadcastFailed, err)
	}

	r.logger.DebugContext(ctx, "local handler completed",
		logger.Topic(r.topic),
		logger.Event(event),
		logger.Disposition(string(local.Disposition)))

	return local.Result, nil
}

// HandleSync runs the sync handler for a broadcast message in the receiving
// session. A message whose topic or event does not match this registry
// yields ErrNotMatched and never executes a handler. The sync handler's
// result is returned verbatim.
func (r *Registry[Data]) HandleSync(ctx context.Context, msg Message, data Data) (Result[Data], error) {
	if msg.Topic != r.topic {
		return Result[Data]{}, ErrNotMatched
	}

	r.mu.RLock()
	p, ok := r.pairs[msg.Event]
	r.mu.RUnlock()

	if !ok {
		return Result[Data]{}, ErrNotMatched
	}

	res, err := p.syncFn(ctx, msg.Payload, data)
	if err != nil {
		return Result[Data]{}, err
	}

	r.logger.DebugContext(ctx, "sync handler completed",
		logger.Topic(r.topic),
		logger.Event(msg.Event),
		logger.Disposition(string(res.Disposition)))

	return res, nil
}
