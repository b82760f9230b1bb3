package socket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/livesync/core/live"
	"github.com/dmitrymomot/livesync/core/session"
	"github.com/dmitrymomot/livesync/core/synced"
	"github.com/dmitrymomot/livesync/pkg/broadcast"
	"github.com/dmitrymomot/livesync/pkg/logger"
)

// Frame is the inbound wire format: one raised event per frame.
type Frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// SyncEvent names the outbound frame carrying refreshed session state.
const SyncEvent = "sync"

type syncFrame[Data any] struct {
	Event string `json:"event"`
	Data  Data   `json:"data"`
}

type config[Data any] struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	onConnect      func(context.Context, *websocket.Conn) error
	onDisconnect   func(context.Context, *websocket.Conn)
	onError        func(context.Context, error)
	logger         *slog.Logger

	sessionTTL time.Duration
	store      session.Store[Data]
	outBuffer  int
}

// Option configures the socket handler.
type Option[Data any] func(*config[Data])

// WithReadBuffer sets the upgrader's read buffer size.
func WithReadBuffer[Data any](size int) Option[Data] {
	return func(c *config[Data]) {
		c.upgrader.ReadBufferSize = size
	}
}

// WithWriteBuffer sets the upgrader's write buffer size.
func WithWriteBuffer[Data any](size int) Option[Data] {
	return func(c *config[Data]) {
		c.upgrader.WriteBufferSize = size
	}
}

// WithHandshakeTimeout limits how long the websocket handshake may take.
func WithHandshakeTimeout[Data any](timeout time.Duration) Option[Data] {
	return func(c *config[Data]) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

// WithOriginCheck sets a custom origin check on the upgrader.
func WithOriginCheck[Data any](fn func(r *http.Request) bool) Option[Data] {
	return func(c *config[Data]) {
		c.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin disables origin checking entirely.
func WithAllowAnyOrigin[Data any]() Option[Data] {
	return func(c *config[Data]) {
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithResponseHeader sets extra headers to include in the handshake
// response, such as cookies or cache directives.
func WithResponseHeader[Data any](header http.Header) Option[Data] {
	return func(c *config[Data]) {
		c.responseHeader = header
	}
}

// WithSubprotocols advertises the given subprotocols during the handshake.
func WithSubprotocols[Data any](protocols ...string) Option[Data] {
	return func(c *config[Data]) {
		c.upgrader.Subprotocols = protocols
	}
}

// WithOnConnect runs after a successful upgrade, before any frame is
// processed. A returned error closes the connection.
func WithOnConnect[Data any](fn func(context.Context, *websocket.Conn) error) Option[Data] {
	return func(c *config[Data]) {
		c.onConnect = fn
	}
}

// WithOnDisconnect runs after the connection closes.
func WithOnDisconnect[Data any](fn func(context.Context, *websocket.Conn)) Option[Data] {
	return func(c *config[Data]) {
		c.onDisconnect = fn
	}
}

// WithErrorHandler receives upgrade, read, and dispatch errors.
func WithErrorHandler[Data any](fn func(context.Context, error)) Option[Data] {
	return func(c *config[Data]) {
		c.onError = fn
	}
}

// WithLogger configures structured logging. Logging defaults to a
// discarding handler.
func WithLogger[Data any](logger *slog.Logger) Option[Data] {
	return func(c *config[Data]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSessionTTL sets the TTL for sessions created per connection.
// Defaults to 24 hours.
func WithSessionTTL[Data any](ttl time.Duration) Option[Data] {
	return func(c *config[Data]) {
		if ttl > 0 {
			c.sessionTTL = ttl
		}
	}
}

// WithSessionStore persists each connection's session on connect and on
// disconnect, letting other parts of the application observe final state.
func WithSessionStore[Data any](store session.Store[Data]) Option[Data] {
	return func(c *config[Data]) {
		c.store = store
	}
}

// WithOutboundBuffer sets the per-connection buffer of pending sync frames.
// A full buffer drops frames for that connection; the next committed change
// resynchronizes it. Defaults to 32.
func WithOutboundBuffer[Data any](size int) Option[Data] {
	return func(c *config[Data]) {
		if size > 0 {
			c.outBuffer = size
		}
	}
}

// Handler returns an http.Handler that upgrades connections and binds each
// one to a live session on the registry's topic. newData seeds every
// connection's initial session state.
func Handler[Data any](reg *synced.Registry[Data], bus broadcast.Broadcaster[synced.Message], newData func() Data, opts ...Option[Data]) http.Handler {
	cfg := &config[Data]{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessionTTL: 24 * time.Hour,
		outBuffer:  32,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
		if err != nil {
			cfg.fail(r.Context(), err)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		defer func() {
			_ = conn.Close()
			if cfg.onDisconnect != nil {
				cfg.onDisconnect(r.Context(), conn)
			}
		}()

		if cfg.onConnect != nil {
			if err := cfg.onConnect(ctx, conn); err != nil {
				cfg.fail(ctx, err)
				return
			}
		}

		if err := cfg.serve(ctx, conn, reg, bus, newData()); err != nil {
			cfg.fail(ctx, err)
		}
	})
}

func (cfg *config[Data]) fail(ctx context.Context, err error) {
	if cfg.onError != nil {
		cfg.onError(ctx, err)
	}
	cfg.logger.ErrorContext(ctx, "socket error", logger.Error(err))
}

// serve owns one upgraded connection: it subscribes to the topic, attaches
// a live client, and pumps frames until the peer goes away.
func (cfg *config[Data]) serve(ctx context.Context, conn *websocket.Conn, reg *synced.Registry[Data], bus broadcast.Broadcaster[synced.Message], data Data) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := bus.Subscribe(ctx, reg.Topic())
	if err != nil {
		return err
	}
	defer sub.Close()

	outgoing := make(chan []byte, cfg.outBuffer)

	client := live.Attach(reg, sub, session.New(data, cfg.sessionTTL),
		live.WithLogger[Data](cfg.logger),
		live.WithOnChange[Data](func(d Data) {
			frame, err := json.Marshal(syncFrame[Data]{Event: SyncEvent, Data: d})
			if err != nil {
				cfg.logger.Error("failed to encode sync frame", logger.Error(err))
				return
			}
			select {
			case outgoing <- frame:
			default:
				cfg.logger.Warn("outbound buffer full, sync frame dropped")
			}
		}),
	)

	if cfg.store != nil {
		sess := client.Session()
		if err := cfg.store.Save(ctx, &sess); err != nil {
			cfg.logger.ErrorContext(ctx, "failed to save session", logger.Error(err))
		}
		defer func() {
			sess := client.Session()
			// The request context is gone by now; persist with a fresh one.
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := cfg.store.Save(saveCtx, &sess); err != nil {
				cfg.logger.Error("failed to save session", logger.Error(err))
			}
		}()
	}

	// Single writer goroutine; gorilla connections do not allow concurrent writes.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-outgoing:
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					cfg.logger.Debug("write failed, closing connection", logger.Error(err))
					return
				}
			}
		}
	}()

	go func() {
		_ = client.Run(ctx)()
	}()

	defer func() {
		cancel()
		<-writerDone
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				return err
			}
			return nil
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			cfg.fail(ctx, err)
			continue
		}

		if _, err := client.Raise(ctx, frame.Event, frame.Payload); err != nil {
			cfg.fail(ctx, err)
		}
	}
}
