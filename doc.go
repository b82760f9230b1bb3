// Package livesync provides the building blocks for real-time UI servers in
// which every connected session keeps private state and stays in sync with
// its peers through topic-scoped broadcasts.
//
// The central idea is the synced handler pair: for each event name, the
// application registers a local handler (runs in the originating session,
// mutates its state, produces a broadcast payload) and a sync handler (runs
// in every subscribed session when that broadcast arrives, applies the
// update locally). Registering both sides together keeps the mutation and
// its propagation in one place.
//
// # Package Organization
//
//	github.com/dmitrymomot/livesync/core/synced  - handler-pair registry and dispatch
//	github.com/dmitrymomot/livesync/core/live    - per-session runtime pumping broadcasts through sync handlers
//	github.com/dmitrymomot/livesync/core/session - generic per-connection state container with pluggable stores
//	github.com/dmitrymomot/livesync/core/socket  - WebSocket edge binding browser connections to live sessions
//	github.com/dmitrymomot/livesync/core/config  - type-safe environment variable loading
//	github.com/dmitrymomot/livesync/pkg/broadcast - generic topic-scoped pub/sub with an in-memory backend
//
// # Integrations
//
//	github.com/dmitrymomot/livesync/integration/broadcast/redis - Redis Pub/Sub broadcast backend
//	github.com/dmitrymomot/livesync/integration/broadcast/pg    - Postgres LISTEN/NOTIFY broadcast backend
//
// # Quick Start
//
//	package main
//
//	import (
//		"context"
//		"net/http"
//
//		"github.com/dmitrymomot/livesync/core/live"
//		"github.com/dmitrymomot/livesync/core/socket"
//		"github.com/dmitrymomot/livesync/core/synced"
//		"github.com/dmitrymomot/livesync/pkg/broadcast"
//	)
//
//	type Board struct {
//		Notes []string `json:"notes"`
//	}
//
//	func main() {
//		bus := broadcast.NewMemoryBroadcaster[synced.Message]()
//		defer bus.Close()
//
//		reg := synced.New[Board]("board:lobby", live.NewBroadcaster(bus))
//		reg.Register("note-added",
//			func(ctx context.Context, payload any, b Board) (synced.LocalResult[Board], error) {
//				return synced.LocalResult[Board]{
//					Result:    synced.Result[Board]{Disposition: synced.NoReply, Data: b},
//					Broadcast: payload,
//				}, nil
//			},
//			func(ctx context.Context, payload any, b Board) (synced.Result[Board], error) {
//				b.Notes = append(b.Notes, payload.(string))
//				return synced.Result[Board]{Disposition: synced.NoReply, Data: b}, nil
//			},
//		)
//
//		http.Handle("/ws", socket.Handler(reg, bus, func() Board { return Board{} }))
//		http.ListenAndServe(":8080", nil)
//	}
//
// Swap the memory bus for the Redis or Postgres integration to resync
// sessions across multiple server instances without touching handlers.
//
// For complete examples and detailed usage instructions, refer to the individual
// package documentation using the go doc command.
package livesync
