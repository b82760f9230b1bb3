// Package socket exposes synced sessions over WebSocket.
//
// Handler upgrades each incoming connection, creates a private session for
// it, subscribes it to the registry's topic, and bridges frames in both
// directions: inbound frames raise local events through the registry,
// committed state changes flow back to the browser as sync frames.
//
// # Wire format
//
// The browser sends JSON frames:
//
//	{"event": "note-added", "payload": "hello"}
//
// and receives the full session state after every committed change:
//
//	{"event": "sync", "data": {...}}
//
// # Usage
//
//	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
//	reg := synced.New[Board]("board:42", live.NewBroadcaster(bus))
//	reg.Register("note-added", addNoteLocal, addNoteSync)
//
//	mux.Handle("/ws", socket.Handler(reg, bus,
//		func() Board { return Board{} },
//		socket.WithAllowAnyOrigin[Board](),
//	))
package socket
