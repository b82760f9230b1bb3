// Package live runs the receiving side of the synced handler-pair pattern
// for one connected session.
//
// A Client binds a session to a synced.Registry and a broadcast
// subscription. Events raised by the session's own user go through Raise,
// which dispatches the local handler and publishes the resulting broadcast;
// messages arriving on the subscription are pumped through the registry's
// sync handlers by Run, updating the session state in place.
//
// An internal mutex serializes Raise against sync application, so handlers
// for one session never run concurrently. Different sessions share nothing
// but the broadcast stream, which keeps cross-session concurrency safe by
// construction.
//
// # Usage
//
//	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
//	reg := synced.New[Board]("board:42", live.NewBroadcaster(bus))
//	reg.Register("note-added", addNoteLocal, addNoteSync)
//
//	sub, _ := bus.Subscribe(ctx, reg.Topic())
//	client := live.Attach(reg, sub, session.New(Board{}, time.Hour))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(client.Run(ctx))
//
//	disposition, err := client.Raise(ctx, "note-added", "hello")
package live
