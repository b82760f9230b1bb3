// Package synced collapses the "mutate local session state, then broadcast
// to and resynchronize every interested session" pattern into a single
// registration per event.
//
// Each registered event name binds a pair of handlers that always travel
// together:
//
//   - a local handler that runs in the originating session, produces an
//     updated session value plus a broadcast payload, and publishes that
//     payload on the registry's topic;
//   - a sync handler that runs in every session subscribed to the topic
//     (the originator included) when the broadcast arrives, and applies a
//     local state update.
//
// The registry performs dispatch only. It owns no transport, no
// subscriptions, and no session storage; the broadcast target is injected
// through the Broadcaster interface and session values are passed in and
// returned on every call.
//
// # Usage
//
//	type Board struct {
//		Notes []string
//	}
//
//	reg := synced.New[Board]("board:42", broadcaster)
//	reg.Register("note-added",
//		func(ctx context.Context, payload any, b Board) (synced.LocalResult[Board], error) {
//			note := payload.(string)
//			b.Notes = append(b.Notes, note)
//			return synced.LocalResult[Board]{
//				Result:    synced.Result[Board]{Disposition: synced.NoReply, Data: b},
//				Broadcast: note,
//			}, nil
//		},
//		func(ctx context.Context, payload any, b Board) (synced.Result[Board], error) {
//			b.Notes = append(b.Notes, payload.(string))
//			return synced.Result[Board]{Disposition: synced.NoReply, Data: b}, nil
//		},
//	)
//
//	// In the originating session:
//	res, err := reg.HandleLocal(ctx, "note-added", "hello", board)
//
//	// In every subscribed session, when the broadcast message arrives:
//	res, err := reg.HandleSync(ctx, msg, board)
//
// # Guarantees
//
// HandleLocal issues exactly one broadcast per successful invocation,
// strictly after the local handler returns and before HandleLocal itself
// returns. A local handler error suppresses the broadcast entirely.
// HandleSync never executes a sync handler for a message whose topic or
// event does not match; such messages yield ErrNotMatched.
//
// Ordering between HandleLocal returning and delivery of the broadcast to
// remote sessions is a property of the injected Broadcaster, not of this
// package.
package synced
