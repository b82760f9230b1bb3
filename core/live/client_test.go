package live_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/core/live"
	"github.com/dmitrymomot/livesync/core/session"
	"github.com/dmitrymomot/livesync/core/synced"
	"github.com/dmitrymomot/livesync/pkg/broadcast"
)

type board struct {
	Notes []string
}

func noteRegistry(t *testing.T, bus *broadcast.MemoryBroadcaster[synced.Message], topic string) *synced.Registry[board] {
	t.Helper()

	reg := synced.New[board](topic, live.NewBroadcaster(bus))
	reg.Register("note-added",
		func(_ context.Context, payload any, b board) (synced.LocalResult[board], error) {
			return synced.LocalResult[board]{
				Result:    synced.Result[board]{Disposition: synced.NoReply, Data: b},
				Broadcast: payload,
			}, nil
		},
		func(_ context.Context, payload any, b board) (synced.Result[board], error) {
			b.Notes = append(b.Notes, payload.(string))
			return synced.Result[board]{Disposition: synced.NoReply, Data: b}, nil
		},
	)
	return reg
}

func startClient(t *testing.T, ctx context.Context, reg *synced.Registry[board], bus *broadcast.MemoryBroadcaster[synced.Message], opts ...live.Option[board]) *live.Client[board] {
	t.Helper()

	sub, err := bus.Subscribe(ctx, reg.Topic())
	require.NoError(t, err)

	client := live.Attach(reg, sub, session.New(board{}, time.Hour), opts...)
	go func() {
		_ = client.Run(ctx)()
	}()
	return client
}

func TestClient_RaiseResyncsAllSessionsIncludingOriginator(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
	defer bus.Close()

	reg := noteRegistry(t, bus, "board:1")

	origin := startClient(t, ctx, reg, bus)
	peer := startClient(t, ctx, reg, bus)

	disposition, err := origin.Raise(ctx, "note-added", "hello")
	require.NoError(t, err)
	assert.Equal(t, synced.NoReply, disposition)

	for name, client := range map[string]*live.Client[board]{"origin": origin, "peer": peer} {
		require.Eventually(t, func() bool {
			data := client.Data()
			return len(data.Notes) == 1 && data.Notes[0] == "hello"
		}, time.Second, 10*time.Millisecond, "%s session should apply the sync update", name)
	}

	stats := origin.Stats()
	assert.EqualValues(t, 1, stats.Raised)
	assert.EqualValues(t, 1, stats.Applied, "Originator receives its own broadcast")
}

func TestClient_RaiseUnknownEvent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
	defer bus.Close()

	reg := noteRegistry(t, bus, "board:1")
	client := startClient(t, ctx, reg, bus)

	_, err := client.Raise(ctx, "no-such-event", nil)
	require.ErrorIs(t, err, synced.ErrUnknownEvent)

	stats := client.Stats()
	assert.EqualValues(t, 0, stats.Raised)
	assert.EqualValues(t, 1, stats.Failed)
}

func TestClient_ForeignTopicMessagesSkipped(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
	defer bus.Close()

	reg := noteRegistry(t, bus, "board:1")

	// Subscribe the client to a topic the registry does not own; delivered
	// messages must be skipped without running any handler.
	sub, err := bus.Subscribe(ctx, "board:other")
	require.NoError(t, err)
	client := live.Attach(reg, sub, session.New(board{}, time.Hour))
	go func() { _ = client.Run(ctx)() }()

	require.NoError(t, bus.Broadcast(ctx, broadcast.NewMessage("board:other", synced.Message{
		Topic: "board:other", Event: "note-added", Payload: "ghost",
	})))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, client.Data().Notes, "Foreign-topic message must not reach the sync handler")
	assert.EqualValues(t, 0, client.Stats().Applied)
}

func TestClient_StopDispositionHaltsPump(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
	defer bus.Close()

	reg := synced.New[board]("board:1", live.NewBroadcaster(bus))
	reg.Register("shutdown",
		func(_ context.Context, _ any, b board) (synced.LocalResult[board], error) {
			return synced.LocalResult[board]{
				Result: synced.Result[board]{Disposition: synced.NoReply, Data: b},
			}, nil
		},
		func(_ context.Context, _ any, b board) (synced.Result[board], error) {
			return synced.Result[board]{Disposition: synced.Stop, Data: b}, nil
		},
	)

	client := startClient(t, ctx, reg, bus)

	_, err := client.Raise(ctx, "shutdown", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return client.Stats().Stopped
	}, time.Second, 10*time.Millisecond, "Stop disposition should halt the pump")

	_, err = client.Raise(ctx, "shutdown", nil)
	require.ErrorIs(t, err, live.ErrClientStopped)
}

func TestClient_OnChangeCallback(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
	defer bus.Close()

	reg := noteRegistry(t, bus, "board:1")

	changes := make(chan board, 8)
	client := startClient(t, ctx, reg, bus, live.WithOnChange[board](func(b board) {
		changes <- b
	}))

	_, err := client.Raise(ctx, "note-added", "first")
	require.NoError(t, err)

	// One commit from Raise, one from the echoed sync message.
	var last board
	for i := 0; i < 2; i++ {
		select {
		case last = <-changes:
		case <-time.After(time.Second):
			t.Fatal("onChange not invoked")
		}
	}
	assert.Equal(t, []string{"first"}, last.Notes)
}

func TestClient_SyncHandlerErrorKeepsPumpAlive(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewMemoryBroadcaster[synced.Message]()
	defer bus.Close()

	reg := synced.New[board]("board:1", live.NewBroadcaster(bus))
	reg.Register("flaky",
		func(_ context.Context, payload any, b board) (synced.LocalResult[board], error) {
			return synced.LocalResult[board]{
				Result:    synced.Result[board]{Disposition: synced.NoReply, Data: b},
				Broadcast: payload,
			}, nil
		},
		func(_ context.Context, payload any, b board) (synced.Result[board], error) {
			if payload == "bad" {
				return synced.Result[board]{}, assert.AnError
			}
			b.Notes = append(b.Notes, payload.(string))
			return synced.Result[board]{Disposition: synced.NoReply, Data: b}, nil
		},
	)

	client := startClient(t, ctx, reg, bus)

	_, err := client.Raise(ctx, "flaky", "bad")
	require.NoError(t, err)
	_, err = client.Raise(ctx, "flaky", "good")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		data := client.Data()
		return len(data.Notes) == 1 && data.Notes[0] == "good"
	}, time.Second, 10*time.Millisecond, "Pump should survive a failed sync handler")

	assert.EqualValues(t, 1, client.Stats().Failed)
}
