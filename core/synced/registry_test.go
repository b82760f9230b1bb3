package synced_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/core/synced"
)

// recordingBroadcaster captures every broadcast call for assertions.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
	err   error
}

type broadcastCall struct {
	topic   string
	event   string
	payload any
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, topic, event string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return b.err
	}
	b.calls = append(b.calls, broadcastCall{topic: topic, event: event, payload: payload})
	return nil
}

func (b *recordingBroadcaster) recorded() []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]broadcastCall(nil), b.calls...)
}

type boardData map[string]any

func TestHandleLocal_ReturnsResultAndBroadcastsOnce(t *testing.T) {
	t.Parallel()

	bc := &recordingBroadcaster{}
	reg := synced.New[boardData]("room:1", bc)

	reg.Register("test-event",
		func(_ context.Context, payload any, data boardData) (synced.LocalResult[boardData], error) {
			data["new_thing"] = payload
			return synced.LocalResult[boardData]{
				Result:    synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
				Broadcast: "result",
			}, nil
		},
		func(_ context.Context, _ any, data boardData) (synced.Result[boardData], error) {
			return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
		},
	)

	res, err := reg.HandleLocal(context.Background(), "test-event", 1, boardData{})
	require.NoError(t, err)

	assert.Equal(t, synced.NoReply, res.Disposition, "Disposition should pass through untouched")
	assert.Equal(t, boardData{"new_thing": 1}, res.Data, "Updated session value should be returned")

	calls := bc.recorded()
	require.Len(t, calls, 1, "Exactly one broadcast per local invocation")
	assert.Equal(t, "room:1", calls[0].topic)
	assert.Equal(t, "test-event", calls[0].event)
	assert.Equal(t, "result", calls[0].payload, "Broadcast payload should be the handler's Broadcast field")
}

func TestHandleLocal_UnknownEvent(t *testing.T) {
	t.Parallel()

	bc := &recordingBroadcaster{}
	reg := synced.New[boardData]("room:1", bc)

	_, err := reg.HandleLocal(context.Background(), "never-registered", nil, boardData{})
	require.ErrorIs(t, err, synced.ErrUnknownEvent)
	assert.Empty(t, bc.recorded(), "Unknown events must not broadcast")
}

func TestHandleLocal_HandlerErrorSuppressesBroadcast(t *testing.T) {
	t.Parallel()

	bc := &recordingBroadcaster{}
	reg := synced.New[boardData]("room:1", bc)

	handlerErr := errors.New("local failure")
	reg.Register("boom",
		func(_ context.Context, _ any, _ boardData) (synced.LocalResult[boardData], error) {
			return synced.LocalResult[boardData]{}, handlerErr
		},
		func(_ context.Context, _ any, data boardData) (synced.Result[boardData], error) {
			return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
		},
	)

	_, err := reg.HandleLocal(context.Background(), "boom", nil, boardData{})
	require.ErrorIs(t, err, handlerErr)
	assert.Empty(t, bc.recorded(), "No partial broadcast after a failed local handler")
}

func TestHandleLocal_BroadcastErrorKeepsLocalResult(t *testing.T) {
	t.Parallel()

	bc := &recordingBroadcaster{err: errors.New("transport down")}
	reg := synced.New[boardData]("room:1", bc)

	reg.Register("note",
		func(_ context.Context, payload any, data boardData) (synced.LocalResult[boardData], error) {
			data["note"] = payload
			return synced.LocalResult[boardData]{
				Result:    synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
				Broadcast: payload,
			}, nil
		},
		func(_ context.Context, _ any, data boardData) (synced.Result[boardData], error) {
			return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
		},
	)

	res, err := reg.HandleLocal(context.Background(), "note", "hi", boardData{})
	require.ErrorIs(t, err, synced.ErrBroadcastFailed)
	assert.Equal(t, boardData{"note": "hi"}, res.Data, "Mutated session value survives a broadcast failure")
}

func TestHandleSync_MatchingMessage(t *testing.T) {
	t.Parallel()

	reg := synced.New[boardData]("room:1", &recordingBroadcaster{})

	reg.Register("note-added",
		func(_ context.Context, _ any, data boardData) (synced.LocalResult[boardData], error) {
			return synced.LocalResult[boardData]{
				Result: synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
			}, nil
		},
		func(_ context.Context, payload any, data boardData) (synced.Result[boardData], error) {
			data["synced"] = payload
			return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
		},
	)

	msg := synced.Message{Topic: "room:1", Event: "note-added", Payload: 42}
	res, err := reg.HandleSync(context.Background(), msg, boardData{})
	require.NoError(t, err)

	assert.Equal(t, synced.NoReply, res.Disposition)
	assert.Equal(t, boardData{"synced": 42}, res.Data, "Sync handler should see the broadcast payload")
}

func TestHandleSync_ForeignTopicOrEvent(t *testing.T) {
	t.Parallel()

	executed := false
	reg := synced.New[boardData]("room:1", &recordingBroadcaster{})

	reg.Register("note-added",
		func(_ context.Context, _ any, data boardData) (synced.LocalResult[boardData], error) {
			return synced.LocalResult[boardData]{
				Result: synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
			}, nil
		},
		func(_ context.Context, _ any, data boardData) (synced.Result[boardData], error) {
			executed = true
			return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
		},
	)

	tests := []struct {
		name string
		msg  synced.Message
	}{
		{name: "foreign topic", msg: synced.Message{Topic: "room:2", Event: "note-added"}},
		{name: "foreign event", msg: synced.Message{Topic: "room:1", Event: "other-event"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.HandleSync(context.Background(), tt.msg, boardData{})
			require.ErrorIs(t, err, synced.ErrNotMatched)
			assert.False(t, executed, "Sync handler must not run for unmatched messages")
		})
	}
}

func TestHandleSync_HandlerErrorPropagates(t *testing.T) {
	t.Parallel()

	reg := synced.New[boardData]("room:1", &recordingBroadcaster{})

	syncErr := errors.New("sync failure")
	reg.Register("bad",
		func(_ context.Context, _ any, data boardData) (synced.LocalResult[boardData], error) {
			return synced.LocalResult[boardData]{
				Result: synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
			}, nil
		},
		func(_ context.Context, _ any, _ boardData) (synced.Result[boardData], error) {
			return synced.Result[boardData]{}, syncErr
		},
	)

	msg := synced.Message{Topic: "room:1", Event: "bad"}
	_, err := reg.HandleSync(context.Background(), msg, boardData{})
	require.ErrorIs(t, err, syncErr)
}

func TestRegister_IndependentPairs(t *testing.T) {
	t.Parallel()

	bc := &recordingBroadcaster{}
	reg := synced.New[boardData]("room:1", bc)

	var firstSync, secondSync int

	reg.Register("first",
		func(_ context.Context, _ any, data boardData) (synced.LocalResult[boardData], error) {
			return synced.LocalResult[boardData]{
				Result:    synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
				Broadcast: "from-first",
			}, nil
		},
		func(_ context.Context, _ any, data boardData) (synced.Result[boardData], error) {
			firstSync++
			return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
		},
	)
	reg.Register("second",
		func(_ context.Context, _ any, data boardData) (synced.LocalResult[boardData], error) {
			return synced.LocalResult[boardData]{
				Result:    synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
				Broadcast: "from-second",
			}, nil
		},
		func(_ context.Context, _ any, data boardData) (synced.Result[boardData], error) {
			secondSync++
			return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
		},
	)

	_, err := reg.HandleLocal(context.Background(), "first", nil, boardData{})
	require.NoError(t, err)

	calls := bc.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "from-first", calls[0].payload, "Raising one event must not trigger the other's broadcast")

	_, err = reg.HandleSync(context.Background(), synced.Message{Topic: "room:1", Event: "second"}, boardData{})
	require.NoError(t, err)
	assert.Equal(t, 0, firstSync, "Other pair's sync handler must stay untouched")
	assert.Equal(t, 1, secondSync)

	assert.Equal(t, []string{"first", "second"}, reg.Events())
}

func TestRegister_Overwrite(t *testing.T) {
	t.Parallel()

	bc := &recordingBroadcaster{}
	reg := synced.New[boardData]("room:1", bc)

	local := func(broadcast any) synced.LocalFunc[boardData] {
		return func(_ context.Context, _ any, data boardData) (synced.LocalResult[boardData], error) {
			return synced.LocalResult[boardData]{
				Result:    synced.Result[boardData]{Disposition: synced.NoReply, Data: data},
				Broadcast: broadcast,
			}, nil
		}
	}
	syncNoop := func(_ context.Context, _ any, data boardData) (synced.Result[boardData], error) {
		return synced.Result[boardData]{Disposition: synced.NoReply, Data: data}, nil
	}

	reg.Register("evt", local("old"), syncNoop)
	reg.Register("evt", local("new"), syncNoop)

	_, err := reg.HandleLocal(context.Background(), "evt", nil, boardData{})
	require.NoError(t, err)

	calls := bc.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "new", calls[0].payload, "Re-registration replaces the previous pair")
}
