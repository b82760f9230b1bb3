package synced

import "errors"

var (
	// ErrUnknownEvent is returned by HandleLocal when no handler pair is
	// registered under the raised event name.
	ErrUnknownEvent = errors.New("synced: unknown event")

	// ErrNotMatched is returned by HandleSync when the message topic or
	// event does not match this registry. The sync handler is not executed.
	ErrNotMatched = errors.New("synced: message not matched")

	// ErrBroadcastFailed wraps a broadcaster error raised after the local
	// handler already completed. The local result is still returned.
	ErrBroadcastFailed = errors.New("synced: broadcast failed")
)
