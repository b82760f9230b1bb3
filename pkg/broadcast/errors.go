package broadcast

import "errors"

var (
	// ErrBroadcasterClosed is returned when publishing to or subscribing on
	// a closed broadcaster.
	ErrBroadcasterClosed = errors.New("broadcast: broadcaster is closed")

	// ErrSubscriberClosed is returned when receiving on a closed subscriber.
	ErrSubscriberClosed = errors.New("broadcast: subscriber is closed")
)
