package live

import "errors"

var (
	// ErrClientStopped is returned by Raise after a handler returned the
	// Stop disposition or the pump exited.
	ErrClientStopped = errors.New("live: client stopped")
)
