package session

import "errors"

var (
	// ErrExpired is returned when a stored session has expired and is no
	// longer valid.
	ErrExpired = errors.New("session has expired")
	// ErrNotFound is returned when a session cannot be found in the store.
	ErrNotFound = errors.New("session not found")
)
