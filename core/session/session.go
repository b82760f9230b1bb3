package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one connection's private state with generic data
// storage. The Data type parameter allows custom state structures specific
// to your application.
type Session[Data any] struct {
	// ID is the stable unique session identifier.
	ID uuid.UUID

	// Data holds custom application-specific state.
	// Examples: board contents, cursor positions, presence info.
	Data Data

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// isModified tracks if the session needs saving
	isModified bool
}

// New creates a session holding the given initial data. The session is
// marked as modified and ready to be saved.
func New[Data any](data Data, ttl time.Duration) Session[Data] {
	now := time.Now()
	return Session[Data]{
		ID:         uuid.New(),
		Data:       data,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		UpdatedAt:  now,
		isModified: true,
	}
}

// SetData replaces the session's data.
func (s *Session[Data]) SetData(data Data) {
	s.Data = data
	s.UpdatedAt = time.Now()
	s.isModified = true
}

// Touch extends the session expiration if the touch interval has elapsed.
// This reduces write operations by only updating when sufficient time has passed.
func (s *Session[Data]) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		s.ExpiresAt = time.Now().Add(ttl)
		s.UpdatedAt = time.Now()
		s.isModified = true
	}
}

// IsModified returns true if the session has been modified and needs saving.
func (s Session[Data]) IsModified() bool {
	return s.isModified
}

// IsExpired returns true if the session has expired.
func (s Session[Data]) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
