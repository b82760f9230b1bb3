package pg

import "errors"

// Domain-specific PostgreSQL errors for consistent error handling across the application.
// Use errors.Is() to check error types for retry logic and user-facing messages.
var (
	ErrEmptyConnectionString = errors.New("empty postgres connection string")
	ErrFailedToParseConnStr  = errors.New("failed to parse postgres connection string")
	ErrPostgresNotReady      = errors.New("postgres did not become ready within the given time period")
	ErrHealthcheckFailed     = errors.New("postgres healthcheck failed")
	ErrEncodeMessage         = errors.New("failed to encode broadcast message")
	ErrPayloadTooLarge       = errors.New("notify payload exceeds postgres 8000 byte limit")
	ErrListenFailed          = errors.New("failed to listen on postgres channel")
)
