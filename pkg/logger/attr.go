package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Info("msg", logger.Error(err)) without explicit
// nil checks, following the principle of making zero values useful.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Topic identifies the broadcast topic a log line concerns.
func Topic(topic string) slog.Attr {
	return slog.String("topic", topic)
}

// Event identifies the synced event name a log line concerns.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Disposition records the tag a handler returned to the runtime.
func Disposition(d string) slog.Attr {
	return slog.String("disposition", d)
}

// SessionID identifies the session a log line concerns.
// Returns empty Attr for an empty ID.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// MessageID identifies a broadcast message.
// Returns empty Attr for an empty ID.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// Channel identifies a transport-level channel (Redis channel, Postgres
// notification channel).
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}
