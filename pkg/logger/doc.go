// Package logger provides slog attribute helpers for the vocabulary shared
// across the module: topics, events, dispositions, sessions, and broadcast
// messages.
//
// The helpers return empty attributes for zero values, so call sites can
// pass them unconditionally without nil checks:
//
//	log.Error("dispatch failed",
//		logger.Topic(msg.Topic),
//		logger.Event(msg.Event),
//		logger.Error(err))
package logger
