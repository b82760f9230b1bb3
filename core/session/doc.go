// Package session provides a generic per-connection state container for
// real-time applications.
//
// A Session carries application-defined Data that sync handlers update as
// broadcast messages arrive. Each connected client owns exactly one
// session; sessions are never shared between connections, which keeps
// cross-session concurrency safe by construction.
//
// # Basic Usage
//
//	type Board struct {
//		Notes []string `json:"notes"`
//	}
//
//	sess := session.New(Board{}, time.Hour)
//	sess.SetData(Board{Notes: []string{"hello"}})
//
// The Store interface abstracts optional persistence. MemoryStore is a
// map-backed implementation for single-instance deployments and tests;
// Redis- or database-backed stores can implement the same interface.
package session
