// Package storage provides utilities shared across storage adapter
// implementations, currently the sentinel errors.
//
// Storage adapters (memory, sqlite) implement the session.Store interface
// for the persisted client identity and the chat.TranscriptStore interface
// for durable conversation history. This package contains only shared
// helpers, not the interfaces themselves.
package storage
