// Package memory provides an in-memory implementation of the client's
// storage interfaces for testing and ephemeral runs. Values are lost when
// the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/storage"
)

// Store is an in-memory key/value and transcript store.
type Store struct {
	mu          sync.RWMutex
	values      map[string]string
	transcripts map[string][]api.ChatMessage
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		values:      make(map[string]string),
		transcripts: make(map[string][]api.ChatMessage),
	}
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// AppendMessage appends one completed message to a session's transcript.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg api.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcripts[sessionID] = append(s.transcripts[sessionID], msg)
	return nil
}

// ListMessages returns a session's transcript in append order.
func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]api.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.transcripts[sessionID]
	out := make([]api.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
