// Package mock provides an in-memory test double for store.Store.
package mock

import (
	"context"
	"sync"

	"github.com/linguafluent/linguafluent/internal/conversation"
	"github.com/linguafluent/linguafluent/internal/store"
)

// Store is a mock implementation of store.Store. Configure the Err fields to
// simulate storage failures; recorded data stays inspectable either way.
type Store struct {
	mu sync.Mutex

	// CreateErr, AppendErr, ListErr and PingErr are returned from the
	// corresponding methods when non-nil.
	CreateErr error
	AppendErr error
	ListErr   error
	PingErr   error

	// Sessions holds every header passed to CreateSession, in call order.
	Sessions []store.SessionHeader

	// Messages holds appended messages keyed by session ID, in call order.
	Messages map[string][]conversation.Message

	// CloseCount counts calls to Close.
	CloseCount int
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{Messages: map[string][]conversation.Message{}}
}

// CreateSession implements store.Store.
func (s *Store) CreateSession(_ context.Context, h store.SessionHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.Sessions = append(s.Sessions, h)
	return nil
}

// AppendMessage implements store.Store.
func (s *Store) AppendMessage(_ context.Context, sessionID string, m conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.Messages[sessionID] = append(s.Messages[sessionID], m)
	return nil
}

// ListSessions implements store.Store.
func (s *Store) ListSessions(_ context.Context, userID string) ([]store.SessionHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := []store.SessionHeader{}
	for i := len(s.Sessions) - 1; i >= 0; i-- {
		if s.Sessions[i].UserID == userID {
			out = append(out, s.Sessions[i])
		}
	}
	return out, nil
}

// ListMessages implements store.Store. Only the SessionID, Speaker and Limit
// filters are applied; time bounds are exercised against the real backend.
func (s *Store) ListMessages(_ context.Context, f store.Filter) ([]conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := []conversation.Message{}
	for _, m := range s.Messages[f.SessionID] {
		if f.Speaker != "" && m.Speaker != f.Speaker {
			continue
		}
		out = append(out, m)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Ping implements store.Store.
func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PingErr
}

// Close implements store.Store.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCount++
}

// Appended returns a copy of the messages recorded for sessionID. Thread-safe.
func (s *Store) Appended(sessionID string) []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]conversation.Message, len(s.Messages[sessionID]))
	copy(out, s.Messages[sessionID])
	return out
}

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)
