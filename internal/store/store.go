// Package store defines the persistence boundary for sessions and their
// translated messages. The live session keeps working from its in-memory
// ledger; the store is a durable mirror, so a write failure degrades
// persistence but never stops the conversation.
package store

import (
	"context"
	"time"

	"github.com/linguafluent/linguafluent/internal/conversation"
)

// SessionHeader is the durable record of a session's identity and initial
// language pair. Later language swaps are not written back; each message
// snapshots the pair it was captured under.
type SessionHeader struct {
	ID             string
	UserID         string
	Title          string
	SourceLanguage string
	TargetLanguage string
	StartedAt      time.Time
}

// Filter narrows a ListMessages query. The zero value matches nothing
// useful; SessionID is required.
type Filter struct {
	// SessionID selects the session to read. Required.
	SessionID string

	// Speaker, if non-empty, restricts results to one party ("A" or "B").
	Speaker conversation.Speaker

	// After and Before bound the message timestamp when non-zero.
	After  time.Time
	Before time.Time

	// Limit caps the number of returned messages when positive.
	Limit int
}

// Store persists session headers and messages.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateSession records a new session header.
	CreateSession(ctx context.Context, header SessionHeader) error

	// AppendMessage records one translated message under its session.
	AppendMessage(ctx context.Context, sessionID string, msg conversation.Message) error

	// ListSessions returns all session headers for userID, newest first.
	ListSessions(ctx context.Context, userID string) ([]SessionHeader, error)

	// ListMessages returns messages matching f in ledger order.
	ListMessages(ctx context.Context, f Filter) ([]conversation.Message, error)

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close()
}
