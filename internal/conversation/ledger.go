package conversation

import "sync"

// Ledger is the append-only ordered record of translated messages for one
// session. Ordering is by a monotonic sequence counter assigned at append
// time; entries are never edited or removed.
//
// All methods are safe for concurrent use.
type Ledger struct {
	mu        sync.RWMutex
	sessionID string
	messages  []Message
}

// NewLedger creates an empty ledger bound to sessionID. Message IDs are
// derived from the session ID and the append sequence.
func NewLedger(sessionID string) *Ledger {
	return &Ledger{sessionID: sessionID}
}

// append assigns the next sequence number and ID to msg and stores it.
// Returns the completed message. Called by the owning Session with the
// remaining Message fields already populated.
func (l *Ledger) append(msg Message) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg.Seq = len(l.messages) + 1
	msg.ID = messageID(l.sessionID, msg.Seq)
	l.messages = append(l.messages, msg)
	return msg
}

// Messages returns a copy of the ledger contents in creation order.
func (l *Ledger) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages recorded so far.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Last returns the most recently appended message. ok is false when the
// ledger is empty.
func (l *Ledger) Last() (msg Message, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}
