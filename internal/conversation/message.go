// Package conversation holds the domain model for one live translation
// conversation: the two-speaker [Session] aggregate, its append-only message
// [Ledger], and the atomic turn switch that keeps the speaker and language
// pair consistent.
//
// The Session exclusively owns its ledger. Other components read the live
// speaker/language fields through [Session.Snapshot] and mutate them only via
// the Session's own methods, so a concurrent reader can never observe a torn
// speaker/language state.
package conversation

import (
	"fmt"
	"time"
)

// Speaker identifies which of the two conversation parties produced an
// utterance. A session always has exactly one current speaker.
type Speaker string

const (
	SpeakerA Speaker = "A"
	SpeakerB Speaker = "B"
)

// Other returns the opposite speaker.
func (s Speaker) Other() Speaker {
	if s == SpeakerA {
		return SpeakerB
	}
	return SpeakerA
}

// IsValid reports whether s is one of the two recognised speakers.
func (s Speaker) IsValid() bool {
	return s == SpeakerA || s == SpeakerB
}

// Message is one translated utterance. Messages are immutable once created
// and ordered by their ledger sequence number, not by wall-clock timestamp,
// so clock skew cannot reorder the conversation record.
type Message struct {
	// ID is unique within the store and sorts in creation order
	// ("<sessionID>-<seq>", seq zero-padded).
	ID string

	// Seq is the 1-based position of this message in its session's ledger.
	Seq int

	// Speaker is the party that produced the original utterance.
	Speaker Speaker

	// OriginalText is the utterance as transcribed or typed.
	OriginalText string

	// TranslatedText is the translation engine output. May be empty when
	// the engine returned nothing; such messages are still recorded.
	TranslatedText string

	// Confidence is the quality estimate for this translation, 0–100.
	Confidence int

	// SourceLanguage and TargetLanguage snapshot the session's language
	// pair at capture time. They never change, even if the live session
	// later swaps languages.
	SourceLanguage string
	TargetLanguage string

	// Timestamp is the capture-completion instant.
	Timestamp time.Time
}

// messageID builds the time-ordered message identifier. Zero-padding keeps
// lexicographic order equal to creation order for any realistic session.
func messageID(sessionID string, seq int) string {
	return fmt.Sprintf("%s-%06d", sessionID, seq)
}
