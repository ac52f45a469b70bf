package conversation

import (
	"sync"
	"time"
)

// Session is the aggregate for one continuous conversation between two
// speakers. It owns the message ledger exclusively and guards the mutable
// speaker/language fields with a single mutex so that the turn switch is
// atomic: a concurrent reader sees either the pre-swap or the post-swap
// language pair, never a mix.
//
// All exported methods are safe for concurrent use.
type Session struct {
	id        string
	title     string
	startedAt time.Time
	ledger    *Ledger

	mu       sync.RWMutex
	source   string // current source language code
	target   string // current target language code
	speaker  Speaker
	accuracy int // running accuracy, 0–100
}

// NewSession creates a session with speaker A active and a zero running
// accuracy, mirroring a freshly started conversation.
func NewSession(id, title, sourceLanguage, targetLanguage string, startedAt time.Time) *Session {
	return &Session{
		id:        id,
		title:     title,
		startedAt: startedAt,
		ledger:    NewLedger(id),
		source:    sourceLanguage,
		target:    targetLanguage,
		speaker:   SpeakerA,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// StartedAt returns the session start instant.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Ledger returns the session's message ledger for read access. The ledger
// itself only grows; callers cannot mutate recorded messages.
func (s *Session) Ledger() *Ledger { return s.ledger }

// LanguagePair returns the current (source, target) language codes as one
// consistent pair.
func (s *Session) LanguagePair() (source, target string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.target
}

// Speaker returns the current speaker.
func (s *Session) Speaker() Speaker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speaker
}

// RunningAccuracy returns the current blended confidence value.
func (s *Session) RunningAccuracy() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accuracy
}

// SwitchSpeaker toggles the current speaker and swaps the source/target
// language pair in the same critical section. In a two-party bidirectional
// conversation B's source is A's target, so the toggle and the swap must
// never be observable as two separate updates.
func (s *Session) SwitchSpeaker() Snapshot {
	s.mu.Lock()
	s.speaker = s.speaker.Other()
	s.source, s.target = s.target, s.source
	s.mu.Unlock()
	return s.Snapshot()
}

// Record appends a translated utterance to the ledger and folds its
// confidence into the running accuracy, all under one lock so the ledger
// entry and the accuracy update cannot interleave with another turn.
//
// The running accuracy is floor((previous + confidence) / 2): a two-term
// recency-weighted blend, not a true mean over all messages. Returns the
// completed message.
func (s *Session) Record(speaker Speaker, original, translated string, confidence int, sourceLanguage, targetLanguage string, at time.Time) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.ledger.append(Message{
		Speaker:        speaker,
		OriginalText:   original,
		TranslatedText: translated,
		Confidence:     confidence,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		Timestamp:      at,
	})
	s.accuracy = (s.accuracy + confidence) / 2
	return msg
}

// Snapshot is a consistent read-only view of the session's live state,
// exposed to the presentation layer.
type Snapshot struct {
	ID              string
	Title           string
	StartedAt       time.Time
	Speaker         Speaker
	SourceLanguage  string
	TargetLanguage  string
	RunningAccuracy int
	ElapsedSeconds  int
	MessageCount    int
}

// Snapshot returns the current session state as one consistent view.
// ElapsedSeconds is derived from the start instant at call time.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		ID:              s.id,
		Title:           s.title,
		StartedAt:       s.startedAt,
		Speaker:         s.speaker,
		SourceLanguage:  s.source,
		TargetLanguage:  s.target,
		RunningAccuracy: s.accuracy,
		ElapsedSeconds:  int(time.Since(s.startedAt) / time.Second),
		MessageCount:    s.ledger.Len(),
	}
}
