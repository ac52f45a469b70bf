package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguafluent/linguafluent/internal/config"
	"github.com/linguafluent/linguafluent/internal/conversation"
	"github.com/linguafluent/linguafluent/internal/identity"
	"github.com/linguafluent/linguafluent/internal/lang"
	"github.com/linguafluent/linguafluent/internal/observe"
	"github.com/linguafluent/linguafluent/internal/orchestrator"
	"github.com/linguafluent/linguafluent/internal/store"
	"github.com/linguafluent/linguafluent/pkg/provider/tts"
)

// ErrNoSession is returned by session-scoped operations when no session is
// active.
var ErrNoSession = errors.New("session: no active session")

// ErrInvalidLanguagePair is returned by StartSession when the requested
// language pair is incomplete or degenerate.
var ErrInvalidLanguagePair = errors.New("session: invalid language pair")

// SessionParams configures a new session. Zero-value fields fall back to the
// configured defaults.
type SessionParams struct {
	// Title labels the session in listings. Defaults to a timestamped name.
	Title string

	// SourceLanguage and TargetLanguage override the configured pair for
	// this session. Speaker A starts on SourceLanguage.
	SourceLanguage string
	TargetLanguage string
}

// SessionManager manages the lifecycle of translation sessions.
// Only one session can be active at a time (enforced by mutex).
// All exported methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	active   bool
	sess     *conversation.Session
	pipeline *orchestrator.Pipeline
	capture  *orchestrator.Capture
	playback *orchestrator.Playback
	owner    identity.Identity

	// Dependencies injected at construction.
	cfg       *config.Config
	providers *Providers
	store     store.Store
	ident     identity.Provider
	metrics   *observe.Metrics
	sink      orchestrator.AudioSink
	scorer    orchestrator.Scorer
}

// SessionManagerConfig holds all dependencies for a [SessionManager].
type SessionManagerConfig struct {
	Config    *config.Config
	Providers *Providers

	// Store persists sessions and messages. May be nil.
	Store store.Store

	// Identity resolves the session owner. Required.
	Identity identity.Provider

	// Metrics defaults to observe.DefaultMetrics when nil.
	Metrics *observe.Metrics

	// Sink receives synthesised audio. May be nil.
	Sink orchestrator.AudioSink

	// Scorer overrides the pipeline's confidence scorer. May be nil.
	Scorer orchestrator.Scorer
}

// NewSessionManager creates a SessionManager with the given dependencies.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &SessionManager{
		cfg:       cfg.Config,
		providers: cfg.Providers,
		store:     cfg.Store,
		ident:     cfg.Identity,
		metrics:   m,
		sink:      cfg.Sink,
		scorer:    cfg.Scorer,
	}
}

// StartSession begins a new translation session with speaker A active.
// The language pair comes from params, falling back to the configured
// defaults. Starting a new session ends any previous one in the same
// critical section, so at most one session is ever live; its recorded
// conversation stays in the store. Session creation is the only operation
// gated on identity; everything afterwards belongs to the session.
//
// A failure to persist the session header degrades durability but does not
// block the conversation.
func (sm *SessionManager) StartSession(ctx context.Context, params SessionParams) (conversation.Snapshot, error) {
	user, err := sm.ident.CurrentUser(ctx)
	if err != nil {
		return conversation.Snapshot{}, fmt.Errorf("%w: %v", orchestrator.ErrNotAuthenticated, err)
	}

	if sm.providers.Translate == nil {
		return conversation.Snapshot{}, fmt.Errorf("%w: no translation engine configured", orchestrator.ErrCapabilityUnavailable)
	}

	source := params.SourceLanguage
	if source == "" {
		source = sm.cfg.Session.SourceLanguage
	}
	target := params.TargetLanguage
	if target == "" {
		target = sm.cfg.Session.TargetLanguage
	}
	if source == "" || target == "" {
		return conversation.Snapshot{}, fmt.Errorf("%w: source and target are required", ErrInvalidLanguagePair)
	}
	if source == target {
		return conversation.Snapshot{}, fmt.Errorf("%w: source and target are both %q", ErrInvalidLanguagePair, source)
	}
	for _, code := range []string{source, target} {
		if !lang.IsSupported(code) {
			slog.Warn("language code is not in the built-in registry; display names and speech locales fall back to the raw code",
				"code", code)
		}
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	title := params.Title
	if title == "" {
		title = "Conversation " + now.Format("2006-01-02 15:04")
	}

	sess := conversation.NewSession(id, title, source, target, now)

	if sm.store != nil {
		header := store.SessionHeader{
			ID:             id,
			UserID:         user.ID,
			Title:          title,
			SourceLanguage: source,
			TargetLanguage: target,
			StartedAt:      now,
		}
		if serr := sm.store.CreateSession(ctx, header); serr != nil {
			slog.Warn("session header not persisted", "session_id", id, "err", serr)
		}
	}

	playback := orchestrator.NewPlayback(sm.providers.TTS,
		tts.Voice{ID: sm.cfg.Session.VoiceID}, sm.sink)

	pipeline, err := orchestrator.NewPipeline(orchestrator.PipelineConfig{
		Translator: sm.providers.Translate,
		Scorer:     sm.scorer,
		Store:      sm.store,
		Playback:   playback,
		Metrics:    sm.metrics,
		Timeout:    sm.cfg.Session.TranslateTimeout,
	})
	if err != nil {
		return conversation.Snapshot{}, fmt.Errorf("session: build pipeline: %w", err)
	}

	capture := orchestrator.NewCapture(sm.providers.STT,
		func(ctx context.Context, text string, engineConfidence float64) {
			if _, perr := pipeline.Run(ctx, sess, text); perr != nil {
				slog.Error("spoken turn failed", "session_id", id, "err", perr)
			}
			_ = engineConfidence // transcription confidence is not folded into the translation score
		})
	capture.OnError(func(cerr error) {
		slog.Warn("capture ended without transcript", "session_id", id, "err", cerr)
	})

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// End-and-replace happens under one lock hold: two concurrent starts
	// must not both see an idle manager and double-count the gauge.
	if sm.active {
		sm.endLocked(ctx)
	}

	sm.active = true
	sm.sess = sess
	sm.pipeline = pipeline
	sm.capture = capture
	sm.playback = playback
	sm.owner = user
	sm.metrics.ActiveSessions.Add(ctx, 1)

	slog.Info("session started",
		"session_id", id,
		"user_id", user.ID,
		"source", source,
		"target", target,
	)
	return sess.Snapshot(), nil
}

// EndSession stops capture and playback and closes the active session,
// returning its final snapshot. The recorded conversation stays in the store.
func (sm *SessionManager) EndSession(ctx context.Context) (conversation.Snapshot, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.active {
		return conversation.Snapshot{}, fmt.Errorf("%w to end", ErrNoSession)
	}
	return sm.endLocked(ctx), nil
}

// endLocked detaches the active session, stops its capture and playback, and
// decrements the session gauge. Caller must hold sm.mu with sm.active true.
// Neither Capture.Stop nor Playback.Stop re-enters the manager, so waiting
// for them under the lock cannot deadlock.
func (sm *SessionManager) endLocked(ctx context.Context) conversation.Snapshot {
	sess := sm.sess
	capture := sm.capture
	playback := sm.playback

	sm.active = false
	sm.sess = nil
	sm.pipeline = nil
	sm.capture = nil
	sm.playback = nil
	sm.owner = identity.Identity{}

	capture.Stop()
	playback.Stop()
	sm.metrics.ActiveSessions.Add(ctx, -1)

	final := sess.Snapshot()
	slog.Info("session ended",
		"session_id", final.ID,
		"messages", final.MessageCount,
		"elapsed_s", final.ElapsedSeconds,
	)
	return final
}

// IsActive reports whether a session is currently running.
func (sm *SessionManager) IsActive() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.active
}

// Snapshot returns the live session state.
func (sm *SessionManager) Snapshot() (conversation.Snapshot, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.active {
		return conversation.Snapshot{}, ErrNoSession
	}
	return sm.sess.Snapshot(), nil
}

// Messages returns the active session's conversation in ledger order.
func (sm *SessionManager) Messages() ([]conversation.Message, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.active {
		return nil, ErrNoSession
	}
	return sm.sess.Ledger().Messages(), nil
}

// StartCapture opens a speech stream for the current speaker's language.
// The capture locale follows the live source language, so after a speaker
// switch the engine listens in the other language.
func (sm *SessionManager) StartCapture(ctx context.Context) error {
	sm.mu.Lock()
	if !sm.active {
		sm.mu.Unlock()
		return ErrNoSession
	}
	capture := sm.capture
	source, _ := sm.sess.LanguagePair()
	sm.mu.Unlock()

	return capture.Start(ctx, lang.SpeechLocale(source))
}

// StopCapture cancels a running capture. A no-op when idle.
func (sm *SessionManager) StopCapture() error {
	sm.mu.Lock()
	if !sm.active {
		sm.mu.Unlock()
		return ErrNoSession
	}
	capture := sm.capture
	sm.mu.Unlock()

	capture.Stop()
	return nil
}

// CaptureState returns the capture controller's current state.
func (sm *SessionManager) CaptureState() (orchestrator.CaptureState, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.active {
		return orchestrator.CaptureIdle, ErrNoSession
	}
	return sm.capture.State(), nil
}

// SubmitText runs a typed utterance through the same pipeline spoken input
// uses.
func (sm *SessionManager) SubmitText(ctx context.Context, text string) (conversation.Message, error) {
	sm.mu.Lock()
	if !sm.active {
		sm.mu.Unlock()
		return conversation.Message{}, ErrNoSession
	}
	pipeline := sm.pipeline
	sess := sm.sess
	sm.mu.Unlock()

	return pipeline.Run(ctx, sess, text)
}

// SwitchSpeaker hands the turn to the other party, swapping the language
// pair atomically, and returns the post-switch snapshot.
func (sm *SessionManager) SwitchSpeaker() (conversation.Snapshot, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.active {
		return conversation.Snapshot{}, ErrNoSession
	}
	snap := sm.sess.SwitchSpeaker()
	slog.Info("speaker switched",
		"session_id", snap.ID,
		"speaker", string(snap.Speaker),
		"source", snap.SourceLanguage,
		"target", snap.TargetLanguage,
	)
	return snap, nil
}

// ListSessions returns the persisted session headers for the configured user.
func (sm *SessionManager) ListSessions(ctx context.Context) ([]store.SessionHeader, error) {
	if sm.store == nil {
		return nil, fmt.Errorf("%w: no store configured", orchestrator.ErrStorage)
	}
	user, err := sm.ident.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orchestrator.ErrNotAuthenticated, err)
	}
	headers, err := sm.store.ListSessions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orchestrator.ErrStorage, err)
	}
	return headers, nil
}

// ListMessages returns persisted messages matching f.
func (sm *SessionManager) ListMessages(ctx context.Context, f store.Filter) ([]conversation.Message, error) {
	if sm.store == nil {
		return nil, fmt.Errorf("%w: no store configured", orchestrator.ErrStorage)
	}
	msgs, err := sm.store.ListMessages(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orchestrator.ErrStorage, err)
	}
	return msgs, nil
}
