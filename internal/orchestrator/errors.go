// Package orchestrator sequences one conversation turn through the
// capture → translate → record → speak pipeline. It owns the capture state
// machine, the single-utterance pipeline guard, and the cancel-then-speak
// playback policy.
//
// Nothing here retries on the caller's behalf. Every failure maps to one of
// the sentinel errors below and is surfaced exactly once; the user decides
// whether to try again.
package orchestrator

import "errors"

var (
	// ErrCapabilityUnavailable means the required engine (STT or TTS) is
	// not configured or not supported in this deployment.
	ErrCapabilityUnavailable = errors.New("orchestrator: capability unavailable")

	// ErrAlreadyActive means capture was started while a capture is
	// already in progress.
	ErrAlreadyActive = errors.New("orchestrator: capture already active")

	// ErrPipelineBusy means an utterance arrived while a previous one is
	// still being translated.
	ErrPipelineBusy = errors.New("orchestrator: pipeline busy")

	// ErrCaptureFailed means the speech engine ended the stream without
	// producing a usable transcript.
	ErrCaptureFailed = errors.New("orchestrator: capture failed")

	// ErrTranslationEngine wraps a translation engine failure or timeout.
	ErrTranslationEngine = errors.New("orchestrator: translation engine error")

	// ErrEmptyInput means a blank utterance was submitted for translation.
	ErrEmptyInput = errors.New("orchestrator: empty input")

	// ErrNotAuthenticated means session creation was attempted without a
	// resolved user identity.
	ErrNotAuthenticated = errors.New("orchestrator: not authenticated")

	// ErrStorage wraps a persistence failure. The in-memory conversation
	// is unaffected; only durability is degraded.
	ErrStorage = errors.New("orchestrator: storage error")
)
