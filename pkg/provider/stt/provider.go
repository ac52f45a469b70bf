// Package stt defines the Provider interface for the transcription engine
// boundary: the external speech-to-text service a capture turn listens to.
//
// An STT provider wraps a real-time transcription service (e.g., Deepgram)
// and exposes a uniform streaming interface. The central abstraction is
// SessionHandle: once opened, a session accepts raw PCM audio frames and
// emits two streams of Transcript values — low-latency partials for UI
// feedback and authoritative finals that drive the translation pipeline.
// The orchestration core reacts only to finals.
//
// Implementations must be safe for concurrent use. Audio input and transcript
// output channels are goroutine-safe by construction.
package stt

import "context"

// StreamConfig describes the audio format and recognition settings for a new
// transcription session.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz. 16000 is the usual
	// STT-optimised mono rate.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most
	// STT providers).
	Channels int

	// Locale is the BCP-47 language tag for recognition (e.g., "en-US",
	// "zh-CN"). An empty string lets the provider auto-detect, if supported.
	Locale string
}

// SessionHandle represents an open transcription session. It is an interface
// so that test code can provide mock implementations without a live provider
// connection.
//
// Callers must call Close when the session is no longer needed; failing to do
// so may leak goroutines and network connections inside the implementation.
// All methods must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw PCM audio bytes for transcription.
	// The chunk must match the SampleRate and Channels agreed in
	// StreamConfig. Calling SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel emitting interim Transcript
	// values. Suitable for UI indicators only; the orchestrator ignores
	// them. Closed when the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel emitting authoritative Transcript
	// values once the provider commits to a result. These drive the
	// translation pipeline. Closed when the session ends — a close without
	// any final delivered signals an engine-side failure or silence.
	Finals() <-chan Transcript

	// Close terminates the session, flushes pending audio, and releases all
	// resources. After Close returns, both channels will be closed. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any speech-to-text backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// StartStream opens a streaming transcription session. The returned
	// SessionHandle is ready to accept audio immediately. Capture is
	// continuous: the stream stays open until the caller closes it or the
	// engine reports a terminal event.
	//
	// Returns an error if the session cannot be established (authentication
	// failure, denied capability, ctx already cancelled). The caller owns
	// the handle and must call Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
