// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs) and
// presents a uniform streaming interface: one utterance in, a channel of raw
// PCM audio chunks out. Playback consumes the chunks as they arrive and
// cancels the stream through ctx when a newer utterance supersedes this one.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Voice identifies a synthesis voice at the backend.
type Voice struct {
	// ID is the provider-assigned voice identifier.
	ID string

	// Name is a human-readable label. Informational only.
	Name string

	// Locale is the BCP-47 tag the voice speaks ("es-ES", "zh-CN").
	// Providers that infer pronunciation from text may ignore it.
	Locale string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts one utterance to speech. It returns a channel
	// emitting raw PCM audio chunks as they are produced; the channel is
	// closed when synthesis completes or ctx is cancelled. Cancelling ctx
	// must stop synthesis promptly and release the backend stream.
	//
	// A non-nil error means the stream could not be started at all. Errors
	// during synthesis are signalled by closing the channel early; callers
	// check ctx.Err() to tell cancellation from backend failure.
	Synthesize(ctx context.Context, text string, voice Voice) (<-chan []byte, error)
}
