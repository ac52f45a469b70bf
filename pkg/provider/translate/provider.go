// Package translate defines the Provider interface for the translation
// engine boundary: the external text-to-text service the pipeline sequences
// each utterance through.
//
// The contract is a single request/response exchange. The engine is
// instructed to return translation text only, with no explanatory prose; the
// pipeline does not parse or strip extraneous content, so an engine that
// violates the instruction leaks its surplus into the recorded translation.
//
// Implementations must be safe for concurrent use.
package translate

import "context"

// Request carries one utterance to translate.
type Request struct {
	// SourceLanguage and TargetLanguage are short language codes ("en",
	// "es"). Implementations may expand them to display names when
	// building engine prompts.
	SourceLanguage string
	TargetLanguage string

	// Text is the utterance to translate. Callers guarantee it is
	// non-blank; implementations may still reject blank input defensively.
	Text string
}

// Result is the engine's response.
type Result struct {
	// TranslatedText is the translation. May be empty when the engine
	// returned nothing — callers record such results rather than discard
	// them.
	TranslatedText string

	// Confidence is the engine-reported quality estimate in 0.0–1.0.
	// Zero means the engine does not report confidence.
	Confidence float64
}

// Provider is the abstraction over any translation backend.
type Provider interface {
	// Translate performs one translation exchange. It must respect ctx
	// cancellation and deadlines; callers impose the pipeline timeout
	// through ctx.
	Translate(ctx context.Context, req Request) (Result, error)
}
