package stt

// Transcript represents a speech-to-text result from an STT provider.
// Both partial (interim) and final transcripts use this type.
type Transcript struct {
	// Text is the transcribed speech content. May be empty on a final
	// result when the engine detected no speech.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial
	// (interim) transcript.
	IsFinal bool

	// Confidence is the engine-reported confidence (0.0–1.0). Zero when the
	// provider does not report confidence.
	Confidence float64
}
