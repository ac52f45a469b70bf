package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linguafluent/linguafluent/pkg/provider/tts"
)

// AudioSink consumes synthesised PCM chunks. The app wires this to the audio
// output device; tests wire it to a recorder.
type AudioSink func(chunk []byte)

// Playback speaks translations through the TTS provider with a
// cancel-then-speak policy: starting a new utterance cancels whatever is
// still playing, so at most one utterance is audible at a time and the
// newest always wins.
type Playback struct {
	provider tts.Provider
	voice    tts.Voice
	sink     AudioSink

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPlayback creates a Playback. provider may be nil, in which case Speak
// reports ErrCapabilityUnavailable and translations stay text-only.
func NewPlayback(provider tts.Provider, voice tts.Voice, sink AudioSink) *Playback {
	return &Playback{
		provider: provider,
		voice:    voice,
		sink:     sink,
	}
}

// Speak synthesises text and streams the audio to the sink. Any utterance
// still playing is cancelled first. Empty text is a no-op, not an error; an
// empty translation is silence.
//
// Speak returns once the stream has started; synthesis continues in the
// background until it finishes, is superseded, or ctx is cancelled.
func (p *Playback) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if p.provider == nil {
		return ErrCapabilityUnavailable
	}

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	uttCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	audio, err := p.provider.Synthesize(uttCtx, text, p.voice)
	if err != nil {
		cancel()
		return fmt.Errorf("playback: synthesize: %w", err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for chunk := range audio {
			if p.sink != nil {
				p.sink(chunk)
			}
		}
		if uttCtx.Err() != nil {
			slog.Debug("playback superseded or stopped", "text_len", len(text))
		}
	}()

	return nil
}

// Stop cancels the current utterance, if any, and waits for its drain
// goroutine to finish.
func (p *Playback) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
}
