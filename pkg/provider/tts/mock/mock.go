// Package mock provides a test double for the tts package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/linguafluent/linguafluent/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Provider.Synthesize.
type SynthesizeCall struct {
	Text  string
	Voice tts.Voice
}

// Provider is a mock implementation of tts.Provider. Each Synthesize call
// emits the configured Chunks and then closes the channel, or stalls until
// ctx is cancelled when Block is set.
type Provider struct {
	mu sync.Mutex

	// Chunks is the audio emitted for every Synthesize call. Defaults to a
	// single non-empty chunk when nil.
	Chunks [][]byte

	// Err, if non-nil, is returned from Synthesize.
	Err error

	// Block makes Synthesize return a channel that emits Chunks and then
	// stays open until ctx is done, for testing cancellation.
	Block bool

	// SynthesizeCalls records every call to Synthesize.
	SynthesizeCalls []SynthesizeCall

	// Cancelled counts streams that ended because ctx was cancelled.
	Cancelled int
}

// Synthesize records the call and streams the configured chunks.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (<-chan []byte, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Text: text, Voice: voice})
	chunks := p.Chunks
	err := p.Err
	block := p.Block
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = [][]byte{[]byte("pcm")}
	}

	ch := make(chan []byte, len(chunks))
	go func() {
		defer close(ch)
		for _, c := range chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				p.noteCancelled()
				return
			}
		}
		if block {
			<-ctx.Done()
			p.noteCancelled()
		}
	}()
	return ch, nil
}

func (p *Provider) noteCancelled() {
	p.mu.Lock()
	p.Cancelled++
	p.mu.Unlock()
}

// Calls returns a copy of the recorded Synthesize calls. Thread-safe.
func (p *Provider) Calls() []SynthesizeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SynthesizeCall, len(p.SynthesizeCalls))
	copy(out, p.SynthesizeCalls)
	return out
}

// CancelledStreams returns how many streams ended by cancellation. Thread-safe.
func (p *Provider) CancelledStreams() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Cancelled
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
