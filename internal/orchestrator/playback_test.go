package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linguafluent/linguafluent/pkg/provider/tts"
	ttsmock "github.com/linguafluent/linguafluent/pkg/provider/tts/mock"
)

// chunkRecorder is a thread-safe AudioSink for tests.
type chunkRecorder struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (r *chunkRecorder) sink(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, chunk)
}

func (r *chunkRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

func TestPlayback_SpeaksToSink(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{Chunks: [][]byte{[]byte("a"), []byte("b")}}
	rec := &chunkRecorder{}
	p := NewPlayback(provider, tts.Voice{ID: "v1"}, rec.sink)

	if err := p.Speak(context.Background(), "hola"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	p.Stop()

	if got := rec.count(); got != 2 {
		t.Errorf("sink received %d chunks, want 2", got)
	}
	calls := provider.Calls()
	if len(calls) != 1 || calls[0].Text != "hola" {
		t.Errorf("Synthesize calls = %+v", calls)
	}
}

func TestPlayback_EmptyTextIsNoOp(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{}
	p := NewPlayback(provider, tts.Voice{ID: "v1"}, nil)

	if err := p.Speak(context.Background(), ""); err != nil {
		t.Fatalf("Speak(\"\"): %v", err)
	}
	if len(provider.Calls()) != 0 {
		t.Error("empty text must not reach the TTS provider")
	}
}

func TestPlayback_NilProvider(t *testing.T) {
	t.Parallel()

	p := NewPlayback(nil, tts.Voice{}, nil)
	err := p.Speak(context.Background(), "hola")
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("err = %v, want ErrCapabilityUnavailable", err)
	}
}

func TestPlayback_NewUtteranceCancelsPrevious(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{Block: true}
	rec := &chunkRecorder{}
	p := NewPlayback(provider, tts.Voice{ID: "v1"}, rec.sink)

	if err := p.Speak(context.Background(), "first"); err != nil {
		t.Fatalf("Speak first: %v", err)
	}
	if err := p.Speak(context.Background(), "second"); err != nil {
		t.Fatalf("Speak second: %v", err)
	}

	// The first stream's ctx is cancelled by the second Speak.
	deadline := time.After(2 * time.Second)
	for provider.CancelledStreams() < 1 {
		select {
		case <-deadline:
			t.Fatal("first utterance was not cancelled")
		case <-time.After(5 * time.Millisecond):
		}
	}

	p.Stop()
}

func TestPlayback_SynthesizeErrorSurfaced(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{Err: errors.New("voice not found")}
	p := NewPlayback(provider, tts.Voice{ID: "bad"}, nil)

	if err := p.Speak(context.Background(), "hola"); err == nil {
		t.Fatal("expected error from failing Synthesize")
	}
}
