package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/linguafluent/linguafluent/internal/observe"
	"github.com/linguafluent/linguafluent/pkg/provider/stt"
)

// CaptureState is the capture controller's lifecycle state.
type CaptureState int

const (
	// CaptureIdle means no capture is running.
	CaptureIdle CaptureState = iota

	// CaptureListening means a speech stream is open and waiting for a
	// final transcript.
	CaptureListening

	// CaptureProcessing means a final transcript arrived and is being run
	// through the pipeline.
	CaptureProcessing
)

// String returns the human-readable name of the state.
func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "idle"
	case CaptureListening:
		return "listening"
	case CaptureProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// FinalFunc handles the one final transcript of a capture. It runs on the
// controller's dispatcher goroutine; the capture state is Processing for its
// whole duration.
type FinalFunc func(ctx context.Context, text string, engineConfidence float64)

// Capture drives one utterance of speech recognition at a time:
// Idle → Listening on Start, Listening → Processing on the first final
// transcript, Processing → Idle when the handler returns. The stream is
// closed after the first final; each spoken turn is one explicit Start.
type Capture struct {
	provider stt.Provider

	// onFinal receives the final transcript. Required.
	onFinal FinalFunc

	// onPartial receives interim transcripts for live display. Optional.
	onPartial func(text string)

	// onError is called at most once per capture when the engine ends the
	// stream without a final transcript. Optional.
	onError func(err error)

	mu     sync.Mutex
	state  CaptureState
	handle stt.SessionHandle
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCapture creates a capture controller. provider may be nil when the
// deployment has no speech engine; Start then reports
// ErrCapabilityUnavailable.
func NewCapture(provider stt.Provider, onFinal FinalFunc) *Capture {
	return &Capture{
		provider: provider,
		onFinal:  onFinal,
	}
}

// OnPartial sets the interim transcript callback. Must be called before Start.
func (c *Capture) OnPartial(fn func(text string)) { c.onPartial = fn }

// OnError sets the capture failure callback. Must be called before Start.
func (c *Capture) OnError(fn func(err error)) { c.onError = fn }

// State returns the current capture state.
func (c *Capture) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens a speech stream for the given locale and transitions to
// Listening. Returns ErrAlreadyActive when a capture is already running and
// ErrCaptureFailed when the engine refuses the stream.
func (c *Capture) Start(ctx context.Context, locale string) error {
	if c.provider == nil {
		return ErrCapabilityUnavailable
	}

	c.mu.Lock()
	if c.state != CaptureIdle {
		c.mu.Unlock()
		return ErrAlreadyActive
	}

	streamCtx, cancel := context.WithCancel(ctx)
	handle, err := c.provider.StartStream(streamCtx, stt.StreamConfig{
		SampleRate: 16000,
		Channels:   1,
		Locale:     locale,
	})
	if err != nil {
		cancel()
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	c.state = CaptureListening
	c.handle = handle
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go c.dispatch(streamCtx, handle)
	return nil
}

// dispatch consumes transcripts until the first final or the stream ends.
func (c *Capture) dispatch(ctx context.Context, handle stt.SessionHandle) {
	defer c.wg.Done()

	partials := handle.Partials()
	finals := handle.Finals()

	for {
		select {
		case t, ok := <-partials:
			if !ok {
				partials = nil
				continue
			}
			if c.onPartial != nil {
				c.onPartial(t.Text)
			}

		case t, ok := <-finals:
			if !ok {
				// Stream ended without a final transcript. Surface
				// the failure once and return to Idle.
				c.finish(handle)
				observe.Logger(ctx).Warn("speech stream ended without transcript")
				if c.onError != nil {
					c.onError(ErrCaptureFailed)
				}
				return
			}

			text := strings.TrimSpace(t.Text)
			if text == "" {
				// Silence. Nothing to translate, nothing to report.
				c.finish(handle)
				return
			}

			c.setState(CaptureProcessing)
			c.onFinal(ctx, text, t.Confidence)
			c.finish(handle)
			return

		case <-ctx.Done():
			c.finish(handle)
			return
		}
	}
}

// setState updates the state under the lock.
func (c *Capture) setState(s CaptureState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// finish closes the stream and returns the controller to Idle. The stream
// context is cancelled before Close: engine handles block their Close on a
// read loop that only exits once the context dies.
func (c *Capture) finish(handle stt.SessionHandle) {
	c.mu.Lock()
	var cancel context.CancelFunc
	if c.handle == handle {
		cancel = c.cancel
		c.handle = nil
		c.cancel = nil
	}
	c.state = CaptureIdle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = handle.Close()
}

// Stop cancels a running capture and waits for the dispatcher to exit.
// Stopping an idle controller is a no-op.
func (c *Capture) Stop() {
	c.mu.Lock()
	handle := c.handle
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if handle != nil {
		_ = handle.Close()
	}
	c.wg.Wait()
}
