package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linguafluent/linguafluent/pkg/provider/stt"
	sttmock "github.com/linguafluent/linguafluent/pkg/provider/stt/mock"
)

// finalRecorder collects final transcripts delivered by the controller.
type finalRecorder struct {
	mu     sync.Mutex
	texts  []string
	confs  []float64
	notify chan struct{}
}

func newFinalRecorder() *finalRecorder {
	return &finalRecorder{notify: make(chan struct{}, 16)}
}

func (r *finalRecorder) onFinal(_ context.Context, text string, conf float64) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.confs = append(r.confs, conf)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *finalRecorder) finals() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.texts))
	copy(out, r.texts)
	return out
}

// waitIdle polls until the controller returns to Idle.
func waitIdle(t *testing.T, c *Capture) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for c.State() != CaptureIdle {
		select {
		case <-deadline:
			t.Fatalf("controller stuck in state %v", c.State())
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestCapture_NilProvider(t *testing.T) {
	t.Parallel()

	c := NewCapture(nil, func(context.Context, string, float64) {})
	err := c.Start(context.Background(), "en-US")
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("err = %v, want ErrCapabilityUnavailable", err)
	}
}

func TestCapture_FinalTranscriptDispatched(t *testing.T) {
	t.Parallel()

	sess := sttmock.NewSession()
	provider := &sttmock.Provider{Session: sess}
	rec := newFinalRecorder()
	c := NewCapture(provider, rec.onFinal)

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := c.State(); got != CaptureListening {
		t.Fatalf("state = %v, want listening", got)
	}

	calls := provider.Calls()
	if len(calls) != 1 || calls[0].Cfg.Locale != "en-US" {
		t.Fatalf("StartStream calls = %+v", calls)
	}

	sess.EmitFinal("hello world", 0.97)
	<-rec.notify
	waitIdle(t, c)

	if finals := rec.finals(); len(finals) != 1 || finals[0] != "hello world" {
		t.Errorf("finals = %v", finals)
	}
	if sess.Closes() == 0 {
		t.Error("stream must be closed after the first final")
	}
}

func TestCapture_SecondStartRejected(t *testing.T) {
	t.Parallel()

	sess := sttmock.NewSession()
	provider := &sttmock.Provider{Session: sess}
	c := NewCapture(provider, func(context.Context, string, float64) {})

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(context.Background(), "en-US"); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("second Start err = %v, want ErrAlreadyActive", err)
	}

	c.Stop()
	waitIdle(t, c)
}

func TestCapture_EmptyFinalReturnsToIdleSilently(t *testing.T) {
	t.Parallel()

	sess := sttmock.NewSession()
	provider := &sttmock.Provider{Session: sess}
	rec := newFinalRecorder()
	c := NewCapture(provider, rec.onFinal)

	var errCount int
	var mu sync.Mutex
	c.OnError(func(error) {
		mu.Lock()
		errCount++
		mu.Unlock()
	})

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess.EmitFinal("", 0)
	waitIdle(t, c)

	if finals := rec.finals(); len(finals) != 0 {
		t.Errorf("empty final must not be dispatched, got %v", finals)
	}
	mu.Lock()
	defer mu.Unlock()
	if errCount != 0 {
		t.Errorf("empty final is silence, not an error; got %d error callbacks", errCount)
	}
}

func TestCapture_WhitespaceFinalIsSilence(t *testing.T) {
	t.Parallel()

	sess := sttmock.NewSession()
	provider := &sttmock.Provider{Session: sess}
	rec := newFinalRecorder()
	c := NewCapture(provider, rec.onFinal)

	errCh := make(chan error, 1)
	c.OnError(func(err error) { errCh <- err })

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess.EmitFinal("   \t\n", 0.5)
	waitIdle(t, c)

	if finals := rec.finals(); len(finals) != 0 {
		t.Errorf("whitespace final must not be dispatched, got %v", finals)
	}
	select {
	case err := <-errCh:
		t.Errorf("whitespace final is silence, not an error; got %v", err)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCapture_FinalTranscriptTrimmed(t *testing.T) {
	t.Parallel()

	sess := sttmock.NewSession()
	provider := &sttmock.Provider{Session: sess}
	rec := newFinalRecorder()
	c := NewCapture(provider, rec.onFinal)

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess.EmitFinal("  hello world \n", 0.9)
	<-rec.notify
	waitIdle(t, c)

	if finals := rec.finals(); len(finals) != 1 || finals[0] != "hello world" {
		t.Errorf("finals = %v, want trimmed text", finals)
	}
}

func TestCapture_StreamEndWithoutFinal(t *testing.T) {
	t.Parallel()

	sess := sttmock.NewSession()
	provider := &sttmock.Provider{Session: sess}
	c := NewCapture(provider, func(context.Context, string, float64) {})

	errCh := make(chan error, 1)
	c.OnError(func(err error) { errCh <- err })

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess.CloseStream()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrCaptureFailed) {
			t.Fatalf("err = %v, want ErrCaptureFailed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("engine-side stream end was not surfaced")
	}
	waitIdle(t, c)

	select {
	case err := <-errCh:
		t.Fatalf("capture failure surfaced more than once: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCapture_StartStreamFailure(t *testing.T) {
	t.Parallel()

	provider := &sttmock.Provider{StartStreamErr: errors.New("401 unauthorized")}
	c := NewCapture(provider, func(context.Context, string, float64) {})

	err := c.Start(context.Background(), "en-US")
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
	if c.State() != CaptureIdle {
		t.Errorf("state = %v, want idle after failed start", c.State())
	}
}

func TestCapture_PartialsForwarded(t *testing.T) {
	t.Parallel()

	sess := sttmock.NewSession()
	provider := &sttmock.Provider{Session: sess}
	c := NewCapture(provider, func(context.Context, string, float64) {})

	partialCh := make(chan string, 4)
	c.OnPartial(func(text string) { partialCh <- text })

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess.EmitPartial("hel")
	sess.EmitPartial("hello")

	for _, want := range []string{"hel", "hello"} {
		select {
		case got := <-partialCh:
			if got != want {
				t.Errorf("partial = %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("partial %q not forwarded", want)
		}
	}

	c.Stop()
	waitIdle(t, c)
}

// readBoundSession mimics an engine handle whose Close waits for a read loop
// that only exits once the stream context is cancelled.
type readBoundSession struct {
	*sttmock.Session
	ctx context.Context

	mu      sync.Mutex
	blocked bool
}

func (s *readBoundSession) Close() error {
	select {
	case <-s.ctx.Done():
	case <-time.After(500 * time.Millisecond):
		s.mu.Lock()
		s.blocked = true
		s.mu.Unlock()
	}
	return s.Session.Close()
}

func (s *readBoundSession) wasBlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked
}

// readBoundProvider hands out readBoundSessions bound to the StartStream ctx.
type readBoundProvider struct {
	inner *sttmock.Provider

	mu   sync.Mutex
	sess *readBoundSession
}

func (p *readBoundProvider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
	handle, err := p.inner.StartStream(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sess = &readBoundSession{Session: handle.(*sttmock.Session), ctx: ctx}
	return p.sess, nil
}

func (p *readBoundProvider) session() *readBoundSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess
}

func TestCapture_FinishCancelsStreamBeforeClose(t *testing.T) {
	t.Parallel()

	inner := sttmock.NewSession()
	provider := &readBoundProvider{inner: &sttmock.Provider{Session: inner}}
	rec := newFinalRecorder()
	c := NewCapture(provider, rec.onFinal)

	if err := c.Start(context.Background(), "en-US"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	inner.EmitFinal("hello", 0.9)
	<-rec.notify
	waitIdle(t, c)

	if provider.session().wasBlocked() {
		t.Error("Close ran before the stream context was cancelled")
	}
}

func TestCapture_StateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state CaptureState
		want  string
	}{
		{CaptureIdle, "idle"},
		{CaptureListening, "listening"},
		{CaptureProcessing, "processing"},
		{CaptureState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("CaptureState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
