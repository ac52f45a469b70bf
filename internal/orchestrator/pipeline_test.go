package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linguafluent/linguafluent/internal/conversation"
	storemock "github.com/linguafluent/linguafluent/internal/store/mock"
	"github.com/linguafluent/linguafluent/pkg/provider/translate"
	translatemock "github.com/linguafluent/linguafluent/pkg/provider/translate/mock"
	"github.com/linguafluent/linguafluent/pkg/provider/tts"
	ttsmock "github.com/linguafluent/linguafluent/pkg/provider/tts/mock"
)

// fixedScorer always returns the same confidence.
type fixedScorer struct{ v int }

func (f fixedScorer) Score(float64) int { return f.v }

func newTestSession() *conversation.Session {
	return conversation.NewSession("sess-1", "Test", "en", "es", time.Now())
}

func newTestPipeline(t *testing.T, cfg PipelineConfig) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestPipeline_TranslatesAndRecords(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Provider{Result: translate.Result{TranslatedText: "hola"}}
	st := storemock.NewStore()
	p := newTestPipeline(t, PipelineConfig{
		Translator: translator,
		Scorer:     fixedScorer{v: 92},
		Store:      st,
	})
	sess := newTestSession()

	msg, err := p.Run(context.Background(), sess, "hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if msg.OriginalText != "hello" || msg.TranslatedText != "hola" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.Speaker != conversation.SpeakerA {
		t.Errorf("Speaker = %q, want A", msg.Speaker)
	}
	if msg.SourceLanguage != "en" || msg.TargetLanguage != "es" {
		t.Errorf("pair = %s/%s, want en/es", msg.SourceLanguage, msg.TargetLanguage)
	}
	if msg.Confidence != 92 {
		t.Errorf("Confidence = %d, want 92", msg.Confidence)
	}
	// floor((0 + 92) / 2) = 46
	if got := sess.RunningAccuracy(); got != 46 {
		t.Errorf("RunningAccuracy = %d, want 46", got)
	}

	reqs := translator.Calls()
	if len(reqs) != 1 {
		t.Fatalf("translator received %d requests, want 1", len(reqs))
	}
	if reqs[0].SourceLanguage != "en" || reqs[0].TargetLanguage != "es" || reqs[0].Text != "hello" {
		t.Errorf("request = %+v", reqs[0])
	}

	persisted := st.Appended("sess-1")
	if len(persisted) != 1 || persisted[0].ID != msg.ID {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestPipeline_EmptyInput(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Provider{}
	p := newTestPipeline(t, PipelineConfig{Translator: translator})
	sess := newTestSession()

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := p.Run(context.Background(), sess, in)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Run(%q) err = %v, want ErrEmptyInput", in, err)
		}
	}
	if len(translator.Calls()) != 0 {
		t.Error("blank input must not reach the engine")
	}
	if sess.Ledger().Len() != 0 {
		t.Error("blank input must not be recorded")
	}
}

func TestPipeline_BusyGuard(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once
	translator := &translatemock.Provider{
		TranslateFunc: func(ctx context.Context, req translate.Request) (translate.Result, error) {
			startedOnce.Do(func() { close(started) })
			<-release
			return translate.Result{TranslatedText: "hola"}, nil
		},
	}
	p := newTestPipeline(t, PipelineConfig{Translator: translator})
	sess := newTestSession()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.Run(context.Background(), sess, "hello")
	}()

	<-started
	_, err := p.Run(context.Background(), sess, "world")
	if !errors.Is(err, ErrPipelineBusy) {
		t.Fatalf("second Run err = %v, want ErrPipelineBusy", err)
	}

	close(release)
	wg.Wait()

	// The guard clears once the first utterance completes.
	if _, err := p.Run(context.Background(), sess, "again"); err != nil {
		t.Fatalf("Run after completion: %v", err)
	}
}

func TestPipeline_EngineFailure(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Provider{Err: errors.New("rate limited")}
	st := storemock.NewStore()
	p := newTestPipeline(t, PipelineConfig{Translator: translator, Store: st})
	sess := newTestSession()

	_, err := p.Run(context.Background(), sess, "hello")
	if !errors.Is(err, ErrTranslationEngine) {
		t.Fatalf("err = %v, want ErrTranslationEngine", err)
	}
	if sess.Ledger().Len() != 0 {
		t.Error("failed turn must not be recorded")
	}
	if sess.RunningAccuracy() != 0 {
		t.Error("failed turn must not move the running accuracy")
	}
	if len(st.Appended("sess-1")) != 0 {
		t.Error("failed turn must not be persisted")
	}
}

func TestPipeline_Timeout(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Provider{Delay: time.Second}
	p := newTestPipeline(t, PipelineConfig{
		Translator: translator,
		Timeout:    10 * time.Millisecond,
	})
	sess := newTestSession()

	_, err := p.Run(context.Background(), sess, "hello")
	if !errors.Is(err, ErrTranslationEngine) {
		t.Fatalf("err = %v, want ErrTranslationEngine for a timed-out call", err)
	}
}

func TestPipeline_EmptyTranslationStillRecorded(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Provider{Result: translate.Result{TranslatedText: ""}}
	ttsProvider := &ttsmock.Provider{}
	playback := NewPlayback(ttsProvider, tts.Voice{ID: "v1"}, nil)
	p := newTestPipeline(t, PipelineConfig{
		Translator: translator,
		Scorer:     fixedScorer{v: 90},
		Playback:   playback,
	})
	sess := newTestSession()

	msg, err := p.Run(context.Background(), sess, "hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if msg.TranslatedText != "" {
		t.Errorf("TranslatedText = %q, want empty", msg.TranslatedText)
	}
	if sess.Ledger().Len() != 1 {
		t.Error("empty translation must still be recorded")
	}
	if sess.RunningAccuracy() != 45 {
		t.Errorf("RunningAccuracy = %d, want 45", sess.RunningAccuracy())
	}
	if len(ttsProvider.Calls()) != 0 {
		t.Error("empty translation must not be synthesised")
	}
}

func TestPipeline_StorageFailureDoesNotFailTurn(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Provider{Result: translate.Result{TranslatedText: "hola"}}
	st := storemock.NewStore()
	st.AppendErr = errors.New("connection reset")
	p := newTestPipeline(t, PipelineConfig{Translator: translator, Store: st})
	sess := newTestSession()

	msg, err := p.Run(context.Background(), sess, "hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if msg.TranslatedText != "hola" {
		t.Errorf("msg = %+v", msg)
	}
	if sess.Ledger().Len() != 1 {
		t.Error("in-memory ledger must keep the message despite the storage failure")
	}
}

func TestPipeline_SpeaksTranslation(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Provider{Result: translate.Result{TranslatedText: "hola"}}
	ttsProvider := &ttsmock.Provider{}
	rec := &chunkRecorder{}
	playback := NewPlayback(ttsProvider, tts.Voice{ID: "v1"}, rec.sink)
	p := newTestPipeline(t, PipelineConfig{Translator: translator, Playback: playback})
	sess := newTestSession()

	if _, err := p.Run(context.Background(), sess, "hello"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	playback.Stop()

	calls := ttsProvider.Calls()
	if len(calls) != 1 || calls[0].Text != "hola" {
		t.Errorf("Synthesize calls = %+v", calls)
	}
}

func TestPipeline_SpeakerSnapshotUnderSwitch(t *testing.T) {
	t.Parallel()

	sess := newTestSession()
	sess.SwitchSpeaker() // B speaks es → en

	translator := &translatemock.Provider{Result: translate.Result{TranslatedText: "hello"}}
	p := newTestPipeline(t, PipelineConfig{Translator: translator, Scorer: fixedScorer{v: 90}})

	msg, err := p.Run(context.Background(), sess, "hola")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if msg.Speaker != conversation.SpeakerB {
		t.Errorf("Speaker = %q, want B", msg.Speaker)
	}
	if msg.SourceLanguage != "es" || msg.TargetLanguage != "en" {
		t.Errorf("pair = %s/%s, want es/en", msg.SourceLanguage, msg.TargetLanguage)
	}
}
