package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/linguafluent/linguafluent/internal/conversation"
	"github.com/linguafluent/linguafluent/internal/observe"
	"github.com/linguafluent/linguafluent/internal/resilience"
	"github.com/linguafluent/linguafluent/internal/store"
	"github.com/linguafluent/linguafluent/pkg/provider/translate"
)

// defaultTranslateTimeout bounds a single engine call when the config does
// not say otherwise.
const defaultTranslateTimeout = 30 * time.Second

// Pipeline runs one utterance through translate → record → persist → speak.
// At most one utterance is in flight at a time; a second Run while the first
// is still translating returns ErrPipelineBusy immediately.
type Pipeline struct {
	translator translate.Provider
	breaker    *resilience.Breaker
	scorer     Scorer
	store      store.Store
	playback   *Playback
	metrics    *observe.Metrics
	timeout    time.Duration

	mu   sync.Mutex
	busy bool
}

// PipelineConfig assembles a Pipeline. Translator is required; everything
// else has a usable default or may be nil.
type PipelineConfig struct {
	// Translator is the translation engine. Required.
	Translator translate.Provider

	// Breaker guards engine calls. When nil a default breaker is created.
	Breaker *resilience.Breaker

	// Scorer converts engine confidence to the recorded 0–100 score.
	// Default: SyntheticScorer.
	Scorer Scorer

	// Store persists messages. May be nil for in-memory only operation.
	Store store.Store

	// Playback speaks translations. May be nil for text-only operation.
	Playback *Playback

	// Metrics records pipeline telemetry. Default: observe.DefaultMetrics.
	Metrics *observe.Metrics

	// Timeout bounds one engine call. Default: 30s.
	Timeout time.Duration
}

// NewPipeline creates a Pipeline from cfg.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Translator == nil {
		return nil, fmt.Errorf("pipeline: translator is required")
	}
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.NewBreaker(resilience.BreakerConfig{Name: "translate"})
	}
	if cfg.Scorer == nil {
		cfg.Scorer = SyntheticScorer{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTranslateTimeout
	}
	return &Pipeline{
		translator: cfg.Translator,
		breaker:    cfg.Breaker,
		scorer:     cfg.Scorer,
		store:      cfg.Store,
		playback:   cfg.Playback,
		metrics:    cfg.Metrics,
		timeout:    cfg.Timeout,
	}, nil
}

// Run translates text for the session's current speaker and records the
// result. The speaker and language pair are snapshotted once at entry, so a
// concurrent turn switch cannot tear the attribution.
//
// An empty translation from the engine is still recorded; the conversation
// keeps an honest record of what the engine produced. A persistence failure
// is logged and counted but does not fail the turn — the in-memory ledger
// already holds the message.
func (p *Pipeline) Run(ctx context.Context, sess *conversation.Session, text string) (conversation.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return conversation.Message{}, ErrEmptyInput
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return conversation.Message{}, ErrPipelineBusy
	}
	p.busy = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	snap := sess.Snapshot()
	log := observe.Logger(ctx).With(
		"session_id", snap.ID,
		"speaker", string(snap.Speaker),
		"source", snap.SourceLanguage,
		"target", snap.TargetLanguage,
	)

	ctx, span := observe.StartSpan(ctx, "pipeline.run")
	defer span.End()

	// Translate through the breaker with the configured timeout. The
	// breaker never retries; it only short-circuits a failing engine.
	var result translate.Result
	start := time.Now()
	err := p.breaker.Execute(func() error {
		tctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		var terr error
		result, terr = p.translator.Translate(tctx, translate.Request{
			SourceLanguage: snap.SourceLanguage,
			TargetLanguage: snap.TargetLanguage,
			Text:           text,
		})
		return terr
	})
	p.metrics.TranslateDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordEngineError(ctx, "translate", "request")
		log.Error("translation failed", "error", err)
		return conversation.Message{}, fmt.Errorf("%w: %v", ErrTranslationEngine, err)
	}

	confidence := p.scorer.Score(result.Confidence)
	msg := sess.Record(snap.Speaker, text, result.TranslatedText,
		confidence, snap.SourceLanguage, snap.TargetLanguage, time.Now())
	p.metrics.RecordMessage(ctx, string(msg.Speaker), msg.SourceLanguage)

	if p.store != nil {
		if serr := p.store.AppendMessage(ctx, snap.ID, msg); serr != nil {
			p.metrics.RecordEngineError(ctx, "store", "append")
			log.Warn("message not persisted", "message_id", msg.ID, "error", serr)
		}
	}

	if p.playback != nil {
		synthStart := time.Now()
		if perr := p.playback.Speak(ctx, msg.TranslatedText); perr != nil {
			p.metrics.RecordEngineError(ctx, "tts", "synthesize")
			log.Warn("translation not spoken", "message_id", msg.ID, "error", perr)
		} else if msg.TranslatedText != "" {
			p.metrics.SynthesisDuration.Record(ctx, time.Since(synthStart).Seconds())
		}
	}

	log.Info("utterance translated",
		"message_id", msg.ID,
		"confidence", msg.Confidence,
		"empty_translation", msg.TranslatedText == "")
	return msg, nil
}
