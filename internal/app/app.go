package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/linguafluent/linguafluent/internal/config"
	"github.com/linguafluent/linguafluent/internal/health"
	"github.com/linguafluent/linguafluent/internal/identity"
	"github.com/linguafluent/linguafluent/internal/observe"
	"github.com/linguafluent/linguafluent/internal/orchestrator"
	"github.com/linguafluent/linguafluent/internal/store"
	"github.com/linguafluent/linguafluent/internal/store/postgres"
	"github.com/linguafluent/linguafluent/pkg/provider/stt"
	"github.com/linguafluent/linguafluent/pkg/provider/translate"
	"github.com/linguafluent/linguafluent/pkg/provider/tts"
)

// Providers holds the external engines a session can use. Nil fields are
// allowed; the affected capability reports unavailable at use time.
type Providers struct {
	STT       stt.Provider
	Translate translate.Provider
	TTS       tts.Provider
}

// App wires configuration, providers, storage and the session manager into
// a runnable service with an HTTP control surface.
type App struct {
	cfg       *config.Config
	providers *Providers
	sessions  *SessionManager
	server    *http.Server

	st      store.Store
	ident   identity.Provider
	metrics *observe.Metrics
	sink    orchestrator.AudioSink
	scorer  orchestrator.Scorer

	stopOnce sync.Once
	closers  []func(context.Context) error
}

// Option customizes an App, mostly to inject test doubles.
type Option func(*App)

// WithStore replaces the Postgres store built from configuration.
func WithStore(s store.Store) Option {
	return func(a *App) { a.st = s }
}

// WithIdentity replaces the identity provider built from configuration.
func WithIdentity(p identity.Provider) Option {
	return func(a *App) { a.ident = p }
}

// WithMetrics replaces the process-global metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithAudioSink sets the destination for synthesised audio.
func WithAudioSink(sink orchestrator.AudioSink) Option {
	return func(a *App) { a.sink = sink }
}

// WithScorer overrides the pipeline confidence scorer.
func WithScorer(s orchestrator.Scorer) Option {
	return func(a *App) { a.scorer = s }
}

// New builds an App from configuration and providers. Storage is optional:
// without a DSN (and without an injected store) sessions live only in memory.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	if providers == nil {
		providers = &Providers{}
	}

	a := &App{cfg: cfg, providers: providers}
	for _, opt := range opts {
		opt(a)
	}

	if a.st == nil && cfg.Storage.PostgresDSN != "" {
		st, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("app: connect storage: %w", err)
		}
		a.st = st
		a.closers = append(a.closers, func(context.Context) error {
			st.Close()
			return nil
		})
	}

	if a.ident == nil {
		a.ident = identity.Static{Identity: identity.Identity{
			ID:          cfg.Identity.UserID,
			DisplayName: cfg.Identity.DisplayName,
		}}
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	a.sessions = NewSessionManager(SessionManagerConfig{
		Config:    cfg,
		Providers: providers,
		Store:     a.st,
		Identity:  a.ident,
		Metrics:   a.metrics,
		Sink:      a.sink,
		Scorer:    a.scorer,
	})

	mux := http.NewServeMux()
	health.New(a.healthCheckers()...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	a.registerRoutes(mux)

	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// Sessions exposes the session manager, mainly for embedding callers.
func (a *App) Sessions() *SessionManager { return a.sessions }

func (a *App) healthCheckers() []health.Checker {
	checkers := []health.Checker{
		{
			Name: "translate",
			Check: func(context.Context) error {
				if a.providers.Translate == nil {
					return errors.New("no translation engine configured")
				}
				return nil
			},
		},
	}
	if a.st != nil {
		checkers = append(checkers, health.Checker{Name: "storage", Check: a.st.Ping})
	}
	return checkers
}

// Run serves the HTTP surface until ctx is cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown ends any active session and releases held resources. Safe to call
// more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		if a.sessions.IsActive() {
			if _, err := a.sessions.EndSession(ctx); err != nil {
				slog.Warn("ending session during shutdown", "err", err)
			}
		}
		for _, closer := range a.closers {
			if ctx.Err() != nil {
				slog.Warn("shutdown deadline reached, skipping remaining closers")
				errs = append(errs, ctx.Err())
				return
			}
			if err := closer(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
