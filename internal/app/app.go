// Package app wires the talktalk subsystems into a running service.
//
// New loads the lexicon, builds the pipeline and the HTTP server. Run serves
// until the context is cancelled, polling the config file alongside when a
// watcher is attached. Shutdown releases what New acquired.
//
// Tests inject doubles through functional options (WithLexicon,
// WithListener, ...). Anything not injected is built from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/talktalk/internal/api"
	"github.com/MrWong99/talktalk/internal/config"
	"github.com/MrWong99/talktalk/internal/generate"
	"github.com/MrWong99/talktalk/internal/health"
	"github.com/MrWong99/talktalk/internal/lexicon"
	"github.com/MrWong99/talktalk/internal/observe"
	"github.com/MrWong99/talktalk/internal/phoneme"
	"github.com/MrWong99/talktalk/internal/pipeline"
	"github.com/MrWong99/talktalk/internal/resilience"
	"github.com/MrWong99/talktalk/internal/score"
	"github.com/MrWong99/talktalk/internal/validate"
	"github.com/MrWong99/talktalk/pkg/provider/llm"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

// shutdownTimeout bounds the HTTP drain when Run's context is cancelled.
const shutdownTimeout = 15 * time.Second

// breakerReporter is implemented by LLM providers that sit behind circuit
// breakers, such as [resilience.LLMFallback].
type breakerReporter interface {
	States() []resilience.BreakerState
}

// App owns the lifetimes of the lexicon source, the pipeline and the HTTP
// server.
type App struct {
	cfg      *config.Config
	llm      llm.Provider
	llmName  string
	lex      *lexicon.Lexicon
	store    *lexicon.Store
	analyzer *phoneme.Analyzer
	metrics  *observe.Metrics
	gatherer prometheus.Gatherer
	levelVar *slog.LevelVar
	watcher  *config.Watcher
	listener net.Listener

	pipe   atomic.Pointer[pipeline.Pipeline]
	server *http.Server

	// closers run in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithLexicon injects the word tables instead of loading them from config.
func WithLexicon(l *lexicon.Lexicon) Option {
	return func(a *App) { a.lex = l }
}

// WithMetrics records to m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithGatherer serves /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) { a.gatherer = g }
}

// WithLevelVar lets config reloads change the log level through v.
func WithLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.levelVar = v }
}

// WithWatcher runs w alongside the HTTP server. Its callback should call
// [App.ApplyConfig].
func WithWatcher(w *config.Watcher) Option {
	return func(a *App) { a.watcher = w }
}

// WithListener serves on ln instead of listening on server.listen_addr.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// WithLLMName labels LLM metrics. Default: providers.llm.name.
func WithLLMName(name string) Option {
	return func(a *App) { a.llmName = name }
}

// New creates an App. provider is the fully assembled LLM (fallbacks
// included) built by the caller from the config registry.
func New(ctx context.Context, cfg *config.Config, provider llm.Provider, opts ...Option) (*App, error) {
	if provider == nil {
		return nil, errors.New("app: llm provider is required")
	}
	a := &App{
		cfg:     cfg,
		llm:     provider,
		llmName: cfg.Providers.LLM.Name,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.gatherer == nil {
		a.gatherer = prometheus.DefaultGatherer
	}

	// ── 1. Lexicon ───────────────────────────────────────────────────────
	if err := a.initLexicon(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init lexicon: %w", err)
	}

	// ── 2. Phoneme analyzer ──────────────────────────────────────────────
	dict, err := loadDictionary(cfg.Lexicon.DictionaryPath)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: load pronunciation dictionary: %w", err)
	}
	a.analyzer = phoneme.NewAnalyzer(dict)

	// ── 3. Pipeline ──────────────────────────────────────────────────────
	a.pipe.Store(a.buildPipeline(cfg.Pipeline))

	// ── 4. HTTP server ───────────────────────────────────────────────────
	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	words, forbidden := a.lex.Size()
	slog.Info("app initialised",
		"lexicon_source", cmpSource(cfg.Lexicon.Source),
		"lexicon_words", words,
		"forbidden_words", forbidden,
		"dictionary_words", dict.Len(),
	)
	return a, nil
}

func loadDictionary(path string) (*phoneme.Dictionary, error) {
	if path == "" {
		return phoneme.DefaultDictionary()
	}
	return phoneme.LoadDictionaryFile(path)
}

func cmpSource(s config.LexiconSource) config.LexiconSource {
	if s == "" {
		return config.LexiconEmbedded
	}
	return s
}

func (a *App) initLexicon(ctx context.Context) error {
	if a.lex != nil {
		return nil
	}
	if a.cfg.Lexicon.Source != config.LexiconPostgres {
		lex, err := lexicon.Default()
		if err != nil {
			return err
		}
		a.lex = lex
		return nil
	}

	store, err := lexicon.NewStore(ctx, a.cfg.Lexicon.PostgresDSN)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, func() error { store.Close(); return nil })

	if a.cfg.Lexicon.Seed {
		data, err := lexicon.EmbeddedData()
		if err != nil {
			return err
		}
		if err := store.Seed(ctx, data); err != nil {
			return err
		}
		slog.Info("lexicon seeded from embedded snapshot", "words", len(data.Words))
	}
	lex, err := store.Load(ctx)
	if err != nil {
		return err
	}
	a.lex = lex
	return nil
}

// buildPipeline assembles a pipeline for pc. The lexicon and analyzer are
// shared between rebuilds.
func (a *App) buildPipeline(pc config.PipelineConfig) *pipeline.Pipeline {
	genOpts := []generate.Option{
		generate.WithMetrics(a.metrics),
		generate.WithProviderName(a.llmName),
	}
	if pc.Temperature > 0 {
		genOpts = append(genOpts, generate.WithTemperature(pc.Temperature))
	}
	if pc.MaxTokens > 0 {
		genOpts = append(genOpts, generate.WithMaxTokens(pc.MaxTokens))
	}

	var valOpts []validate.Option
	if pc.Guardrail {
		valOpts = append(valOpts, validate.WithGuardrail(a.lex))
	}

	return pipeline.New(
		generate.New(a.llm, genOpts...),
		validate.New(a.analyzer, valOpts...),
		score.New(a.lex),
		pipeline.WithConfig(PipelineConfig(pc)),
		pipeline.WithMetrics(a.metrics),
	)
}

// PipelineConfig converts the YAML pipeline section to pipeline tuning.
func PipelineConfig(pc config.PipelineConfig) pipeline.Config {
	return pipeline.Config{
		MaxAttempts: pc.MaxAttempts,
		Oversample:  pc.Oversample,
		BatchFactor: pc.BatchFactor,
		Diversify:   pc.Diversify,
		MaxSimilar:  pc.MaxSimilar,
	}
}

func (a *App) handler() http.Handler {
	checkers := []health.Checker{health.LexiconLoaded(a.lex.Size)}
	if a.store != nil {
		checkers = append(checkers, health.Ping("postgres", a.store))
	}
	if br, ok := a.llm.(breakerReporter); ok {
		checkers = append(checkers, health.Breakers(br.States))
	}

	return api.New(a,
		api.WithHealth(health.New(checkers...)),
		api.WithMetrics(a.metrics),
		api.WithGatherer(a.gatherer),
		api.WithAllowedOrigins(a.cfg.Server.AllowedOrigins),
		api.WithRequestTimeout(a.cfg.Server.RequestTimeout),
	).Handler()
}

// Run implements [api.Runner] by delegating to the current pipeline.
func (a *App) Run(ctx context.Context, req *therapy.Request) (*pipeline.Result, error) {
	return a.pipe.Load().Run(ctx, req)
}

// Pipeline returns the pipeline serving new requests.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipe.Load()
}

// ─── Serve ───────────────────────────────────────────────────────────────────

// Serve runs the HTTP server, and the config watcher if one is attached,
// until ctx is cancelled. It returns ctx.Err() after a clean drain, or the
// first error from the server or the watcher.
func (a *App) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		tls := a.cfg.Server.TLS
		switch {
		case a.listener != nil && tls != nil:
			err = a.server.ServeTLS(a.listener, tls.CertFile, tls.KeyFile)
		case a.listener != nil:
			err = a.server.Serve(a.listener)
		case tls != nil:
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		default:
			err = a.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: http server: %w", err)
	})

	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(sctx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})

	slog.Info("app serving", "addr", a.addr(), "tls", a.cfg.Server.TLS != nil)
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (a *App) addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.server.Addr
}

// ─── Hot reload ──────────────────────────────────────────────────────────────

// ApplyConfig applies the hot-reloadable part of a config change. It is
// meant to be the [config.Watcher] callback.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.levelVar != nil {
		a.levelVar.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}

	if d.PipelineChanged {
		if needsRebuild(old.Pipeline, d.NewPipeline) {
			a.pipe.Store(a.buildPipeline(d.NewPipeline))
			slog.Info("pipeline rebuilt", "pipeline", fmt.Sprintf("%+v", d.NewPipeline))
		} else {
			a.pipe.Load().SetConfig(PipelineConfig(d.NewPipeline))
			slog.Info("pipeline tuning updated", "pipeline", fmt.Sprintf("%+v", d.NewPipeline))
		}
	}

	for _, field := range d.RestartRequired {
		slog.Warn("config change requires a restart to take effect", "field", field)
	}
}

// needsRebuild reports whether a change touches the generator or validator
// rather than only the loop tuning.
func needsRebuild(old, new config.PipelineConfig) bool {
	return old.Guardrail != new.Guardrail ||
		old.Temperature != new.Temperature ||
		old.MaxTokens != new.MaxTokens
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown releases the lexicon store and any other acquired resources. It
// respects the context deadline; closers not yet run when ctx expires are
// skipped.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

func (a *App) closeAll() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}
