// Package app wires the elocute subsystems into a running server.
//
// New builds every subsystem from the config, Run serves HTTP until the
// context ends, and Shutdown releases stores in order. Tests inject doubles
// through functional options.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/health"
	"github.com/MrWong99/elocute/internal/history"
	"github.com/MrWong99/elocute/internal/history/postgres"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/recording"
	"github.com/MrWong99/elocute/internal/render"
	"github.com/MrWong99/elocute/internal/resilience"
	"github.com/MrWong99/elocute/internal/session"
	"github.com/MrWong99/elocute/internal/web"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// readiness is implemented by the analyzer guard.
type readiness interface {
	Ready() bool
}

// App owns all subsystem lifetimes.
type App struct {
	cfg      *config.Config
	registry *config.Registry
	level    *slog.LevelVar
	watcher  *config.Watcher

	analyzer   analysis.Analyzer
	ready      readiness
	history    history.Store
	recordings *recording.Store
	manager    *session.Manager
	metrics    *observe.Metrics
	gatherer   prometheus.Gatherer
	server     *web.Server
	listener   net.Listener

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option configures New. Use these to inject test doubles.
type Option func(*App)

// WithAnalyzer replaces the registry-built analyzer chain.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(app *App) { app.analyzer = a }
}

// WithHistoryStore injects a history store instead of opening one from
// config.
func WithHistoryStore(s history.Store) Option {
	return func(app *App) { app.history = s }
}

// WithRegistry replaces the registry of built-in analyzers and coaches.
func WithRegistry(r *config.Registry) Option {
	return func(app *App) { app.registry = r }
}

// WithLevelVar lets config reloads change the level of the installed logger.
func WithLevelVar(v *slog.LevelVar) Option {
	return func(app *App) { app.level = v }
}

// WithWatcher applies live edits of the config file while Run is active.
func WithWatcher(w *config.Watcher) Option {
	return func(app *App) { app.watcher = w }
}

// WithMetrics records metrics on m instead of the global meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(app *App) { app.metrics = m }
}

// WithGatherer serves g at /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(app *App) { app.gatherer = g }
}

// WithListener serves on l instead of listening on server.listen_addr.
func WithListener(l net.Listener) Option {
	return func(app *App) { app.listener = l }
}

// New creates an App by wiring all subsystems together.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.registry == nil {
		a.registry = config.NewRegistry()
		RegisterBuiltins(a.registry)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.gatherer == nil {
		a.gatherer = prometheus.DefaultGatherer
	}

	if err := a.initAnalyzer(); err != nil {
		return nil, fmt.Errorf("app: init analyzer: %w", err)
	}
	if err := a.initStores(ctx); err != nil {
		return nil, fmt.Errorf("app: init stores: %w", err)
	}

	var mopts []session.Option
	mopts = append(mopts, session.WithMetrics(a.metrics))
	if cfg.Visemes.Placeholder != "" {
		mopts = append(mopts, session.WithPlaceholder(cfg.Visemes.Placeholder))
	}
	a.manager = session.NewManager(cfg.Visualizer, mopts...)
	a.closers = append(a.closers, func() error { a.manager.Close(); return nil })

	renderer, err := render.NewHTML()
	if err != nil {
		return nil, fmt.Errorf("app: init renderer: %w", err)
	}

	a.server = web.New(web.Deps{
		Manager:        a.manager,
		Analyzer:       a.analyzer,
		AnalyzerName:   cfg.Analyzer.Name,
		Recordings:     a.recordings,
		History:        a.history,
		Renderer:       renderer,
		Metrics:        a.metrics,
		Health:         health.New(a.checkers()...),
		MetricsHandler: observe.MetricsHandler(a.gatherer),
		StaticDir:      cfg.Server.StaticDir,
		VisemeDir:      cfg.Visemes.ImageDir,
	})
	return a, nil
}

func (a *App) initAnalyzer() error {
	if a.analyzer != nil {
		if r, ok := a.analyzer.(readiness); ok {
			a.ready = r
		}
		return nil
	}
	an, ready, err := buildAnalyzer(a.cfg, a.registry)
	if err != nil {
		return err
	}
	a.analyzer, a.ready = an, ready
	return nil
}

func (a *App) initStores(ctx context.Context) error {
	recs, err := recording.NewStore(a.cfg.Recordings.Dir)
	if err != nil {
		return err
	}
	a.recordings = recs

	if a.history == nil {
		switch a.cfg.History.Backend {
		case config.HistoryPostgres:
			store, err := postgres.NewStore(ctx, a.cfg.History.PostgresDSN)
			if err != nil {
				return err
			}
			a.history = store
		default:
			a.history = history.NewFileStore(a.cfg.History.Path)
		}
	}
	a.history = history.NewGuard(a.history)
	a.closers = append(a.closers, a.history.Close)
	slog.Info("stores ready", "recordings", recs.Dir(), "history", a.cfg.History.Backend)
	return nil
}

func (a *App) checkers() []health.Checker {
	checks := []health.Checker{{Name: "history", Check: a.history.Ping}}
	if a.ready != nil {
		checks = append(checks, health.Ready("analyzer", a.ready.Ready, "analyzer circuit open"))
	}
	return checks
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Manager returns the practice context.
func (a *App) Manager() *session.Manager { return a.manager }

// Run serves HTTP until ctx is cancelled, then shuts the server down. When a
// watcher is configured, reloads are applied while serving.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			slog.Info("serving https", "addr", ln.Addr().String())
			err = srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("serving http", "addr", ln.Addr().String())
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}
	return g.Wait()
}

// ApplyConfig applies the hot-reloadable parts of a changed config. It is the
// watcher's change callback.
func (a *App) ApplyConfig(_, next *config.Config, d config.ConfigDiff) {
	if d.LogLevelChanged && a.level != nil {
		a.level.Set(LevelFor(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.VisualizerChanged {
		a.manager.SetVisualizer(next.Visualizer)
		slog.Info("visualizer settings changed", "bar_count", next.Visualizer.BarCount)
	}
	if d.PlaceholderChanged {
		a.manager.SetPlaceholder(next.Visemes.Placeholder)
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes need a restart", "sections", d.RestartRequired)
	}
}

// Shutdown releases all subsystems. If ctx expires, remaining closers are
// skipped and the context error is returned.
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

// LevelFor converts a config log level to a slog level.
func LevelFor(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newGuard(cfg *config.Config, primary analysis.Analyzer) *resilience.AnalyzerGuard {
	b := cfg.Analyzer.Breaker
	return resilience.NewAnalyzerGuard(cfg.Analyzer.Name, primary, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  b.MaxFailures,
			ResetTimeout: b.ResetTimeout,
			HalfOpenMax:  b.HalfOpenMax,
			OnStateChange: func(name string, from, to resilience.State) {
				slog.Warn("analyzer breaker state changed", "analyzer", name, "from", from.String(), "to", to.String())
			},
		},
	})
}
