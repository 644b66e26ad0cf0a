// Package session assembles one directory session: the query state
// container, the loading controller and the address syncer, started in the
// order the address protocol requires.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/teamdir/internal/config"
	"github.com/roach88/teamdir/internal/engine"
	"github.com/roach88/teamdir/internal/metrics"
	"github.com/roach88/teamdir/internal/notify"
	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/source"
	"github.com/roach88/teamdir/internal/urlsync"
)

// PreferenceStore persists the part of a session that survives restarts.
// *store.Store implements it.
type PreferenceStore interface {
	LoadPreferences(ctx context.Context) (roster.Preferences, error)
	SavePreferences(ctx context.Context, p roster.Preferences) error
}

// Session is one running directory view.
//
// Lifecycle: New → Start → (mutations, Settle)* → Close.
type Session struct {
	state      *engine.Container
	controller *engine.Controller
	syncer     *urlsync.Syncer
	prefs      PreferenceStore
	logger     *slog.Logger

	mu      sync.Mutex
	latest  roster.Preferences
	dirty   bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
	closed  bool
}

type options struct {
	prefs    PreferenceStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	ids      engine.RequestIDGenerator
}

// Option configures a Session.
type Option func(*options)

// WithPreferenceStore restores preferences from p and saves them on Close.
func WithPreferenceStore(p PreferenceStore) Option {
	return func(o *options) { o.prefs = p }
}

// WithNotifier sets where user notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger for every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRequestIDs sets the load correlation ID generator.
func WithRequestIDs(g engine.RequestIDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// New builds a session loading from src and synchronized with addr.
// Preferences come from the preference store if one is given, otherwise
// from cfg.
func New(ctx context.Context, cfg config.DirectoryConfig, src source.Source, addr urlsync.Address, opts ...Option) (*Session, error) {
	o := options{
		notifier: notify.Discard,
		logger:   slog.Default(),
		ids:      engine.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	prefs := roster.Preferences{ViewMode: roster.ViewTable, PageSize: cfg.PageSize}
	if o.prefs != nil {
		stored, err := o.prefs.LoadPreferences(ctx)
		if err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		prefs = stored
	}

	s := &Session{
		prefs:  o.prefs,
		logger: o.logger,
		latest: prefs,
	}
	s.state = engine.NewContainer(
		engine.WithPreferences(prefs),
		engine.WithMaxSearchLength(cfg.MaxSearchLength),
		engine.WithPreferencesHook(s.preferencesChanged),
		engine.WithLogger(o.logger),
	)
	s.controller = engine.NewController(s.state, src,
		engine.WithRequestIDs(o.ids),
		engine.WithNotifier(o.notifier),
		engine.WithMetrics(o.metrics),
		engine.WithControllerLogger(o.logger),
		engine.WithSlowRequestWarning(cfg.RequestWarningAfter),
	)
	s.syncer = urlsync.New(s.state, addr,
		urlsync.WithNotifier(o.notifier),
		urlsync.WithMetrics(o.metrics),
		urlsync.WithLogger(o.logger),
	)
	return s, nil
}

// State returns the session's container. Callers mutate the session
// through it.
func (s *Session) State() *engine.Container { return s.state }

// Controller returns the loading controller.
func (s *Session) Controller() *engine.Controller { return s.controller }

// Snapshot returns the current state.
func (s *Session) Snapshot() engine.State { return s.state.Snapshot() }

// Start hydrates the session from its address and then starts loading and
// address propagation in the background. The loops stop when ctx is done
// or Close is called.
func (s *Session) Start(ctx context.Context) (urlsync.Report, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return urlsync.Report{}, errors.New("session already started")
	}
	s.started = true
	s.mu.Unlock()

	report, err := s.syncer.Hydrate(ctx)
	if err != nil {
		return report, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return s.controller.Run(gctx) })
	g.Go(func() error { return s.syncer.Run(gctx) })

	s.mu.Lock()
	s.cancel = cancel
	s.group = g
	s.mu.Unlock()
	return report, nil
}

// Settle waits until no load is pending and the address shows the
// settled state.
func (s *Session) Settle(ctx context.Context) error {
	if err := s.controller.Settle(ctx); err != nil {
		return err
	}
	return s.syncer.Flush(ctx)
}

// Retry reissues the current query after a failure.
func (s *Session) Retry(ctx context.Context) error {
	return s.controller.Retry(ctx)
}

// Close stops the background loops and saves preferences if they changed.
// Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, g := s.cancel, s.group
	s.mu.Unlock()

	var errs []error
	if cancel != nil {
		cancel()
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}
	if err := s.SavePreferences(context.Background()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SavePreferences writes changed preferences to the preference store.
func (s *Session) SavePreferences(ctx context.Context) error {
	s.mu.Lock()
	prefs, dirty := s.latest, s.dirty
	s.dirty = false
	s.mu.Unlock()

	if s.prefs == nil || !dirty {
		return nil
	}
	if err := s.prefs.SavePreferences(ctx, prefs); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("save preferences: %w", err)
	}
	s.logger.Debug("preferences saved", "view", prefs.ViewMode, "page_size", prefs.PageSize)
	return nil
}

func (s *Session) preferencesChanged(p roster.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = p
	s.dirty = true
}
