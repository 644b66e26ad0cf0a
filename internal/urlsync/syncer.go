package urlsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/roach88/teamdir/internal/engine"
	"github.com/roach88/teamdir/internal/metrics"
	"github.com/roach88/teamdir/internal/notify"
	"github.com/roach88/teamdir/internal/roster"
)

var (
	// ErrNotHydrated is returned by Externalize and Run before Hydrate has
	// completed.
	ErrNotHydrated = errors.New("urlsync: address not hydrated")
	// ErrAlreadyHydrated is returned by every Hydrate call after the first.
	ErrAlreadyHydrated = errors.New("urlsync: address already hydrated")
)

const (
	phaseNew int32 = iota
	phaseHydrating
	phaseHydrated
)

// Report describes what Hydrate found in the address.
type Report struct {
	Role    roster.Role
	Search  string
	Page    int      // 0 when absent or invalid
	Invalid []string // discarded parameter names, in read order
	// Cleaned is true if the address was rewritten to drop Invalid.
	Cleaned bool
}

// Syncer runs the two-phase address protocol for one session.
type Syncer struct {
	state    *engine.Container
	addr     Address
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	phase   atomic.Int32
	syncing sync.Mutex
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithNotifier sets where the invalid-link notice goes.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Syncer) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMetrics records discarded parameters and address rewrites.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a syncer between state and addr.
func New(state *engine.Container, addr Address, opts ...Option) *Syncer {
	s := &Syncer{
		state:    state,
		addr:     addr,
		notifier: notify.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrated reports whether Hydrate has completed.
func (s *Syncer) Hydrated() bool {
	return s.phase.Load() == phaseHydrated
}

// Hydrate applies the address to the container. It runs once; later calls
// return ErrAlreadyHydrated.
//
// Invalid role or page values are discarded. If any were, one
// InvalidLinkParams notice is published and the address is replaced with
// the same query minus the invalid parameters. A failed replace is logged;
// validation problems never fail hydration.
func (s *Syncer) Hydrate(ctx context.Context) (Report, error) {
	if !s.phase.CompareAndSwap(phaseNew, phaseHydrating) {
		return Report{}, ErrAlreadyHydrated
	}
	defer s.phase.Store(phaseHydrated)

	raw := s.addr.RawQuery()
	values, err := url.ParseQuery(raw)
	if err != nil {
		// ParseQuery keeps every pair it could decode.
		s.logger.Warn("malformed address query", "query", raw, "error", err)
	}

	var report Report
	if v := values.Get(ParamRole); v != "" {
		if r, err := roster.ParseRole(v); err == nil {
			report.Role = r
		} else {
			s.discard(&report, ParamRole, v)
		}
	}
	report.Search = values.Get(ParamSearch)
	if v := values.Get(ParamPage); v != "" {
		if n, ok := parsePage(v, s.state.Snapshot().PageSize); ok {
			report.Page = n
		} else {
			s.discard(&report, ParamPage, v)
		}
	}

	// Role and search reset the page, so the page goes last.
	if report.Role != roster.NoRole {
		s.state.SetSelectedRole(report.Role)
	}
	if report.Search != "" {
		s.state.SetSearchTerm(report.Search)
	}
	if report.Page > 0 {
		s.state.SetCurrentPage(report.Page)
	}

	if len(report.Invalid) == 0 {
		return report, nil
	}

	s.notifier.Notify(notify.InvalidLinkParams)
	for _, name := range report.Invalid {
		values.Del(name)
	}
	cleaned := values.Encode()
	if cleaned == raw {
		return report, nil
	}
	if err := s.addr.Replace(ctx, cleaned); err != nil {
		s.logger.Error("failed to clean address", "query", cleaned, "error", err)
		return report, nil
	}
	s.metrics.AddressReplaced()
	report.Cleaned = true
	return report, nil
}

func (s *Syncer) discard(report *Report, name, value string) {
	report.Invalid = append(report.Invalid, name)
	s.metrics.InvalidParam(name)
	s.logger.Warn("discarded address parameter", "param", name, "value", value)
}

// Externalize writes the container's role, search and page into the
// address, keeping its other parameters. The address is replaced only if
// the encoded query changes.
//
// Externalize is not reentrant: a call made while another is replacing the
// address returns nil immediately. The pending call reads the snapshot it
// started with; the next change signal reconciles anything newer.
func (s *Syncer) Externalize(ctx context.Context) error {
	if !s.Hydrated() {
		return ErrNotHydrated
	}
	if !s.syncing.TryLock() {
		return nil
	}
	defer s.syncing.Unlock()
	return s.externalizeLocked(ctx)
}

// Flush is Externalize that waits for a pending replace instead of
// returning early, so the address reflects the state as of the call.
func (s *Syncer) Flush(ctx context.Context) error {
	if !s.Hydrated() {
		return ErrNotHydrated
	}
	s.syncing.Lock()
	defer s.syncing.Unlock()
	return s.externalizeLocked(ctx)
}

func (s *Syncer) externalizeLocked(ctx context.Context) error {
	current, _ := url.ParseQuery(s.addr.RawQuery())
	next := merge(current, s.state.Snapshot()).Encode()
	if next == current.Encode() {
		return nil
	}
	if err := s.addr.Replace(ctx, next); err != nil {
		return fmt.Errorf("replace address: %w", err)
	}
	s.metrics.AddressReplaced()
	s.logger.Debug("address updated", "query", next)
	return nil
}

// Run externalizes after every container change until ctx is done. It
// returns ErrNotHydrated if Hydrate has not completed. Replace failures
// are logged and do not stop the loop.
func (s *Syncer) Run(ctx context.Context) error {
	if !s.Hydrated() {
		return ErrNotHydrated
	}
	changes, cancel := s.state.Subscribe()
	defer cancel()

	for {
		if err := s.Externalize(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("failed to update address", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}
	}
}
