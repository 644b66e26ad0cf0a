package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/teamdir/internal/metrics"
	"github.com/roach88/teamdir/internal/notify"
	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/source"
)

// DefaultSlowRequestWarning is how long a load may stay pending before the
// user is warned.
const DefaultSlowRequestWarning = 30 * time.Second

// Controller drives a Source from a Container.
//
// It turns the current state into load requests, merges results back
// through the accumulation policy, runs backfill chains for direct
// navigation, and converts every failure into State.Error. Results are
// tagged with the epoch issued when the load began; the container drops
// any result whose epoch has been superseded.
//
// Thread-safety model:
//   - Load(), Retry(): safe from any goroutine
//   - Run(): at most one goroutine per controller
//   - Settle(): safe from any goroutine while Run is active
type Controller struct {
	state     *Container
	source    source.Source
	ids       RequestIDGenerator
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	warnAfter time.Duration

	mu          sync.Mutex
	last        Epoch    // epoch of the most recently issued load
	backfilling *loadKey // non-nil while a backfill chain is in flight
	running     int      // loads in flight
	events      *changeFeed
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithRequestIDs sets the correlation ID generator.
func WithRequestIDs(g RequestIDGenerator) ControllerOption {
	return func(c *Controller) {
		c.ids = g
	}
}

// WithNotifier sets where slow-request warnings go.
func WithNotifier(n notify.Notifier) ControllerOption {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithSlowRequestWarning sets how long a load may stay pending before the
// warning notice is sent. Zero or negative disables the warning.
func WithSlowRequestWarning(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.warnAfter = d
	}
}

// NewController creates a controller loading from src into state.
func NewController(state *Container, src source.Source, opts ...ControllerOption) *Controller {
	c := &Controller{
		state:     state,
		source:    src,
		ids:       UUIDv7Generator{},
		notifier:  notify.Discard,
		logger:    slog.Default(),
		warnAfter: DefaultSlowRequestWarning,
		last:      -1,
		events:    newChangeFeed(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request is one load as issued: the query snapshot taken with its epoch.
// A backfill request fetches pages from..query.Page in order.
type request struct {
	id       string
	epoch    Epoch
	query    roster.Query
	key      loadKey
	from     int
	backfill bool
}

// Load fetches what the current state asks for and merges the result. It
// blocks until the load (or backfill chain) completes.
//
// The returned error is informational: the failure has already been
// recorded in State.Error. A load whose result was superseded returns nil.
// Load returns nil without loading when a backfill chain for the same query
// is already in flight.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	req, ok := c.beginLocked(false)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	defer c.finish()
	return c.execute(ctx, req)
}

// Retry clears the current error and reissues the current query. In grid
// view a chain that failed part-way resumes at the first page it did not
// merge.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	req, ok := c.beginLocked(true)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	c.logger.Info("retrying load", "request_id", req.id, "page", req.query.Page)
	defer c.finish()
	return c.execute(ctx, req)
}

// Run loads automatically whenever the state changes in a way that
// invalidates the last load, until ctx is done. While State.Error is set no
// automatic load is issued; Retry resumes loading. A search or role change
// made meanwhile still clears the list and sets IsLoading, and the state
// stays that way, with nothing in flight, until the retry. Run waits for
// its own in-flight loads before returning.
func (c *Controller) Run(ctx context.Context) error {
	changes, cancelChanges := c.state.Subscribe()
	defer cancelChanges()
	events, cancelEvents := c.events.subscribe()
	defer cancelEvents()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if req, ok := c.next(); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer c.finish()
				_ = c.execute(ctx, req)
			}()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		case <-events:
		}
	}
}

// Settle blocks until Run has no load in flight and nothing left to load,
// or ctx is done.
func (c *Controller) Settle(ctx context.Context) error {
	changes, cancelChanges := c.state.Subscribe()
	defer cancelChanges()
	events, cancelEvents := c.events.subscribe()
	defer cancelEvents()

	for !c.idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		case <-events:
		}
	}
	return nil
}

// next issues the automatic load the state calls for, if any.
func (c *Controller) next() (request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wantsLoadLocked() {
		return request{}, false
	}
	return c.beginLocked(false)
}

func (c *Controller) idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running == 0 && !c.wantsLoadLocked()
}

// wantsLoadLocked reports whether the state has changed since the last
// issued load and no error is halting automatic loads.
func (c *Controller) wantsLoadLocked() bool {
	if c.state.Snapshot().Error != "" {
		return false
	}
	return c.state.Epoch() != c.last
}

// beginLocked issues a load for the current state. It must be called with
// c.mu held. A load for the key a backfill chain is already building is
// suppressed so it cannot interleave with the chain.
func (c *Controller) beginLocked(retry bool) (request, bool) {
	if c.backfilling != nil && *c.backfilling == c.state.Snapshot().key() {
		c.logger.Debug("load suppressed during backfill", "page", c.backfilling.query.Page)
		return request{}, false
	}

	epoch, snap, from := c.state.beginLoad(retry)
	req := request{
		id:       c.ids.Generate(),
		epoch:    epoch,
		query:    snap.Query(),
		key:      snap.key(),
		from:     from,
		backfill: from < snap.CurrentPage,
	}
	if req.backfill {
		key := req.key
		c.backfilling = &key
	}
	c.last = epoch
	c.running++
	return req, true
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.running--
	c.mu.Unlock()
	c.events.publish()
}

func (c *Controller) execute(ctx context.Context, req request) error {
	stop := c.watch(req)
	defer stop()

	c.logger.Debug("load started",
		"request_id", req.id,
		"epoch", int64(req.epoch),
		"page", req.query.Page,
		"from", req.from,
		"backfill", req.backfill,
	)

	if req.backfill {
		return c.backfill(ctx, req)
	}

	page, err := c.fetch(ctx, req, req.query)
	if err != nil {
		return c.failed(ctx, req, req.query.Page, ErrCodeSource, err)
	}
	c.commit(req, page, req.query.Page, true)
	return nil
}

// fetch calls the source for q on behalf of req.
func (c *Controller) fetch(ctx context.Context, req request, q roster.Query) (roster.Page, error) {
	start := time.Now()
	page, err := c.source.Load(source.WithRequestID(ctx, req.id), q)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	c.metrics.ObserveLoad(outcome, time.Since(start))
	return page, err
}

// commit merges page into the container. It reports false if the result
// was superseded.
func (c *Controller) commit(req request, page roster.Page, requested int, final bool) bool {
	merge, ok := c.state.commit(req.epoch, page, requested, final)
	if !ok {
		c.metrics.ObserveLoad(metrics.OutcomeStale, 0)
		c.logger.Debug("discarded stale result",
			"request_id", req.id,
			"epoch", int64(req.epoch),
			"page", requested,
		)
		return false
	}
	c.logger.Debug("merged page",
		"request_id", req.id,
		"page", requested,
		"merge", string(merge),
		"received", len(page.Members),
		"total", page.Info.TotalCount,
	)
	return true
}

// failed records a source failure. Failures caused by ctx ending are not
// recorded: the session is going away, not the source.
func (c *Controller) failed(ctx context.Context, req request, page int, code LoadErrorCode, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}

	msg := errorMessage(err)
	if !c.state.fail(req.epoch, msg) {
		c.metrics.ObserveLoad(metrics.OutcomeStale, 0)
		c.logger.Debug("discarded stale failure", "request_id", req.id, "error", msg)
		return nil
	}

	c.logger.Warn("load failed",
		"request_id", req.id,
		"page", page,
		"code", string(code),
		"error", msg,
	)
	return &LoadError{
		Code:      code,
		Message:   msg,
		RequestID: req.id,
		Page:      page,
		Err:       err,
	}
}

// watch arms the slow-request warning for req. The returned func disarms it.
func (c *Controller) watch(req request) func() {
	if c.warnAfter <= 0 {
		return func() {}
	}
	t := time.AfterFunc(c.warnAfter, func() {
		if !c.state.pending(req.epoch) {
			return
		}
		c.metrics.SlowRequest()
		c.logger.Warn("load still pending",
			"request_id", req.id,
			"after", c.warnAfter,
		)
		c.notifier.Notify(notify.SlowRequest)
	})
	return func() { t.Stop() }
}
