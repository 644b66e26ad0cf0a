package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roach88/teamdir/internal/config"
	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/session"
	"github.com/roach88/teamdir/internal/testutil"
	"github.com/roach88/teamdir/internal/urlsync"
)

// settleTimeout bounds how long a step may take to settle.
const settleTimeout = 5 * time.Second

// Harness is the test execution engine for one scenario run.
type Harness struct {
	session *session.Session
	source  *testutil.ScriptedSource
	address *urlsync.MemoryAddress
	notices *testutil.NoticeRecorder

	calls   int // source calls already attributed to a step
	noticed int // notices already attributed to a step
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh session over a zero-delay source, sequential
// request IDs and an in-memory address. An error means the scenario could
// not be run; assertion failures are reported in Result.
func Run(scenario *Scenario) (*Result, error) {
	addr := scenario.Address
	if addr == "" {
		addr = DefaultAddress
	}
	address, err := urlsync.NewMemoryAddress(addr)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		source:  testutil.NewScriptedSource(scenario.Dataset.members()),
		address: address,
		notices: &testutil.NoticeRecorder{},
	}

	prefs := scenario.Preferences.preferences()
	cfg := config.DirectoryConfig{
		PageSize:        prefs.PageSize,
		MaxSearchLength: roster.MaxSearchLength,
	}
	ctx := context.Background()
	h.session, err = session.New(ctx, cfg, h.source, address,
		session.WithPreferenceStore(&fixedPreferences{prefs: prefs}),
		session.WithNotifier(h.notices),
		session.WithRequestIDs(testutil.NewSequentialIDs("req")),
		session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer h.session.Close()

	result := NewResult()
	if _, err := h.session.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if err := h.record(result, 0, "start", addr); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		detail, err := h.apply(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		if err := h.record(result, i+1, step.Action, detail); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}

	result.Pages = h.source.Pages()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// apply performs step and returns its trace detail.
func (h *Harness) apply(ctx context.Context, step Step) (string, error) {
	state := h.session.State()
	switch step.Action {
	case ActionSetSearch:
		state.SetSearchTerm(step.Search)
		return step.Search, nil
	case ActionSetRole:
		state.SetSelectedRole(roster.Role(step.Role))
		return step.Role, nil
	case ActionSetSort:
		state.SetSorting(roster.SortField(step.SortBy), roster.SortOrder(step.SortOrder))
		return strings.TrimPrefix(step.SortBy+":"+step.SortOrder, ":"), nil
	case ActionSetPage:
		state.SetCurrentPage(step.Page)
		return strconv.Itoa(step.Page), nil
	case ActionSetPageSize:
		state.SetPageSize(step.PageSize)
		return strconv.Itoa(step.PageSize), nil
	case ActionSetView:
		state.SetViewMode(roster.ViewMode(step.View))
		return step.View, nil
	case ActionClearFilters:
		state.ClearFilters()
		return "", nil
	case ActionLoad:
		// Load failures are recorded in the state; the trace shows them.
		_ = h.session.Controller().Load(ctx)
		return "", nil
	case ActionRetry:
		_ = h.session.Retry(ctx)
		return "", nil
	case ActionFailNext:
		h.source.FailNextMessage(step.Message)
		return step.Message, nil
	}
	return "", fmt.Errorf("unknown action %q", step.Action)
}

// record settles the session and appends a trace event for everything
// that happened since the previous event.
func (h *Harness) record(result *Result, n int, action, detail string) error {
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	if err := h.session.Settle(ctx); err != nil {
		return fmt.Errorf("session did not settle: %w", err)
	}

	event := TraceEvent{
		Step:   n,
		Action: action,
		Detail: detail,
		State:  h.snapshot(),
	}

	calls := h.source.Calls()
	for _, q := range calls[h.calls:] {
		event.Loads = append(event.Loads, formatQuery(q))
	}
	h.calls = len(calls)

	titles := h.notices.Titles()
	event.Notices = append(event.Notices, titles[h.noticed:]...)
	h.noticed = len(titles)

	result.Trace = append(result.Trace, event)
	return nil
}

func (h *Harness) snapshot() Snapshot {
	s := h.session.Snapshot()
	return Snapshot{
		Address:  h.address.String(),
		Visible:  roster.IDs(s.Members),
		Total:    s.TotalCount,
		Page:     s.CurrentPage,
		PageSize: s.PageSize,
		View:     string(s.ViewMode),
		Loading:  s.IsLoading,
		Error:    s.Error,
	}
}

// formatQuery renders a source call compactly, omitting unset filters.
func formatQuery(q roster.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "page=%d limit=%d", q.Page, q.PageSize)
	if q.Role != roster.NoRole {
		fmt.Fprintf(&b, " role=%s", q.Role)
	}
	if q.Search != "" {
		fmt.Fprintf(&b, " search=%s", q.Search)
	}
	if q.SortBy != roster.NoSort {
		fmt.Fprintf(&b, " sort=%s:%s", q.SortBy, q.SortOrder)
	}
	return b.String()
}

// fixedPreferences restores the scenario's preferences and discards saves.
type fixedPreferences struct {
	mu    sync.Mutex
	prefs roster.Preferences
}

func (p *fixedPreferences) LoadPreferences(context.Context) (roster.Preferences, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs, nil
}

func (p *fixedPreferences) SavePreferences(_ context.Context, prefs roster.Preferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs = prefs
	return nil
}
