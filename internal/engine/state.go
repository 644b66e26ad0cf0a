package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/teamdir/internal/roster"
)

// State is an immutable snapshot of one directory session.
//
// Members is shared between snapshots and must be treated as read-only.
type State struct {
	Members    []roster.Member
	TotalCount int
	PageInfo   *roster.PageInfo // nil until the first successful load

	SearchTerm   string
	SelectedRole roster.Role

	CurrentPage int
	PageSize    int

	SortBy    roster.SortField
	SortOrder roster.SortOrder

	ViewMode roster.ViewMode

	IsLoading bool
	Error     string
}

// DefaultState returns the state a session starts with before preferences
// or an address are applied.
func DefaultState() State {
	return State{
		CurrentPage: 1,
		PageSize:    roster.DefaultPageSize,
		SortOrder:   roster.Asc,
		ViewMode:    roster.ViewTable,
	}
}

// Query returns the source parameters for the current state.
func (s State) Query() roster.Query {
	return roster.Query{
		Page:      s.CurrentPage,
		PageSize:  s.PageSize,
		Role:      s.SelectedRole,
		Search:    s.SearchTerm,
		SortBy:    s.SortBy,
		SortOrder: s.SortOrder,
	}
}

// Preferences returns the persisted subset of the state.
func (s State) Preferences() roster.Preferences {
	return roster.Preferences{ViewMode: s.ViewMode, PageSize: s.PageSize}
}

// DirectNavigation reports whether the state shows page N > 1 of the grid
// with nothing accumulated, which can only be reconstructed by a backfill.
func (s State) DirectNavigation() bool {
	return len(s.Members) == 0 && s.CurrentPage > 1 && s.ViewMode == roster.ViewGrid
}

// ActiveFilterCount counts the filters a "clear filters" action would reset.
func (s State) ActiveFilterCount() int {
	n := 0
	if s.SearchTerm != "" {
		n++
	}
	if s.SelectedRole != roster.NoRole {
		n++
	}
	if s.SortBy != roster.NoSort {
		n++
	}
	return n
}

// loadKey identifies what a load would fetch. Two states with the same key
// render the same page.
type loadKey struct {
	query roster.Query
	view  roster.ViewMode
}

func (s State) key() loadKey {
	return loadKey{query: s.Query(), view: s.ViewMode}
}

// listKey is key without the page: what the accumulated list was loaded
// for. When it changes, pages already in the list belong to another query.
func (s State) listKey() loadKey {
	k := s.key()
	k.query.Page = 0
	return k
}

// Container owns the query state of one session.
//
// All mutation goes through the declared methods; each one runs atomically
// under the container lock and applies its reset rules before storing the
// new value. Subscribers are signalled after the lock is released.
//
// The container also tracks the epoch a load result must carry to be
// accepted. Every mutation that changes what should be on screen advances
// it, so results of loads issued for an older query are discarded.
//
// In grid view it remembers the highest page merged into the list, so a
// load that was superseded by a later page advance is fetched again as part
// of the next load instead of leaving a hole.
type Container struct {
	mu     sync.Mutex
	state  State
	clock  *Clock
	expect Epoch
	merged int // highest page merged into Members for the current listKey

	feed      *changeFeed
	maxSearch int
	onPrefs   func(roster.Preferences)
	logger    *slog.Logger
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithMaxSearchLength bounds the stored search term (in runes).
func WithMaxSearchLength(n int) ContainerOption {
	return func(c *Container) {
		c.maxSearch = n
	}
}

// WithPreferences seeds the view mode and page size from a previous session.
// Invalid values are ignored.
func WithPreferences(p roster.Preferences) ContainerOption {
	return func(c *Container) {
		if p.ViewMode.Valid() {
			c.state.ViewMode = p.ViewMode
		}
		if p.PageSize > 0 {
			c.state.PageSize = p.PageSize
		}
	}
}

// WithPreferencesHook registers fn to be called, outside the container lock,
// whenever the view mode or page size changes.
func WithPreferencesHook(fn func(roster.Preferences)) ContainerOption {
	return func(c *Container) {
		c.onPrefs = fn
	}
}

// WithLogger sets the logger used to report rejected input.
func WithLogger(l *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.logger = l
	}
}

// WithClock sets the epoch clock. Tests use it to get predictable epochs.
func WithClock(clock *Clock) ContainerOption {
	return func(c *Container) {
		c.clock = clock
	}
}

// NewContainer creates a container holding DefaultState.
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		state:     DefaultState(),
		clock:     NewClock(),
		feed:      newChangeFeed(),
		maxSearch: roster.MaxSearchLength,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.expect = c.clock.Current()
	return c
}

// Snapshot returns the current state.
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel that receives a signal after every mutation.
// Signals coalesce; receivers should read Snapshot rather than count them.
// Call cancel to unsubscribe.
func (c *Container) Subscribe() (<-chan struct{}, func()) {
	return c.feed.subscribe()
}

// Epoch returns the epoch a load result must carry to be committed.
func (c *Container) Epoch() Epoch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expect
}

// SetSearchTerm sanitizes and stores term, resets to page 1, clears the
// visible list and marks the state as loading.
func (c *Container) SetSearchTerm(term string) {
	c.mutate(func(s *State) bool {
		s.SearchTerm = roster.SanitizeSearch(term, c.maxSearch)
		s.CurrentPage = 1
		s.Members = nil
		s.IsLoading = true
		return true
	})
}

// SetSelectedRole stores role (NoRole clears the filter), resets to page 1,
// clears the visible list and marks the state as loading. Unknown roles are
// rejected and logged.
func (c *Container) SetSelectedRole(role roster.Role) {
	if role != roster.NoRole && !role.Valid() {
		c.logger.Warn("rejected role", "role", string(role))
		return
	}
	c.mutate(func(s *State) bool {
		s.SelectedRole = role
		s.CurrentPage = 1
		s.Members = nil
		s.IsLoading = true
		return true
	})
}

// SetSorting stores the sort field and order and resets to page 1.
// NoSort means unsorted; the order is kept either way.
func (c *Container) SetSorting(field roster.SortField, order roster.SortOrder) {
	if field != roster.NoSort && !field.Valid() {
		c.logger.Warn("rejected sort field", "sort_by", string(field))
		return
	}
	if !order.Valid() {
		c.logger.Warn("rejected sort order", "sort_order", string(order))
		return
	}
	c.mutate(func(s *State) bool {
		s.SortBy = field
		s.SortOrder = order
		s.CurrentPage = 1
		return false
	})
}

// SetCurrentPage moves to page n. Pages below 1, and pages whose offset
// would overflow at the current page size, are rejected and logged.
func (c *Container) SetCurrentPage(n int) {
	if n < 1 {
		c.logger.Warn("rejected page", "page", n)
		return
	}
	rejected := false
	c.mutate(func(s *State) bool {
		if !roster.PageInRange(n, s.PageSize) {
			rejected = true
			return false
		}
		s.CurrentPage = n
		return false
	})
	if rejected {
		c.logger.Warn("rejected page", "page", n, "page_size", c.Snapshot().PageSize)
	}
}

// SetPageSize stores the page size and resets to page 1. Non-positive sizes
// are rejected and logged.
func (c *Container) SetPageSize(n int) {
	if n <= 0 {
		c.logger.Warn("rejected page size", "page_size", n)
		return
	}
	c.mutate(func(s *State) bool {
		s.PageSize = n
		s.CurrentPage = 1
		return false
	})
}

// SetViewMode switches the layout. Switching to a different mode resets to
// page 1 and clears the visible list; switching to the current mode changes
// nothing.
func (c *Container) SetViewMode(mode roster.ViewMode) {
	if !mode.Valid() {
		c.logger.Warn("rejected view mode", "view", string(mode))
		return
	}
	c.mutate(func(s *State) bool {
		if s.ViewMode == mode {
			return false
		}
		s.ViewMode = mode
		s.CurrentPage = 1
		s.Members = nil
		return true
	})
}

// ClearFilters resets the search term, role, sort field, sort order and
// page. Page size and view mode are kept.
func (c *Container) ClearFilters() {
	c.mutate(func(s *State) bool {
		s.SearchTerm = ""
		s.SelectedRole = roster.NoRole
		s.SortBy = roster.NoSort
		s.SortOrder = roster.Asc
		s.CurrentPage = 1
		return false
	})
}

// SetTeamMembers replaces the visible list with members and records info.
func (c *Container) SetTeamMembers(members []roster.Member, info roster.PageInfo) {
	c.mutate(func(s *State) bool {
		s.Members = replaceMembers(members)
		s.setPageInfo(info)
		c.merged = info.CurrentPage
		return false
	})
}

// AppendTeamMembers adds the members not already visible to the end of the
// list and records info.
func (c *Container) AppendTeamMembers(members []roster.Member, info roster.PageInfo) {
	c.mutate(func(s *State) bool {
		s.Members = appendMembers(s.Members, members)
		s.setPageInfo(info)
		c.merged = max(c.merged, info.CurrentPage)
		return false
	})
}

// SetLoading sets the loading flag.
func (c *Container) SetLoading(loading bool) {
	c.mutate(func(s *State) bool {
		s.IsLoading = loading
		return false
	})
}

// SetError sets the error message; "" clears it.
func (c *Container) SetError(msg string) {
	c.mutate(func(s *State) bool {
		s.Error = msg
		return false
	})
}

func (s *State) setPageInfo(info roster.PageInfo) {
	s.PageInfo = &info
	s.TotalCount = info.TotalCount
}

// mutate applies fn under the lock. fn reports whether it cleared the
// visible list; that, or any change to the load key, invalidates results of
// loads already in flight.
func (c *Container) mutate(fn func(*State) bool) {
	c.mu.Lock()
	before := c.state.key()
	beforeList := c.state.listKey()
	prefs := c.state.Preferences()
	cleared := fn(&c.state)
	if cleared || c.state.key() != before {
		c.expect = c.clock.Next()
	}
	if cleared || c.state.listKey() != beforeList {
		c.merged = 0
	}
	changedPrefs := c.state.Preferences() != prefs
	after := c.state.Preferences()
	c.mu.Unlock()

	if changedPrefs && c.onPrefs != nil {
		c.onPrefs(after)
	}
	c.feed.publish()
}

// beginLoad marks the state as loading and issues the epoch the load's
// result must carry. The returned snapshot and first page are taken
// atomically with the epoch, so the caller fetches exactly what the epoch
// stands for. A retry clears the previous error in the same step.
func (c *Container) beginLoad(retry bool) (Epoch, State, int) {
	c.mu.Lock()
	c.expect = c.clock.Next()
	c.state.IsLoading = true
	if retry {
		c.state.Error = ""
	}
	epoch, snap, from := c.expect, c.state, c.firstMissingLocked()
	c.mu.Unlock()

	c.feed.publish()
	return epoch, snap, from
}

// firstMissingLocked returns the first page a load has to fetch for the
// list to hold what the state shows. Outside grid view that is the current
// page. In grid view it is the page after the last one merged, or page 1
// when nothing of the current query is in the list.
func (c *Container) firstMissingLocked() int {
	s := c.state
	if s.ViewMode != roster.ViewGrid || s.CurrentPage <= 1 {
		return s.CurrentPage
	}
	if s.DirectNavigation() {
		return 1
	}
	return min(c.merged+1, s.CurrentPage)
}

// commit merges a loaded page if epoch is still current. final clears the
// loading flag. A successful commit clears any previous error. It reports
// whether the page was applied.
func (c *Container) commit(epoch Epoch, page roster.Page, requested int, final bool) (Merge, bool) {
	c.mu.Lock()
	if epoch != c.expect {
		c.mu.Unlock()
		return "", false
	}
	members, merge := Accumulate(c.state.Members, page.Members, c.state.ViewMode, requested)
	c.state.Members = members
	if merge == MergeReplace {
		c.merged = requested
	} else {
		c.merged = max(c.merged, requested)
	}
	c.state.setPageInfo(page.Info)
	c.state.Error = ""
	if final {
		c.state.IsLoading = false
	}
	c.mu.Unlock()

	c.feed.publish()
	return merge, true
}

// fail records a load failure if epoch is still current. The visible list
// is kept.
func (c *Container) fail(epoch Epoch, msg string) bool {
	c.mu.Lock()
	if epoch != c.expect {
		c.mu.Unlock()
		return false
	}
	c.state.Error = msg
	c.state.IsLoading = false
	c.mu.Unlock()

	c.feed.publish()
	return true
}

// pending reports whether the load tagged epoch is still current and the
// state is still loading.
func (c *Container) pending(epoch Epoch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return epoch == c.expect && c.state.IsLoading
}

