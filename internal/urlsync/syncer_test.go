package urlsync

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamdir/internal/engine"
	"github.com/roach88/teamdir/internal/notify"
	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/testutil"
)

func newAddress(t *testing.T, raw string) *MemoryAddress {
	t.Helper()
	addr, err := NewMemoryAddress(raw)
	require.NoError(t, err)
	return addr
}

func hydrate(t *testing.T, raw string) (*engine.Container, *MemoryAddress, *testutil.NoticeRecorder, Report) {
	t.Helper()
	c := engine.NewContainer()
	addr := newAddress(t, raw)
	rec := &testutil.NoticeRecorder{}
	report, err := New(c, addr, WithNotifier(rec)).Hydrate(context.Background())
	require.NoError(t, err)
	return c, addr, rec, report
}

func TestHydrate_AppliesParameters(t *testing.T) {
	c, addr, rec, report := hydrate(t, "/team-directory?role=Agent&search=jane&page=3")

	s := c.Snapshot()
	assert.Equal(t, roster.RoleAgent, s.SelectedRole)
	assert.Equal(t, "jane", s.SearchTerm)
	assert.Equal(t, 3, s.CurrentPage, "page is applied after the filters that reset it")
	assert.Empty(t, report.Invalid)
	assert.Empty(t, rec.Notices())
	assert.Zero(t, addr.Replaces())
}

func TestHydrate_NoParameters(t *testing.T) {
	c, addr, rec, report := hydrate(t, "/team-directory")

	assert.Equal(t, engine.DefaultState().Query(), c.Snapshot().Query())
	assert.Equal(t, Report{}, report)
	assert.Empty(t, rec.Notices())
	assert.Zero(t, addr.Replaces())
}

func TestHydrate_EmptyValuesAreIgnored(t *testing.T) {
	_, addr, rec, report := hydrate(t, "/?role=&page=&search=")

	assert.Empty(t, report.Invalid)
	assert.Empty(t, rec.Notices())
	assert.Zero(t, addr.Replaces())
}

func TestHydrate_DiscardsInvalidRole(t *testing.T) {
	c, addr, rec, report := hydrate(t, "/team-directory?role=Owner&search=smith&utm=mail")

	s := c.Snapshot()
	assert.Equal(t, roster.NoRole, s.SelectedRole)
	assert.Equal(t, "smith", s.SearchTerm)
	assert.Equal(t, []string{ParamRole}, report.Invalid)
	assert.True(t, report.Cleaned)

	assert.Equal(t, []notify.Notice{notify.InvalidLinkParams}, rec.Notices())
	assert.Equal(t, "/team-directory?search=smith&utm=mail", addr.String())
}

func TestHydrate_RoleIsCaseSensitive(t *testing.T) {
	_, _, _, report := hydrate(t, "/?role=admin")
	assert.Equal(t, []string{ParamRole}, report.Invalid)
}

func TestHydrate_DiscardsInvalidPage(t *testing.T) {
	for _, raw := range []string{"0", "-2", "abc", "2.5", "3x", "922337203685477582", "99999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			c, addr, rec, report := hydrate(t, "/?role=Admin&page="+url.QueryEscape(raw))

			assert.Equal(t, 1, c.Snapshot().CurrentPage)
			assert.Equal(t, roster.RoleAdmin, c.Snapshot().SelectedRole)
			assert.Equal(t, []string{ParamPage}, report.Invalid)
			assert.Len(t, rec.Notices(), 1)
			assert.Equal(t, "role=Admin", addr.RawQuery())
		})
	}
}

func TestHydrate_OneNoticeForSeveralInvalidParameters(t *testing.T) {
	_, addr, rec, report := hydrate(t, "/?role=Owner&page=zero&search=x")

	assert.Equal(t, []string{ParamRole, ParamPage}, report.Invalid)
	assert.Len(t, rec.Notices(), 1)
	assert.Equal(t, "search=x", addr.RawQuery())
	assert.Equal(t, 1, addr.Replaces())
}

func TestHydrate_RunsOnce(t *testing.T) {
	c := engine.NewContainer()
	sy := New(c, newAddress(t, "/?page=2"))

	_, err := sy.Hydrate(context.Background())
	require.NoError(t, err)
	assert.True(t, sy.Hydrated())

	c.SetCurrentPage(5)
	_, err = sy.Hydrate(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyHydrated)
	assert.Equal(t, 5, c.Snapshot().CurrentPage, "second hydrate must not reapply the address")
}

func TestHydrate_FailedCleanupStillHydrates(t *testing.T) {
	c := engine.NewContainer()
	addr := &failingAddress{MemoryAddress: newAddress(t, "/?role=Owner"), failures: 1}
	sy := New(c, addr)

	report, err := sy.Hydrate(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Cleaned)
	assert.True(t, sy.Hydrated())
}

func TestExternalize_BeforeHydrate(t *testing.T) {
	sy := New(engine.NewContainer(), newAddress(t, "/?role=Admin"))
	assert.ErrorIs(t, sy.Externalize(context.Background()), ErrNotHydrated)
	assert.ErrorIs(t, sy.Run(context.Background()), ErrNotHydrated)
}

func TestExternalize_WritesOwnedParameters(t *testing.T) {
	c := engine.NewContainer()
	addr := newAddress(t, "/team-directory?utm=mail")
	sy := New(c, addr)
	_, err := sy.Hydrate(context.Background())
	require.NoError(t, err)

	c.SetSelectedRole(roster.RoleCreator)
	c.SetSearchTerm("  ann  ")
	c.SetCurrentPage(4)
	require.NoError(t, sy.Externalize(context.Background()))

	assert.Equal(t, "/team-directory?page=4&role=Creator&search=ann&utm=mail", addr.String())
	assert.Equal(t, 1, addr.Replaces())

	// Unchanged state does not touch the address.
	require.NoError(t, sy.Externalize(context.Background()))
	assert.Equal(t, 1, addr.Replaces())

	c.ClearFilters()
	require.NoError(t, sy.Externalize(context.Background()))
	assert.Equal(t, "/team-directory?utm=mail", addr.String())
}

func TestExternalize_PageOneIsOmitted(t *testing.T) {
	c := engine.NewContainer()
	addr := newAddress(t, "/?page=1")
	sy := New(c, addr)
	_, err := sy.Hydrate(context.Background())
	require.NoError(t, err)

	require.NoError(t, sy.Externalize(context.Background()))
	assert.Equal(t, "", addr.RawQuery())
}

func TestExternalize_NotReentrant(t *testing.T) {
	c := engine.NewContainer()
	addr := &blockingAddress{
		MemoryAddress: newAddress(t, "/"),
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	sy := New(c, addr)
	_, err := sy.Hydrate(context.Background())
	require.NoError(t, err)

	c.SetCurrentPage(2)
	done := make(chan error, 1)
	go func() { done <- sy.Externalize(context.Background()) }()
	<-addr.entered

	c.SetCurrentPage(3)
	assert.NoError(t, sy.Externalize(context.Background()), "overlapping call is coalesced")
	assert.Equal(t, 1, addr.calls())

	close(addr.release)
	require.NoError(t, <-done)
	assert.Equal(t, "page=2", addr.RawQuery())

	// The next call reconciles to the latest state.
	require.NoError(t, sy.Externalize(context.Background()))
	assert.Equal(t, "page=3", addr.RawQuery())
}

func TestExternalize_ReleasesGuardAfterFailure(t *testing.T) {
	c := engine.NewContainer()
	addr := &failingAddress{MemoryAddress: newAddress(t, "/"), failures: 1}
	sy := New(c, addr)
	_, err := sy.Hydrate(context.Background())
	require.NoError(t, err)

	c.SetSelectedRole(roster.RoleAdmin)
	require.Error(t, sy.Externalize(context.Background()))
	require.NoError(t, sy.Externalize(context.Background()))
	assert.Equal(t, "role=Admin", addr.RawQuery())
}

func TestRun_FollowsContainer(t *testing.T) {
	c := engine.NewContainer()
	addr := newAddress(t, "/?search=jane")
	sy := New(c, addr)
	_, err := sy.Hydrate(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sy.Run(ctx) }()

	c.SetSelectedRole(roster.RoleAgent)
	c.SetCurrentPage(2)
	assert.Eventually(t, func() bool {
		return addr.RawQuery() == "page=2&role=Agent&search=jane"
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRoundTrip(t *testing.T) {
	states := []func(c *engine.Container){
		func(c *engine.Container) {},
		func(c *engine.Container) { c.SetSelectedRole(roster.RoleAdmin) },
		func(c *engine.Container) { c.SetSearchTerm("Jane Smith") },
		func(c *engine.Container) { c.SetCurrentPage(7) },
		func(c *engine.Container) {
			c.SetSelectedRole(roster.RoleCreator)
			c.SetSearchTerm("a&b=c?")
			c.SetCurrentPage(2)
		},
		func(c *engine.Container) {
			c.SetSearchTerm("ünïcode + spaces")
			c.SetCurrentPage(12)
		},
	}

	for i, apply := range states {
		src := engine.NewContainer()
		apply(src)
		want := src.Snapshot()

		addr := newAddress(t, "/?"+Encode(want).Encode())
		dst := engine.NewContainer()
		_, err := New(dst, addr).Hydrate(context.Background())
		require.NoError(t, err)
		got := dst.Snapshot()

		assert.Equal(t, want.SelectedRole, got.SelectedRole, "state %d", i)
		assert.Equal(t, want.SearchTerm, got.SearchTerm, "state %d", i)
		assert.Equal(t, want.CurrentPage, got.CurrentPage, "state %d", i)
		assert.Zero(t, addr.Replaces(), "state %d", i)
	}
}

func TestEncode(t *testing.T) {
	s := engine.DefaultState()
	assert.Empty(t, Encode(s))

	s.SearchTerm = "   "
	s.CurrentPage = 1
	assert.Empty(t, Encode(s), "blank search and page 1 are omitted")

	s.SelectedRole = roster.RoleAgent
	s.SearchTerm = " x "
	s.CurrentPage = 2
	assert.Equal(t, "page=2&role=Agent&search=x", Encode(s).Encode())
}

// failingAddress fails the first failures replaces.
type failingAddress struct {
	*MemoryAddress
	mu       sync.Mutex
	failures int
}

func (a *failingAddress) Replace(ctx context.Context, raw string) error {
	a.mu.Lock()
	if a.failures > 0 {
		a.failures--
		a.mu.Unlock()
		return errors.New("router unavailable")
	}
	a.mu.Unlock()
	return a.MemoryAddress.Replace(ctx, raw)
}

// blockingAddress holds every replace until release is closed.
type blockingAddress struct {
	*MemoryAddress
	entered chan struct{}
	release chan struct{}

	mu sync.Mutex
	n  int
}

func (a *blockingAddress) Replace(ctx context.Context, raw string) error {
	a.mu.Lock()
	a.n++
	a.mu.Unlock()
	select {
	case a.entered <- struct{}{}:
	default:
	}
	<-a.release
	return a.MemoryAddress.Replace(ctx, raw)
}

func (a *blockingAddress) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

func TestFlush_WaitsForPendingReplace(t *testing.T) {
	c := engine.NewContainer()
	addr := &blockingAddress{
		MemoryAddress: newAddress(t, "/"),
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	sy := New(c, addr)
	_, err := sy.Hydrate(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, New(c, addr).Flush(context.Background()), ErrNotHydrated)

	c.SetCurrentPage(2)
	done := make(chan error, 1)
	go func() { done <- sy.Externalize(context.Background()) }()
	<-addr.entered

	c.SetCurrentPage(5)
	flushed := make(chan error, 1)
	go func() { flushed <- sy.Flush(context.Background()) }()

	close(addr.release)
	require.NoError(t, <-done)
	require.NoError(t, <-flushed)
	assert.Equal(t, "page=5", addr.RawQuery())
}
