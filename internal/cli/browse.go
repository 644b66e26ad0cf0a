package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/teamdir/internal/engine"
	"github.com/roach88/teamdir/internal/notify"
	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/session"
	"github.com/roach88/teamdir/internal/store"
	"github.com/roach88/teamdir/internal/urlsync"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	SortBy    string
	SortOrder string
	View      string
	PageSize  int
	More      int
	Prefs     string
	Timeout   time.Duration
}

// BrowseResult is the settled session printed by browse.
type BrowseResult struct {
	Address       string          `json:"address"`
	Page          int             `json:"page"`
	PageSize      int             `json:"pageSize"`
	TotalCount    int             `json:"totalCount"`
	TotalPages    int             `json:"totalPages"`
	View          roster.ViewMode `json:"viewMode"`
	ActiveFilters int             `json:"activeFilters"`
	Members       []roster.Member `json:"members"`
	Error         string          `json:"error,omitempty"`
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse [address]",
		Short: "Open a directory session and print what it shows",
		Long: `Open a directory session on an address, wait for it to load and print
the visible members and the address the session settled on.

The address carries role, search and page exactly like a shared link;
invalid values are dropped with a warning. The source is chosen by the
configuration (simulated unless TEAMDIR_USE_MOCK_API=false).

With --prefs, view mode and page size are restored from and saved to a
SQLite database between runs.

Exit codes:
  0 - Members loaded
  1 - The load failed (the error is printed)
  2 - Command error

Example:
  teamdir browse "/team-directory?role=Admin&search=smith"
  teamdir browse "/team-directory?page=3" --view grid --page-size 5
  teamdir browse --view grid --more 2 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			address := urlsync.DefaultPath
			if len(args) == 1 {
				address = args[0]
			}
			return runBrowse(opts, address, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SortBy, "sort", "", "sort field (name|role)")
	cmd.Flags().StringVar(&opts.SortOrder, "order", "asc", "sort order (asc|desc)")
	cmd.Flags().StringVar(&opts.View, "view", "", "view mode (table|grid)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "members per page (default from preferences or config)")
	cmd.Flags().IntVar(&opts.More, "more", 0, "load this many further pages after settling")
	cmd.Flags().StringVar(&opts.Prefs, "prefs", "", "SQLite database to restore and save preferences")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "how long to wait for each load")

	return cmd
}

func runBrowse(opts *BrowseOptions, address string, cmd *cobra.Command) error {
	f := opts.Formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	sortBy, err := roster.ParseSortField(opts.SortBy)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --sort", err)
	}
	order, err := roster.ParseSortOrder(opts.SortOrder)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --order", err)
	}
	var view roster.ViewMode
	if opts.View != "" {
		if view, err = roster.ParseViewMode(opts.View); err != nil {
			return WrapExitError(ExitCommandError, "invalid --view", err)
		}
	}
	if opts.PageSize < 0 || opts.More < 0 {
		return NewExitError(ExitCommandError, "--page-size and --more must not be negative")
	}

	addr, err := urlsync.NewMemoryAddress(address)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid address", err)
	}
	src, err := session.NewSource(opts.Config, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create source", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithNotifier(notify.SlogNotifier{Logger: logger}),
	}
	if opts.Prefs != "" {
		st, err := store.Open(opts.Prefs)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open preferences database", err)
		}
		defer st.Close()
		sessOpts = append(sessOpts, session.WithPreferenceStore(st))
	}

	sess, err := session.New(ctx, opts.Config.Directory, src, addr, sessOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Error("failed to close session", "error", err)
		}
	}()

	// Layout flags go in before hydration so the address decides the page.
	state := sess.State()
	if view != "" {
		state.SetViewMode(view)
	}
	if opts.PageSize > 0 {
		state.SetPageSize(opts.PageSize)
	}
	if sortBy != roster.NoSort {
		state.SetSorting(sortBy, order)
	}

	report, err := sess.Start(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start session", err)
	}
	if len(report.Invalid) > 0 {
		f.VerboseLog("dropped address parameters: %v", report.Invalid)
	}
	if err := settle(ctx, sess, opts.Timeout); err != nil {
		return WrapExitError(ExitFailure, "session did not settle", err)
	}

	for i := 0; i < opts.More; i++ {
		snap := sess.Snapshot()
		if snap.Error != "" || snap.PageInfo == nil || !snap.PageInfo.HasNextPage {
			break
		}
		state.SetCurrentPage(snap.CurrentPage + 1)
		if err := settle(ctx, sess, opts.Timeout); err != nil {
			return WrapExitError(ExitFailure, "session did not settle", err)
		}
	}

	result := browseResult(addr.String(), sess.Snapshot())
	if f.JSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		printBrowse(f.Writer, result)
	}

	if result.Error != "" {
		return NewExitError(ExitFailure, "load failed: "+result.Error)
	}
	return nil
}

func settle(ctx context.Context, sess *session.Session, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sess.Settle(ctx)
}

func browseResult(address string, s engine.State) BrowseResult {
	r := BrowseResult{
		Address:       address,
		Page:          s.CurrentPage,
		PageSize:      s.PageSize,
		TotalCount:    s.TotalCount,
		View:          s.ViewMode,
		ActiveFilters: s.ActiveFilterCount(),
		Members:       s.Members,
		Error:         s.Error,
	}
	if r.Members == nil {
		r.Members = []roster.Member{}
	}
	if s.PageInfo != nil {
		r.TotalPages = s.PageInfo.TotalPages
	}
	return r
}

func printBrowse(w io.Writer, r BrowseResult) {
	fmt.Fprintf(w, "Address: %s\n", r.Address)
	fmt.Fprintf(w, "Page %d of %d (%d members, %d per page, %s view)\n",
		r.Page, r.TotalPages, r.TotalCount, r.PageSize, r.View)
	if r.ActiveFilters > 0 {
		fmt.Fprintf(w, "Active filters: %d\n", r.ActiveFilters)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	if len(r.Members) == 0 {
		fmt.Fprintln(w, "No team members found.")
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, m := range r.Members {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Email, m.Role)
	}
	tw.Flush()
}
