package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/teamdir/internal/roster"
)

// DefaultDelay emulates network latency for the simulated source.
const DefaultDelay = 500 * time.Millisecond

// Simulated serves pages from a fixed in-memory dataset.
//
// Filtering, sorting and paging follow roster.Apply. The dataset is never
// modified, so Simulated is safe for concurrent use.
type Simulated struct {
	members []roster.Member
	delay   time.Duration
	logger  *slog.Logger
}

// SimulatedOption configures a Simulated source.
type SimulatedOption func(*Simulated)

// WithDelay sets the artificial latency. Zero disables it.
func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		s.delay = d
	}
}

// WithSimulatedLogger sets the logger.
func WithSimulatedLogger(l *slog.Logger) SimulatedOption {
	return func(s *Simulated) {
		s.logger = l
	}
}

// NewSimulated creates a source over a copy of members.
func NewSimulated(members []roster.Member, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		members: append([]roster.Member(nil), members...),
		delay:   DefaultDelay,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the dataset size.
func (s *Simulated) Len() int {
	return len(s.members)
}

// Load waits for the configured delay, then filters, sorts and pages the
// dataset. It returns ctx.Err() if ctx ends first.
func (s *Simulated) Load(ctx context.Context, q roster.Query) (roster.Page, error) {
	if err := q.Validate(); err != nil {
		return roster.Page{}, err
	}
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return roster.Page{}, ctx.Err()
		case <-t.C:
		}
	}

	page := roster.Apply(s.members, q)
	s.logger.Debug("simulated load",
		"request_id", RequestID(ctx),
		"page", q.Page,
		"returned", len(page.Members),
		"total", page.Info.TotalCount,
	)
	return page, nil
}
