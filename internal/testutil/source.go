package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/source"
)

// ScriptedSource serves a fixed dataset with no delay and lets a test
// inject failures and hold calls in flight.
//
// Thread-safety: all methods are safe for concurrent use.
type ScriptedSource struct {
	inner source.Source

	mu       sync.Mutex
	failures []error
	gate     chan struct{}
	calls    []roster.Query
	started  chan roster.Query
}

// NewScriptedSource creates a source over members.
func NewScriptedSource(members []roster.Member) *ScriptedSource {
	return &ScriptedSource{
		inner:   source.NewSimulated(members, source.WithDelay(0)),
		started: make(chan roster.Query, 256),
	}
}

// FailNext makes the next call fail with err. Calls queue up: FailNext
// twice fails the next two calls.
func (s *ScriptedSource) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
}

// FailNextMessage is FailNext with a plain error carrying msg.
func (s *ScriptedSource) FailNextMessage(msg string) {
	s.FailNext(errors.New(msg))
}

// Hold makes subsequent calls block until Release or their ctx ends.
func (s *ScriptedSource) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil {
		s.gate = make(chan struct{})
	}
}

// Release unblocks held calls and stops holding new ones.
func (s *ScriptedSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// Started receives every query as its call begins.
func (s *ScriptedSource) Started() <-chan roster.Query {
	return s.started
}

// Calls returns the queries received so far, in order.
func (s *ScriptedSource) Calls() []roster.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]roster.Query(nil), s.calls...)
}

// Pages returns the page numbers of the calls received so far.
func (s *ScriptedSource) Pages() []int {
	calls := s.Calls()
	pages := make([]int, len(calls))
	for i, q := range calls {
		pages[i] = q.Page
	}
	return pages
}

// Load implements source.Source. Whether the call fails is decided when it
// begins, before any hold.
func (s *ScriptedSource) Load(ctx context.Context, q roster.Query) (roster.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	gate := s.gate
	var failure error
	if len(s.failures) > 0 {
		failure = s.failures[0]
		s.failures = s.failures[1:]
	}
	s.mu.Unlock()

	select {
	case s.started <- q:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return roster.Page{}, ctx.Err()
		}
	}
	if failure != nil {
		return roster.Page{}, failure
	}
	return s.inner.Load(ctx, q)
}
