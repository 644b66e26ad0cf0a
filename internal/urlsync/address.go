package urlsync

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// DefaultPath is where the directory lives.
const DefaultPath = "/team-directory"

// Address is the externally visible location of a session: the browser
// address bar, or a MemoryAddress in process.
type Address interface {
	// RawQuery returns the current query string without the leading "?".
	RawQuery() string
	// Replace swaps the query string without adding a history entry.
	Replace(ctx context.Context, rawQuery string) error
}

// MemoryAddress is an in-process Address.
//
// Thread-safety: all methods are safe for concurrent use.
type MemoryAddress struct {
	mu       sync.Mutex
	path     string
	query    string
	replaces int
}

// NewMemoryAddress parses rawURL (for example "/team-directory?role=Admin").
func NewMemoryAddress(rawURL string) (*MemoryAddress, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", rawURL, err)
	}
	return &MemoryAddress{path: u.Path, query: u.RawQuery}, nil
}

// RawQuery implements Address.
func (a *MemoryAddress) RawQuery() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.query
}

// Replace implements Address.
func (a *MemoryAddress) Replace(ctx context.Context, rawQuery string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.query = rawQuery
	a.replaces++
	return nil
}

// Replaces returns how many times the query string was replaced.
func (a *MemoryAddress) Replaces() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replaces
}

// String returns the path followed by "?query" when the query is non-empty.
func (a *MemoryAddress) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.query == "" {
		return a.path
	}
	return a.path + "?" + a.query
}
