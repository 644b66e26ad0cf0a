package source

import (
	"context"
	"fmt"

	"github.com/roach88/teamdir/internal/roster"
)

// Source loads one page of members for a query.
//
// Implementations must be safe for concurrent use; a session may have a
// superseded load still in flight when it issues the next one.
type Source interface {
	Load(ctx context.Context, q roster.Query) (roster.Page, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, q roster.Query) (roster.Page, error)

// Load calls f.
func (f Func) Load(ctx context.Context, q roster.Query) (roster.Page, error) {
	return f(ctx, q)
}

// Kind names a source implementation in configuration.
type Kind string

const (
	KindSimulated Kind = "simulated"
	KindRemote    Kind = "remote"
)

// ParseKind accepts "simulated" and "remote".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSimulated, KindRemote:
		return k, nil
	}
	return "", fmt.Errorf("unknown source %q: must be simulated or remote", s)
}

type requestIDKey struct{}

// WithRequestID attaches a correlation ID to ctx. Remote sends it as
// X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID attached to ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
