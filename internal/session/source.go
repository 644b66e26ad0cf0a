package session

import (
	"fmt"
	"log/slog"

	"github.com/roach88/teamdir/internal/config"
	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/source"
)

// NewSource builds the record source cfg selects. It is resolved once per
// process; the session never switches sources.
func NewSource(cfg config.Config, logger *slog.Logger) (source.Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Source {
	case source.KindSimulated:
		return source.NewSimulated(
			roster.Generate(cfg.Simulated.DatasetSize),
			source.WithDelay(cfg.Simulated.Delay),
			source.WithSimulatedLogger(logger),
		), nil
	case source.KindRemote:
		return source.NewRemote(cfg.Remote.Endpoint,
			source.WithTimeout(cfg.Remote.Timeout),
			source.WithRemoteLogger(logger),
		)
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}
