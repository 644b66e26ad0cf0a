// Package notify carries one-shot, non-blocking user notices (the toasts of
// a browser UI) out of the engine.
package notify

import (
	"context"
	"log/slog"
)

// Level grades a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notice is a single user-facing notification.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier publishes notices. Implementations must not block the caller for
// longer than it takes to hand the notice off.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

// Notify calls f(n).
func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// SlogNotifier writes notices to a structured logger.
type SlogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the notice at a level matching its grade.
func (s SlogNotifier) Notify(n Notice) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Level == LevelWarning {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, n.Title, "notice", n.Message)
}

// Notices shown by the engine.
var (
	InvalidLinkParams = Notice{
		Level:   LevelWarning,
		Title:   "Invalid link parameters",
		Message: "Some filters in the link were not recognized and have been removed.",
	}
	SlowRequest = Notice{
		Level:   LevelWarning,
		Title:   "Request taking longer than expected",
		Message: "The request is taking longer than usual. Please check your connection or try again.",
	}
)
