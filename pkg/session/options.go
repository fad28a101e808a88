package session

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caklein/hokus/pkg/keybind"
)

// Option configures a Session.
type Option func(*Session)

// WithSaveHandler installs the handler that persists snapshots. Without one,
// save requests put the session in the error phase with NotConfiguredMessage.
func WithSaveHandler(handler SaveHandler) Option {
	return func(s *Session) {
		s.handler = handler
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSaveTimeout rejects an unresolved attempt with TimeoutMessage after d.
// Zero (the default) waits indefinitely.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithShortcut overrides the "ctrl+s" save combination. Invalid combinations
// are ignored.
func WithShortcut(combo string) Option {
	return func(s *Session) {
		if strings.TrimSpace(combo) == "" {
			return
		}
		if parsed, err := keybind.ParseCombo(combo); err == nil {
			s.shortcut = parsed
		}
	}
}

// WithStateListener registers fn to receive every state change.
func WithStateListener(fn func(State)) Option {
	return func(s *Session) {
		s.subscribe(fn)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
