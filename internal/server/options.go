package server

import (
	"io"
	"log/slog"
	"time"

	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/workspace"
)

// Option configures a Server.
type Option func(*Server)

// WithService sets the workspace service configurations are read from and
// saved to.
func WithService(svc workspace.Service) Option {
	return func(s *Server) {
		s.service = svc
	}
}

// WithForm sets the schema every workspace session is built from, and the
// heading shown above it.
func WithForm(schema model.Schema, title string) Option {
	return func(s *Server) {
		s.schema = schema.Clone()
		s.title = title
	}
}

// WithFieldRegistry sets the registry field types are resolved through.
func WithFieldRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.fields = reg
	}
}

// WithRenderers replaces the renderer registry used for the config page. The
// "vanilla" renderer is the fallback when the Accept header matches nothing,
// so a replacement registry must register one under that name.
func WithRenderers(renderers *render.Registry) Option {
	return func(s *Server) {
		s.renderers = renderers
	}
}

// WithHiddenFields adds hidden inputs (a CSRF token, a revision) to every
// rendered form. The site and workspace inputs always win over these.
func WithHiddenFields(fields map[string]string) Option {
	return func(s *Server) {
		s.hidden = render.MergeHiddenFields(s.hidden, render.SortedHiddenFields(fields)...)
	}
}

// WithSaveTimeout bounds each save attempt of every session.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.saveTimeout = d
	}
}

// WithLogger sets the structured logger for requests and sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
