package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caklein/hokus/pkg/fields"
	"github.com/caklein/hokus/pkg/model"
	"github.com/caklein/hokus/pkg/registry"
	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/renderers/vanilla"
	"github.com/caklein/hokus/pkg/workspace"
)

// AssetPrefix is where the stylesheet and runtime script are served.
const AssetPrefix = "/assets/hokus"

// Hidden inputs naming the workspace a rendered form belongs to.
const (
	SiteField      = "_site"
	WorkspaceField = "_workspace"
)

// Server routes workspace form requests to their sessions.
type Server struct {
	service     workspace.Service
	schema      model.Schema
	title       string
	hidden      map[string]string
	fields      *registry.Registry
	renderers   *render.Registry
	saveTimeout time.Duration
	logger      *slog.Logger

	sessions *sessionManager
	router   chi.Router
}

// New builds a server. A workspace service and a non-empty form schema are
// required; the field registry and renderers default to the built-in catalog
// and the HTML and JSON renderers.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		logger:   discardLogger(),
		sessions: newSessionManager(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.service == nil {
		return nil, errors.New("server: workspace service is required")
	}
	if len(s.schema) == 0 {
		return nil, errors.New("server: form schema is required")
	}
	if s.fields == nil {
		reg, err := fields.NewRegistry()
		if err != nil {
			return nil, err
		}
		s.fields = reg
	}
	if s.renderers == nil {
		html, err := vanilla.New(vanilla.WithRegistry(s.fields), vanilla.WithAssetPrefix(AssetPrefix))
		if err != nil {
			return nil, err
		}
		s.renderers = render.NewRegistry()
		s.renderers.MustRegister(html)
		s.renderers.MustRegister(stateRenderer{})
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/sessions", s.handleListSessions)
	r.Route("/sites/{site}/workspaces/{workspace}", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/state", s.handleState)
		r.Post("/fields", s.handleEditField)
		r.Post("/items", s.handleItems)
		r.Post("/save", s.handleSave)
		r.Post("/keys", s.handleKeys)
		r.Delete("/session", s.handleCloseSession)
	})

	assets := http.StripPrefix(AssetPrefix+"/", http.FileServer(http.FS(vanilla.AssetsFS())))
	r.Handle(AssetPrefix+"/*", assets)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close unmounts every open session, abandoning in-flight saves.
func (s *Server) Close() error {
	if n := s.sessions.closeAll(); n > 0 {
		s.logger.Info("sessions closed", slog.Int("count", n))
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
