package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/caklein/hokus/pkg/fields"
	"github.com/caklein/hokus/pkg/form"
	"github.com/caklein/hokus/pkg/keybind"
	"github.com/caklein/hokus/pkg/registry"
	"github.com/caklein/hokus/pkg/render"
	"github.com/caklein/hokus/pkg/session"
	"github.com/caklein/hokus/pkg/workspace"
)

type editRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type itemsRequest struct {
	Path   string         `json:"path"`
	Action string         `json:"action"`
	Index  int            `json:"index"`
	To     int            `json:"to"`
	Values map[string]any `json:"values,omitempty"`
}

type keysResponse struct {
	Consumed bool         `json:"consumed"`
	Session  statePayload `json:"session"`
}

func keyFrom(r *http.Request) workspaceKey {
	return workspaceKey{
		site:      chi.URLParam(r, "site"),
		workspace: chi.URLParam(r, "workspace"),
	}
}

func (s *Server) basePath(key workspaceKey) string {
	return "/sites/" + url.PathEscape(key.site) + "/workspaces/" + url.PathEscape(key.workspace)
}

// entry opens the session for the request, writing the error response when
// that fails.
func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	key := keyFrom(r)
	e, err := s.open(r.Context(), key)
	if err != nil {
		s.serviceError(w, err)
		return nil, false
	}
	return e, true
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workspace.ErrInvalidKey):
		s.writeError(w, http.StatusBadRequest, "INVALID_KEY", err.Error())
	case errors.Is(err, workspace.ErrNotSupported):
		s.writeError(w, http.StatusNotImplemented, "NOT_SUPPORTED", err.Error())
	default:
		s.logger.Error("workspace service failure", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	renderer, err := s.renderers.Negotiate(r.Header.Get("Accept"), "vanilla")
	if err != nil {
		s.writeError(w, http.StatusNotAcceptable, "NOT_ACCEPTABLE", err.Error())
		return
	}

	options := render.RenderOptions{
		RootName: e.key.site + "/" + e.key.workspace,
		Title:    s.title,
		Action:   s.basePath(e.key) + "/save",
		Theme:    r.URL.Query().Get("theme"),
	}
	options.HiddenFields = render.MergeHiddenFields(s.hidden,
		render.Hidden(SiteField, e.key.site),
		render.Hidden(WorkspaceField, e.key.workspace),
	)
	body, err := renderer.Render(r.Context(), e.session, options)
	if err != nil {
		s.logger.Error("render config", slog.String("renderer", renderer.Name()), slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "RENDER_ERROR", "render failed")
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, newStatePayload(e.session, e.key.String()))
}

func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := e.session.Edit(req.Path, req.Value); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_EDIT", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, newStatePayload(e.session, e.key.String()))
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req itemsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	var err error
	switch req.Action {
	case "append":
		err = e.session.AppendItem(req.Path, req.Values)
	case "remove":
		err = e.session.RemoveItem(req.Path, req.Index)
	case "move":
		err = e.session.MoveItem(req.Path, req.Index, req.To)
	default:
		err = fmt.Errorf("unknown item action %q", req.Action)
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_EDIT", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, newStatePayload(e.session, e.key.String()))
}

// handleSave requests a save and waits for its outcome. A urlencoded body,
// as posted by the HTML form, is applied to the session first and answered
// with a redirect back to the config page.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	formPost := isFormPost(r)
	if formPost {
		if err := r.ParseForm(); err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if err := applyForm(e.session, r.PostForm); err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_EDIT", err.Error())
			return
		}
	}

	err := e.session.RequestSave(r.Context())
	switch {
	case err == nil:
		if _, werr := e.session.Await(r.Context()); werr != nil && !errors.Is(werr, context.Canceled) {
			s.logger.Warn("save still pending at response time", slog.Any("error", werr))
		}
	case errors.Is(err, session.ErrNothingToSave), errors.Is(err, session.ErrSaveNotConfigured):
		// The state payload reports the outcome.
	case errors.Is(err, session.ErrSaveInProgress):
		if !formPost {
			s.writeError(w, http.StatusConflict, "SAVE_IN_PROGRESS", err.Error())
			return
		}
	default:
		s.writeError(w, http.StatusInternalServerError, "SAVE_FAILED", err.Error())
		return
	}

	if formPost {
		http.Redirect(w, r, s.basePath(e.key)+"/config", http.StatusSeeOther)
		return
	}
	status := http.StatusOK
	if errors.Is(err, session.ErrNothingToSave) {
		status = http.StatusConflict
	}
	if errors.Is(err, session.ErrSaveNotConfigured) {
		status = http.StatusNotImplemented
	}
	s.writeJSON(w, status, newStatePayload(e.session, e.key.String()))
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var ev keybind.Event
	if err := decodeJSON(r, &ev); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	consumed := e.bus.Dispatch(ev) > 0
	if consumed {
		if _, err := e.session.Await(r.Context()); err != nil {
			s.logger.Warn("save still pending at response time", slog.Any("error", err))
		}
	}
	s.writeJSON(w, http.StatusOK, keysResponse{
		Consumed: consumed,
		Session:  newStatePayload(e.session, e.key.String()),
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.close(keyFrom(r)) {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "no open session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.sessions.keys()})
}

func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// applyForm writes posted values into the session. Only leaves whose posted
// text differs from what the input showed are edited, so untouched values
// keep their stored form. The last value of a repeated name wins, which lets a
// checked checkbox override its hidden "false" companion.
func applyForm(s *session.Session, posted url.Values) error {
	var edits []editRequest
	_ = s.View(func(tree *form.Tree) error {
		tree.Walk(func(n *form.Node) bool {
			if n.Shape() != registry.ShapeLeaf {
				return true
			}
			values, ok := posted[n.Path()]
			if !ok || len(values) == 0 {
				return true
			}
			text := values[len(values)-1]
			if n.Field().Type == fields.TypeReadonly || text == fields.DisplayValue(n.Value()) {
				return true
			}
			edits = append(edits, editRequest{Path: n.Path(), Value: text})
			return true
		})
		return nil
	})
	for _, edit := range edits {
		if err := s.Edit(edit.Path, edit.Value); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSpace(edit.Path), err)
		}
	}
	return nil
}
